package lastfm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserService provides read-only user operations for the Last.fm API.
type UserService struct {
	client *Client
}

// GetWeeklyAlbumChart returns the album chart of a user, ordered by rank.
//
// Pass the zero ChartRange for the most recent week.
//
// Example:
//
//	chart, err := client.User().GetWeeklyAlbumChart(ctx, "rj", lastfm.ChartRange{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, a := range chart.Albums {
//	    fmt.Printf("%d. %s - %s\n", a.Rank, a.Artist, a.Name)
//	}
func (s *UserService) GetWeeklyAlbumChart(ctx context.Context, user string, r ChartRange) (*WeeklyAlbumChart, error) {
	if user == "" {
		return nil, fmt.Errorf("lastfm: user is required")
	}

	params := map[string]string{
		"user": user,
	}
	if !r.From.IsZero() {
		params["from"] = strconv.FormatInt(r.From.Unix(), 10)
	}
	if !r.To.IsZero() {
		params["to"] = strconv.FormatInt(r.To.Unix(), 10)
	}

	resp, err := s.client.call(ctx, "user.getWeeklyAlbumChart", params)
	if err != nil {
		return nil, err
	}

	chart, err := unmarshalWeeklyAlbumChart(resp)
	if err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse weekly album chart: %w", err)
	}

	return chart, nil
}

// weeklyAlbumChartResponse represents the XML response from user.getWeeklyAlbumChart.
type weeklyAlbumChartResponse struct {
	Chart struct {
		User   string `xml:"user,attr"`
		From   string `xml:"from,attr"`
		To     string `xml:"to,attr"`
		Albums []struct {
			Rank   string `xml:"rank,attr"`
			Artist struct {
				MBID string `xml:"mbid,attr"`
				Name string `xml:",chardata"`
			} `xml:"artist"`
			Name      string `xml:"name"`
			MBID      string `xml:"mbid"`
			PlayCount string `xml:"playcount"`
			URL       string `xml:"url"`
		} `xml:"album"`
	} `xml:"weeklyalbumchart"`
}

func unmarshalWeeklyAlbumChart(data []byte) (*WeeklyAlbumChart, error) {
	var resp weeklyAlbumChartResponse
	if err := unwrap(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weekly album chart: %w", err)
	}

	chart := &WeeklyAlbumChart{
		User:   resp.Chart.User,
		From:   parseUnix(resp.Chart.From),
		To:     parseUnix(resp.Chart.To),
		Albums: make([]ChartAlbum, 0, len(resp.Chart.Albums)),
	}

	for i, a := range resp.Chart.Albums {
		playCount, err := parseCount(a.PlayCount)
		if err != nil {
			return nil, fmt.Errorf("album %q: invalid playcount: %w", a.Name, err)
		}
		rank, err := strconv.Atoi(strings.TrimSpace(a.Rank))
		if err != nil {
			rank = i + 1
		}
		chart.Albums = append(chart.Albums, ChartAlbum{
			Rank:       rank,
			Artist:     strings.TrimSpace(a.Artist.Name),
			ArtistMBID: a.Artist.MBID,
			Name:       strings.TrimSpace(a.Name),
			MBID:       strings.TrimSpace(a.MBID),
			PlayCount:  playCount,
			URL:        strings.TrimSpace(a.URL),
		})
	}

	return chart, nil
}

// parseCount parses a numeric field. Last.fm sends counts as strings and
// occasionally omits them; an empty value counts as zero.
func parseCount(s string) (uint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

func parseUnix(s string) time.Time {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}
	}
	return time.Unix(n, 0)
}
