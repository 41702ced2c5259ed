package lastfm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// AlbumService provides album operations for the Last.fm API.
type AlbumService struct {
	client *Client
}

// GetInfo returns metadata for an album, including its track list length
// and artwork descriptors.
//
// Example:
//
//	info, err := client.Album().GetInfo(ctx, "Cher", "Believe")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(info.TrackCount, len(info.Images))
func (s *AlbumService) GetInfo(ctx context.Context, artist, album string) (*AlbumInfo, error) {
	if artist == "" || album == "" {
		return nil, fmt.Errorf("lastfm: artist and album are required")
	}

	resp, err := s.client.call(ctx, "album.getInfo", map[string]string{
		"artist": artist,
		"album":  album,
	})
	if err != nil {
		return nil, err
	}

	info, err := unmarshalAlbumInfo(resp)
	if err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse album info: %w", err)
	}

	return info, nil
}

// maxImageSize caps artwork downloads; Last.fm's largest covers are well
// under a megabyte.
var maxImageSize int64 = 32 << 20

// DownloadImage fetches the raw bytes behind an artwork URL.
//
// Artwork is served from a CDN rather than the API endpoint, so this is a
// single plain GET with no retries and no envelope parsing.
func (s *AlbumService) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("lastfm: image url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.client.userAgent)

	s.client.logDebugf("lastfm: downloading %s", url)
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > maxImageSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrImageTooLarge, url, maxImageSize)
	}
	return data, nil
}

// albumInfoResponse represents the XML response from album.getInfo.
type albumInfoResponse struct {
	Album struct {
		Name      string `xml:"name"`
		Artist    string `xml:"artist"`
		MBID      string `xml:"mbid"`
		URL       string `xml:"url"`
		Listeners string `xml:"listeners"`
		PlayCount string `xml:"playcount"`
		Images    []struct {
			Size string `xml:"size,attr"`
			URL  string `xml:",chardata"`
		} `xml:"image"`
		Tracks []struct {
			Rank string `xml:"rank,attr"`
		} `xml:"tracks>track"`
	} `xml:"album"`
}

func unmarshalAlbumInfo(data []byte) (*AlbumInfo, error) {
	var resp albumInfoResponse
	if err := unwrap(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal album info: %w", err)
	}

	// Counts are informational; tolerate garbage rather than failing the album.
	listeners, _ := parseCount(resp.Album.Listeners)
	playCount, _ := parseCount(resp.Album.PlayCount)

	info := &AlbumInfo{
		Name:       strings.TrimSpace(resp.Album.Name),
		Artist:     strings.TrimSpace(resp.Album.Artist),
		MBID:       strings.TrimSpace(resp.Album.MBID),
		URL:        strings.TrimSpace(resp.Album.URL),
		Listeners:  listeners,
		PlayCount:  playCount,
		Images:     make([]Image, 0, len(resp.Album.Images)),
		TrackCount: len(resp.Album.Tracks),
	}
	for _, img := range resp.Album.Images {
		info.Images = append(info.Images, Image{
			URL:  strings.TrimSpace(img.URL),
			Size: strings.TrimSpace(img.Size),
		})
	}

	return info, nil
}
