package chart

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jfmyers9/scrobblegrid/pkg/lastfm"
	"github.com/rs/zerolog"
)

// Source supplies the ordered album chart of a user.
type Source interface {
	WeeklyAlbums(ctx context.Context, user string, r Range) ([]Album, error)
}

// Range selects a chart week; the zero value means the latest one.
type Range struct {
	From time.Time
	To   time.Time
}

// ClientConfig configures the Last.fm backed client.
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	HTTPTimeout time.Duration // 0 disables the timeout
}

// Client wraps the Last.fm API client. It is both the chart Source and the
// per-album API used by the fetcher.
type Client struct {
	client *lastfm.Client
}

// NewClient creates a new Last.fm backed client.
func NewClient(cfg ClientConfig, logger zerolog.Logger) (*Client, error) {
	client, err := lastfm.NewClient(lastfm.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		Logger:     debugLogger{logger.With().Str("component", "lastfm").Logger()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create lastfm client: %w", err)
	}
	return &Client{client: client}, nil
}

// WeeklyAlbums returns the user's weekly album chart in rank order.
func (c *Client) WeeklyAlbums(ctx context.Context, user string, r Range) ([]Album, error) {
	resp, err := c.client.User().GetWeeklyAlbumChart(ctx, user, lastfm.ChartRange{From: r.From, To: r.To})
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly album chart: %w", err)
	}

	albums := make([]Album, 0, len(resp.Albums))
	for _, a := range resp.Albums {
		albums = append(albums, Album{
			Artist:    a.Artist,
			Name:      a.Name,
			PlayCount: a.PlayCount,
			MBID:      a.MBID,
			URL:       a.URL,
		})
	}
	return albums, nil
}

// AlbumInfo returns track count and artwork descriptors of an album.
func (c *Client) AlbumInfo(ctx context.Context, artist, album string) (*AlbumInfo, error) {
	resp, err := c.client.Album().GetInfo(ctx, artist, album)
	if err != nil {
		return nil, fmt.Errorf("failed to get album info: %w", err)
	}

	info := &AlbumInfo{
		TrackCount: uint(resp.TrackCount),
		Images:     make([]Image, 0, len(resp.Images)),
	}
	for _, img := range resp.Images {
		info.Images = append(info.Images, Image{URL: img.URL, Size: img.Size})
	}
	return info, nil
}

// Image downloads artwork bytes.
func (c *Client) Image(ctx context.Context, url string) ([]byte, error) {
	data, err := c.client.Album().DownloadImage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	return data, nil
}

// debugLogger adapts zerolog to lastfm.Logger.
type debugLogger struct {
	logger zerolog.Logger
}

func (l debugLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}
