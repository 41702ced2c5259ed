// Package fetcher retrieves per-album metadata and cover art with a bounded
// number of requests in flight.
package fetcher

import (
	"context"
	"fmt"

	"github.com/jfmyers9/scrobblegrid/internal/chart"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of albums fetched at once when Options
// leaves it unset.
const DefaultConcurrency = 100

// API is the per-album remote surface the fetcher needs.
type API interface {
	AlbumInfo(ctx context.Context, artist, album string) (*chart.AlbumInfo, error)
	Image(ctx context.Context, url string) ([]byte, error)
}

// Options configures a Fetcher.
type Options struct {
	Concurrency int // Maximum albums in flight (default DefaultConcurrency)
}

// Outcome is the result of fetching one album.
type Outcome struct {
	Album  chart.Album
	Result chart.Result
	Err    error // Non-nil if the metadata or image request failed
}

// Stats counts the outcomes drained by Collect.
type Stats struct {
	Fetched int
	Failed  int
}

// Fetcher fetches album data over a fixed-width window of concurrent tasks.
type Fetcher struct {
	api         API
	concurrency int
	logger      zerolog.Logger
}

// New creates a new Fetcher.
func New(api API, opts Options, logger zerolog.Logger) *Fetcher {
	concurrency := opts.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fetcher{
		api:         api,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "fetcher").Logger(),
	}
}

// Concurrency returns the size of the fetch window.
func (f *Fetcher) Concurrency() int {
	return f.concurrency
}

// Fetch starts one task per album and returns their outcomes in completion
// order. Tasks start in input order, at most Concurrency at a time. The
// channel is closed once every task has finished, so callers must drain it.
func (f *Fetcher) Fetch(ctx context.Context, albums []chart.Album) <-chan Outcome {
	out := make(chan Outcome)

	go func() {
		defer close(out)

		var g errgroup.Group
		g.SetLimit(f.concurrency)

		for _, album := range albums {
			// Go blocks while the window is full.
			g.Go(func() error {
				result, err := f.fetchAlbum(ctx, album)
				out <- Outcome{Album: album, Result: result, Err: err}
				return nil
			})
		}

		_ = g.Wait()
	}()

	return out
}

// fetchAlbum looks up the album and downloads its unsized cover, if any.
func (f *Fetcher) fetchAlbum(ctx context.Context, album chart.Album) (chart.Result, error) {
	if err := ctx.Err(); err != nil {
		return chart.Result{}, err
	}

	info, err := f.api.AlbumInfo(ctx, album.Artist, album.Name)
	if err != nil {
		return chart.Result{}, fmt.Errorf("album info: %w", err)
	}

	result := chart.Result{TrackCount: info.TrackCount}

	url := info.CoverURL()
	if url == "" {
		f.logger.Debug().
			Str("artist", album.Artist).
			Str("album", album.Name).
			Msg("No cover art available")
		return result, nil
	}

	data, err := f.api.Image(ctx, url)
	if err != nil {
		return chart.Result{}, fmt.Errorf("cover art: %w", err)
	}
	result.Image = data

	return result, nil
}

// Collect drains outcomes into store until the channel is closed. Failed
// albums are logged and left out of the store. onOutcome, if non-nil, is
// called for every outcome after it has been recorded.
//
// Collect returns only after every fetch task has finished.
func (f *Fetcher) Collect(outcomes <-chan Outcome, store *chart.Store, onOutcome func(Outcome)) Stats {
	var stats Stats

	for o := range outcomes {
		if o.Err != nil {
			stats.Failed++
			f.logger.Error().
				Err(o.Err).
				Str("artist", o.Album.Artist).
				Str("album", o.Album.Name).
				Msg("Failed to fetch album")
		} else {
			stats.Fetched++
			store.Insert(o.Album.Name, o.Result)
			f.logger.Debug().
				Str("artist", o.Album.Artist).
				Str("album", o.Album.Name).
				Uint("tracks", o.Result.TrackCount).
				Int("image_bytes", len(o.Result.Image)).
				Msg("Fetched album")
		}

		if onOutcome != nil {
			onOutcome(o)
		}
	}

	return stats
}

// FetchInto fetches every album and records the results in store.
func (f *Fetcher) FetchInto(ctx context.Context, albums []chart.Album, store *chart.Store, onOutcome func(Outcome)) Stats {
	return f.Collect(f.Fetch(ctx, albums), store, onOutcome)
}
