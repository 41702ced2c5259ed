// Package collage runs the chart pipeline end to end: chart lookup, album
// fetching, layout, composition and output.
package collage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jfmyers9/scrobblegrid/internal/chart"
	"github.com/jfmyers9/scrobblegrid/internal/fetcher"
	"github.com/jfmyers9/scrobblegrid/internal/history"
	"github.com/jfmyers9/scrobblegrid/internal/layout"
	"github.com/jfmyers9/scrobblegrid/internal/render"
	"github.com/rs/zerolog"
)

// ErrEmptyChart is returned when the user's chart has no albums.
var ErrEmptyChart = errors.New("chart has no albums")

// DefaultOutput is the collage path used when a Request leaves it empty.
const DefaultOutput = "output.png"

// Recorder stores finished runs.
type Recorder interface {
	Record(ctx context.Context, run history.Run) (int64, error)
}

// Progress observes album fetching.
type Progress interface {
	Start(total int)
	Step(o fetcher.Outcome)
	Finish()
}

// Config holds the optional parts of a Builder.
type Config struct {
	Layout   layout.Options
	Recorder Recorder // nil disables run history
	Progress Progress // nil disables progress reporting
}

// Request describes one collage.
type Request struct {
	Username string
	Range    chart.Range
	Output   string
}

// Report describes a finished collage.
type Report struct {
	Output     string
	Geometry   layout.Geometry
	Albums     []chart.Album
	Legend     []string
	Stats      fetcher.Stats
	Duplicates []string
	RunID      int64 // zero when history is disabled or recording failed
}

// Builder produces chart collages.
type Builder struct {
	config     Config
	source     chart.Source
	fetcher    *fetcher.Fetcher
	compositor *render.Compositor
	logger     zerolog.Logger
}

// New creates a new Builder.
func New(cfg Config, source chart.Source, f *fetcher.Fetcher, compositor *render.Compositor, logger zerolog.Logger) *Builder {
	if cfg.Layout == (layout.Options{}) {
		cfg.Layout = layout.DefaultOptions()
	}
	return &Builder{
		config:     cfg,
		source:     source,
		fetcher:    f,
		compositor: compositor,
		logger:     logger.With().Str("component", "collage").Logger(),
	}
}

// Build fetches the chart of req.Username, fetches every album, and writes
// the collage to req.Output.
//
// A chart lookup failure aborts the build. Individual album failures do not:
// those albums are drawn with the placeholder cover.
func (b *Builder) Build(ctx context.Context, req Request) (*Report, error) {
	if req.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if req.Output == "" {
		req.Output = DefaultOutput
	}

	logger := b.logger.With().Str("user", req.Username).Logger()

	albums, err := b.source.WeeklyAlbums(ctx, req.Username, req.Range)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart of %s: %w", req.Username, err)
	}
	if len(albums) == 0 {
		return nil, fmt.Errorf("%s: %w", req.Username, ErrEmptyChart)
	}

	logger.Info().Int("albums", len(albums)).Msg("Fetched chart")

	duplicates := chart.DuplicateNames(albums)
	if len(duplicates) > 0 {
		logger.Warn().
			Strs("names", duplicates).
			Msg("Chart has albums sharing a name, their covers will collide")
	}

	store := chart.NewStore()
	stats := b.fetchAlbums(ctx, albums, store)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("album fetch interrupted: %w", err)
	}

	logger.Info().
		Int("fetched", stats.Fetched).
		Int("failed", stats.Failed).
		Msg("Fetched albums")

	names := make([]string, len(albums))
	for i, a := range albums {
		names[i] = a.Name
	}

	geom, err := layout.Plan(len(albums), layout.MaxNameWidth(names), b.config.Layout)
	if err != nil {
		return nil, fmt.Errorf("failed to plan layout: %w", err)
	}
	if geom.Overflow() > 0 {
		logger.Debug().
			Int("placed", geom.Placed()).
			Int("legend_only", geom.Overflow()).
			Msg("Some albums do not fit the grid")
	}

	img, err := b.compositor.Compose(albums, store, geom)
	if err != nil {
		return nil, fmt.Errorf("failed to compose collage: %w", err)
	}

	if err := render.SavePNG(req.Output, img); err != nil {
		return nil, fmt.Errorf("failed to save collage: %w", err)
	}

	logger.Info().
		Str("output", req.Output).
		Int("width", geom.Width).
		Int("height", geom.Height).
		Msg("Wrote collage")

	report := &Report{
		Output:     req.Output,
		Geometry:   geom,
		Albums:     albums,
		Legend:     render.Legend(albums),
		Stats:      stats,
		Duplicates: duplicates,
	}

	if b.config.Recorder != nil {
		id, err := b.config.Recorder.Record(ctx, newRun(req, report, store))
		if err != nil {
			logger.Error().Err(err).Msg("Failed to record run history")
		} else {
			report.RunID = id
		}
	}

	return report, nil
}

func (b *Builder) fetchAlbums(ctx context.Context, albums []chart.Album, store *chart.Store) fetcher.Stats {
	progress := b.config.Progress
	if progress == nil {
		return b.fetcher.FetchInto(ctx, albums, store, nil)
	}

	progress.Start(len(albums))
	defer progress.Finish()
	return b.fetcher.FetchInto(ctx, albums, store, progress.Step)
}

func newRun(req Request, report *Report, store *chart.Store) history.Run {
	run := history.Run{
		Username: req.Username,
		Output:   report.Output,
		Width:    report.Geometry.Width,
		Height:   report.Geometry.Height,
		Fetched:  report.Stats.Fetched,
		Failed:   report.Stats.Failed,
		Albums:   make([]history.Album, 0, len(report.Albums)),
	}
	for i, a := range report.Albums {
		result, _ := store.Get(a.Name)
		run.Albums = append(run.Albums, history.Album{
			Rank:       i + 1,
			Artist:     a.Artist,
			Name:       a.Name,
			PlayCount:  a.PlayCount,
			TrackCount: result.TrackCount,
			HasImage:   result.HasImage(),
		})
	}
	return run
}
