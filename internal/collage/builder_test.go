package collage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jfmyers9/scrobblegrid/internal/chart"
	"github.com/jfmyers9/scrobblegrid/internal/fetcher"
	"github.com/jfmyers9/scrobblegrid/internal/history"
	"github.com/jfmyers9/scrobblegrid/internal/layout"
	"github.com/jfmyers9/scrobblegrid/internal/render"
	"github.com/rs/zerolog"
)

type stubSource struct {
	albums []chart.Album
	err    error
	user   string
}

func (s *stubSource) WeeklyAlbums(ctx context.Context, user string, r chart.Range) ([]chart.Album, error) {
	s.user = user
	return s.albums, s.err
}

// stubAPI serves a tiny PNG cover for every album except those in fail.
type stubAPI struct {
	cover []byte
	fail  map[string]bool
}

func (a *stubAPI) AlbumInfo(ctx context.Context, artist, album string) (*chart.AlbumInfo, error) {
	if a.fail[album] {
		return nil, errors.New("album not found")
	}
	return &chart.AlbumInfo{
		TrackCount: 10,
		Images:     []chart.Image{{URL: "https://img.example/" + album}},
	}, nil
}

func (a *stubAPI) Image(ctx context.Context, url string) ([]byte, error) {
	return a.cover, nil
}

type memRecorder struct {
	runs []history.Run
	err  error
}

func (r *memRecorder) Record(ctx context.Context, run history.Run) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.runs = append(r.runs, run)
	return int64(len(r.runs)), nil
}

type countingProgress struct {
	mu       sync.Mutex
	total    int
	steps    int
	finished bool
}

func (p *countingProgress) Start(total int) { p.total = total }

func (p *countingProgress) Step(o fetcher.Outcome) {
	p.mu.Lock()
	p.steps++
	p.mu.Unlock()
}

func (p *countingProgress) Finish() { p.finished = true }

func testAlbums(n int) []chart.Album {
	albums := make([]chart.Album, n)
	for i := range albums {
		albums[i] = chart.Album{
			Artist:    fmt.Sprintf("Artist %d", i+1),
			Name:      fmt.Sprintf("Album %d", i+1),
			PlayCount: uint(100 - i),
		}
	}
	return albums
}

func testCover(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{G: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode cover: %v", err)
	}
	return buf.Bytes()
}

var testLayout = layout.Options{CoverSize: 40, Margin: 10, WordMargin: 2}

func newTestBuilder(t *testing.T, cfg Config, source chart.Source, api fetcher.API) *Builder {
	t.Helper()

	compositor, err := render.NewCompositor(render.Options{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create compositor: %v", err)
	}
	if cfg.Layout == (layout.Options{}) {
		cfg.Layout = testLayout
	}

	f := fetcher.New(api, fetcher.Options{Concurrency: 4}, zerolog.Nop())
	return New(cfg, source, f, compositor, zerolog.Nop())
}

func TestBuild(t *testing.T) {
	source := &stubSource{albums: testAlbums(10)}
	api := &stubAPI{cover: testCover(t), fail: map[string]bool{"Album 4": true}}
	recorder := &memRecorder{}
	progress := &countingProgress{}

	b := newTestBuilder(t, Config{Recorder: recorder, Progress: progress}, source, api)

	output := filepath.Join(t.TempDir(), "out", "chart.png")
	report, err := b.Build(context.Background(), Request{Username: "usefulalgorithm", Output: output})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if source.user != "usefulalgorithm" {
		t.Errorf("expected chart of usefulalgorithm, got %q", source.user)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if cfg.Width != report.Geometry.Width || cfg.Height != report.Geometry.Height {
		t.Errorf("expected %dx%d, got %dx%d", report.Geometry.Width, report.Geometry.Height, cfg.Width, cfg.Height)
	}

	if report.Geometry.Side != 3 || report.Geometry.Overflow() != 1 {
		t.Errorf("expected a 3x3 grid with one legend-only album, got %+v", report.Geometry)
	}
	if report.Stats.Fetched != 9 || report.Stats.Failed != 1 {
		t.Errorf("expected 9 fetched and 1 failed, got %+v", report.Stats)
	}
	if len(report.Legend) != 10 || report.Legend[0] != "1. Artist 1 - Album 1" {
		t.Errorf("unexpected legend: %v", report.Legend)
	}
	if len(report.Duplicates) != 0 {
		t.Errorf("expected no duplicates, got %v", report.Duplicates)
	}

	if progress.total != 10 || progress.steps != 10 || !progress.finished {
		t.Errorf("unexpected progress: total=%d steps=%d finished=%v", progress.total, progress.steps, progress.finished)
	}

	if report.RunID != 1 || len(recorder.runs) != 1 {
		t.Fatalf("expected one recorded run, got id=%d runs=%d", report.RunID, len(recorder.runs))
	}
	run := recorder.runs[0]
	if run.Username != "usefulalgorithm" || run.Output != output || len(run.Albums) != 10 {
		t.Errorf("unexpected run: %+v", run)
	}
	if a := run.Albums[0]; a.Rank != 1 || a.TrackCount != 10 || !a.HasImage || a.PlayCount != 100 {
		t.Errorf("unexpected first recorded album: %+v", a)
	}
	if a := run.Albums[3]; a.HasImage || a.TrackCount != 0 {
		t.Errorf("expected failed album to be recorded without data, got %+v", a)
	}
}

func TestBuild_ChartError(t *testing.T) {
	source := &stubSource{err: errors.New("user not found")}
	b := newTestBuilder(t, Config{}, source, &stubAPI{})

	output := filepath.Join(t.TempDir(), "out.png")
	_, err := b.Build(context.Background(), Request{Username: "nobody", Output: output})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "user not found") {
		t.Errorf("expected wrapped source error, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("expected no output file, stat err = %v", statErr)
	}
}

func TestBuild_EmptyChart(t *testing.T) {
	b := newTestBuilder(t, Config{}, &stubSource{}, &stubAPI{})

	_, err := b.Build(context.Background(), Request{Username: "quiet", Output: filepath.Join(t.TempDir(), "out.png")})
	if !errors.Is(err, ErrEmptyChart) {
		t.Fatalf("expected ErrEmptyChart, got %v", err)
	}
}

func TestBuild_RequiresUsername(t *testing.T) {
	b := newTestBuilder(t, Config{}, &stubSource{albums: testAlbums(1)}, &stubAPI{})

	if _, err := b.Build(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty username")
	}
}

func TestBuild_Duplicates(t *testing.T) {
	albums := testAlbums(4)
	albums[3].Name = albums[0].Name

	b := newTestBuilder(t, Config{}, &stubSource{albums: albums}, &stubAPI{cover: testCover(t)})

	report, err := b.Build(context.Background(), Request{Username: "u", Output: filepath.Join(t.TempDir(), "out.png")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Duplicates) != 1 || report.Duplicates[0] != "Album 1" {
		t.Errorf("expected duplicate Album 1, got %v", report.Duplicates)
	}
}

func TestBuild_RecorderFailureIsNotFatal(t *testing.T) {
	recorder := &memRecorder{err: errors.New("disk full")}
	b := newTestBuilder(t, Config{Recorder: recorder}, &stubSource{albums: testAlbums(4)}, &stubAPI{cover: testCover(t)})

	report, err := b.Build(context.Background(), Request{Username: "u", Output: filepath.Join(t.TempDir(), "out.png")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RunID != 0 {
		t.Errorf("expected no run id, got %d", report.RunID)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output := filepath.Join(t.TempDir(), "out.png")
	b := newTestBuilder(t, Config{}, &stubSource{albums: testAlbums(4)}, &stubAPI{cover: testCover(t)})

	if _, err := b.Build(ctx, Request{Username: "u", Output: output}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Errorf("expected no output file, stat err = %v", statErr)
	}
}
