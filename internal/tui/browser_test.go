package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jfmyers9/scrobblegrid/internal/history"
)

func testRun() history.Run {
	return history.Run{
		ID:        1,
		Username:  "usefulalgorithm",
		Output:    "output.png",
		Width:     2810,
		Height:    1000,
		Failed:    1,
		CreatedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Albums: []history.Album{
			{Rank: 1, Artist: "Burial", Name: "Untrue", PlayCount: 31, TrackCount: 13, HasImage: true},
			{Rank: 2, Artist: "宇多田ヒカル", Name: "BADモード", PlayCount: 7},
		},
	}
}

func TestFormatAlbums(t *testing.T) {
	text := formatAlbums(testRun())

	lines := strings.Split(text, "\n")
	// header, blank line, two albums
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), text)
	}
	if !strings.Contains(lines[0], "output.png") || !strings.Contains(lines[0], "2810x1000") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[2], "✓") || !strings.Contains(lines[2], "  1. ") || !strings.Contains(lines[2], "31 plays, 13 tracks") {
		t.Errorf("unexpected first album line: %q", lines[2])
	}
	if !strings.Contains(lines[3], "✗") || !strings.Contains(lines[3], "BADモード") {
		t.Errorf("unexpected second album line: %q", lines[3])
	}
}

func TestFormatAlbums_Empty(t *testing.T) {
	run := testRun()
	run.Albums = nil

	if text := formatAlbums(run); !strings.Contains(text, "No albums") {
		t.Errorf("expected empty marker, got %q", text)
	}
}

func TestFormatAlbums_TruncatesLongNames(t *testing.T) {
	run := testRun()
	run.Albums = []history.Album{{Rank: 1, Artist: "A", Name: strings.Repeat("x", 80)}}

	text := formatAlbums(run)
	if strings.Contains(text, strings.Repeat("x", nameColumnWidth+1)) {
		t.Errorf("expected name to be truncated to %d columns: %q", nameColumnWidth, text)
	}
	if !strings.Contains(text, "...") {
		t.Errorf("expected ellipsis in %q", text)
	}
}

func TestRunLabels(t *testing.T) {
	run := testRun()

	if got := runTitle(run); got != "2026-03-01 12:30  usefulalgorithm" {
		t.Errorf("unexpected title %q", got)
	}

	now := run.CreatedAt.Add(3 * time.Hour)
	if got := runSubtitle(run, now); got != "2 albums, 1 failed, 3h ago" {
		t.Errorf("unexpected subtitle %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{-time.Minute, "0m"},
		{90 * time.Second, "1m"},
		{5 * time.Hour, "5h"},
		{47 * time.Hour, "47h"},
		{72 * time.Hour, "3d"},
	}

	for _, tt := range tests {
		if got := formatAge(tt.age); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestBrowserKeys(t *testing.T) {
	b := NewBrowser([]history.Run{testRun()})

	if ev := b.handleKeyEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)); ev != nil {
		t.Error("expected q to be consumed")
	}
	if ev := b.handleKeyEvent(tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone)); ev == nil || ev.Key() != tcell.KeyDown {
		t.Errorf("expected j to map to down, got %v", ev)
	}
	if ev := b.handleKeyEvent(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)); ev == nil || ev.Rune() != 'x' {
		t.Error("expected other keys to pass through")
	}
}

func TestNewBrowser_ShowsFirstRun(t *testing.T) {
	b := NewBrowser([]history.Run{testRun()})

	if !strings.Contains(b.lastAlbums, "Untrue") {
		t.Errorf("expected first run to be rendered, got %q", b.lastAlbums)
	}
	if b.runs.GetItemCount() != 1 {
		t.Errorf("expected 1 run item, got %d", b.runs.GetItemCount())
	}
}

func TestNewBrowser_Empty(t *testing.T) {
	b := NewBrowser(nil)

	if b.runs.GetItemCount() != 1 {
		t.Errorf("expected placeholder item, got %d", b.runs.GetItemCount())
	}
	if b.lastAlbums != "" {
		t.Errorf("expected no album text, got %q", b.lastAlbums)
	}
}
