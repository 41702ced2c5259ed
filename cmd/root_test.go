package cmd

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jfmyers9/scrobblegrid/internal/config"
	"github.com/jfmyers9/scrobblegrid/internal/fetcher"
	"github.com/jfmyers9/scrobblegrid/internal/history"
	"github.com/mattn/go-runewidth"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		want    time.Duration
		wantErr bool
	}{
		{name: "latest week", want: 0},
		{name: "one week", from: "2024-01-01", to: "2024-01-08", want: 7 * 24 * time.Hour},
		{name: "missing to", from: "2024-01-01", wantErr: true},
		{name: "missing from", to: "2024-01-08", wantErr: true},
		{name: "bad date", from: "01/01/2024", to: "2024-01-08", wantErr: true},
		{name: "reversed", from: "2024-01-08", to: "2024-01-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := parseRange(tt.from, tt.to)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := r.To.Sub(r.From); got != tt.want {
				t.Errorf("expected span %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRootArgs(t *testing.T) {
	if err := rootCmd.Args(rootCmd, []string{"a", "b"}); err == nil {
		t.Error("expected error for two usernames")
	}
	if err := rootCmd.Args(rootCmd, []string{"rj"}); err != nil {
		t.Errorf("unexpected error for one username: %v", err)
	}
	if err := rootCmd.Args(rootCmd, nil); err != nil {
		t.Errorf("unexpected error for no username: %v", err)
	}
}

func TestFormatRunRow(t *testing.T) {
	run := history.Run{
		Username:  "usefulalgorithm",
		Output:    "output.png",
		Failed:    1,
		CreatedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.Local),
		Albums: []history.Album{
			{Rank: 1, Artist: "宇多田ヒカル", Name: "BADモード"},
			{Rank: 2, Artist: "Burial", Name: "Untrue"},
		},
	}

	row := formatRunRow(run)

	if !strings.HasPrefix(row, "2026-03-01 12:30  usefulalgorithm") {
		t.Errorf("unexpected row start: %q", row)
	}
	if !strings.Contains(row, "1/2") {
		t.Errorf("expected fetched/total albums in %q", row)
	}
	if !strings.HasSuffix(row, "  output.png") {
		t.Errorf("expected output path at the end of %q", row)
	}

	// Output column starts at the same display column as the header's.
	header := padToWidth("WHEN", colWhen) + "  " + padToWidth("USER", colUser) + "  " +
		padToWidth("ALBUMS", colAlbums) + "  " + padToWidth("TOP ALBUM", colTop) + "  "
	prefix := strings.TrimSuffix(row, "output.png")
	if runewidth.StringWidth(prefix) != runewidth.StringWidth(header) {
		t.Errorf("misaligned row: %d columns before output, header has %d",
			runewidth.StringWidth(prefix), runewidth.StringWidth(header))
	}
}

func TestPrintRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil, 0)

	if !strings.Contains(buf.String(), "No runs recorded") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	runs := []history.Run{
		{Username: "a", Output: "a.png", CreatedAt: time.Now()},
		{Username: "b", Output: "b.png", CreatedAt: time.Now()},
	}
	printRuns(&buf, runs, 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "WHEN") {
		t.Errorf("expected header first, got %q", lines[0])
	}
}

func TestPrintRuns_Truncated(t *testing.T) {
	var buf bytes.Buffer
	runs := []history.Run{
		{Username: "a", Output: "a.png", CreatedAt: time.Now()},
		{Username: "b", Output: "b.png", CreatedAt: time.Now()},
	}
	printRuns(&buf, runs, 7)

	if !strings.Contains(buf.String(), "Showing 2 of 7 runs") {
		t.Errorf("expected run total in output, got:\n%s", buf.String())
	}
}

func TestAPIKeyHint(t *testing.T) {
	err := apiKeyHint(config.ErrMissingAPIKey)
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("expected wrapped ErrMissingAPIKey, got %v", err)
	}
	if !strings.Contains(err.Error(), config.GetConfigDir()) {
		t.Errorf("expected config dir in %q", err.Error())
	}

	other := errors.New("boom")
	if got := apiKeyHint(other); got != other {
		t.Errorf("expected unrelated error unchanged, got %v", got)
	}
}

func TestFetchProgress(t *testing.T) {
	p := newFetchProgress(io.Discard)

	// Steps before Start are ignored.
	p.Step(fetcher.Outcome{})

	p.Start(3)
	p.Step(fetcher.Outcome{})
	p.Step(fetcher.Outcome{Err: errors.New("boom")})
	p.Step(fetcher.Outcome{})
	p.Finish()

	if got := p.bar.State().CurrentNum; got != 3 {
		t.Errorf("expected 3 steps, got %d", got)
	}
}
