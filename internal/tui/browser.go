// Package tui provides a terminal browser for past collage runs.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jfmyers9/scrobblegrid/internal/history"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

const nameColumnWidth = 32

// Browser shows recorded runs on the left and the albums of the selected
// run on the right.
type Browser struct {
	app    *tview.Application
	runs   *tview.List
	albums *tview.TextView
	status *tview.TextView

	history []history.Run
	now     func() time.Time

	// Last-rendered content for change detection
	lastAlbums string
}

// NewBrowser creates a browser over runs, newest first.
func NewBrowser(runs []history.Run) *Browser {
	b := &Browser{
		app:     tview.NewApplication(),
		history: runs,
		now:     time.Now,
	}
	b.setupUI()
	return b
}

// setupUI creates the UI layout
func (b *Browser) setupUI() {
	b.runs = tview.NewList().
		ShowSecondaryText(true).
		SetHighlightFullLine(true)
	b.runs.SetBorder(true).
		SetTitle(" Runs ").
		SetTitleAlign(tview.AlignLeft)

	b.albums = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	b.albums.SetBorder(true).
		SetTitle(" Albums ").
		SetTitleAlign(tview.AlignLeft)

	b.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]q:quit  j/k:move  enter:select[-]")

	if len(b.history) == 0 {
		b.runs.AddItem("No runs recorded", "", 0, nil)
		b.albums.SetText("[gray]Generate a collage to start the history[-]")
	}
	for _, run := range b.history {
		b.runs.AddItem(runTitle(run), runSubtitle(run, b.now()), 0, nil)
	}
	b.runs.SetChangedFunc(func(index int, _, _ string, _ rune) {
		b.showRun(index)
	})
	b.showRun(0)

	body := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(b.runs, 0, 1, true).
		AddItem(b.albums, 0, 2, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(b.status, 1, 1, false)

	b.app.SetInputCapture(b.handleKeyEvent)
	b.app.SetRoot(flex, true)
}

// handleKeyEvent processes keyboard input
func (b *Browser) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	switch event.Rune() {
	case 'q', 'Q':
		b.app.Stop()
		return nil
	case 'j':
		return tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)
	case 'k':
		return tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)
	}
	return event
}

// showRun renders the albums of the run at index.
func (b *Browser) showRun(index int) {
	if index < 0 || index >= len(b.history) {
		return
	}
	text := formatAlbums(b.history[index])
	if text != b.lastAlbums {
		b.lastAlbums = text
		b.albums.SetText(text).ScrollToBeginning()
	}
}

// Run blocks until the user quits.
func (b *Browser) Run() error {
	if err := b.app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func runTitle(run history.Run) string {
	return fmt.Sprintf("%s  %s", run.CreatedAt.Format("2006-01-02 15:04"), run.Username)
}

func runSubtitle(run history.Run, now time.Time) string {
	return fmt.Sprintf("%d albums, %d failed, %s ago", len(run.Albums), run.Failed, formatAge(now.Sub(run.CreatedAt)))
}

// formatAlbums renders one line per album: cover indicator, rank, name,
// artist, plays and tracks.
func formatAlbums(run history.Run) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[white::b]%s[-:-:-]  [gray]%dx%d[-]\n\n", tview.Escape(run.Output), run.Width, run.Height))

	if len(run.Albums) == 0 {
		sb.WriteString("[gray]No albums[-]")
		return sb.String()
	}

	for i, a := range run.Albums {
		if i > 0 {
			sb.WriteString("\n")
		}

		// Cover indicator
		if a.HasImage {
			sb.WriteString("[green]✓[-] ")
		} else {
			sb.WriteString("[red]✗[-] ")
		}

		name := runewidth.FillRight(runewidth.Truncate(a.Name, nameColumnWidth, "..."), nameColumnWidth)
		sb.WriteString(fmt.Sprintf("%3d. [white]%s[-] [yellow]%s[-] [gray]%d plays, %d tracks[-]",
			a.Rank, tview.Escape(name), tview.Escape(a.Artist), a.PlayCount, a.TrackCount))
	}

	return sb.String()
}

// formatAge formats a duration coarsely: minutes, hours or days.
func formatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}
