package cmd

import (
	"io"

	"github.com/jfmyers9/scrobblegrid/internal/fetcher"
	"github.com/schollz/progressbar/v3"
)

// fetchProgress draws a progress bar while albums are fetched. The bar is
// created on Start since the album count is unknown until then.
type fetchProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newFetchProgress(w io.Writer) *fetchProgress {
	return &fetchProgress{w: w}
}

func (p *fetchProgress) Start(total int) {
	p.bar = progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Fetching albums..."),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *fetchProgress) Step(o fetcher.Outcome) {
	if p.bar == nil {
		return
	}
	if o.Err != nil {
		p.bar.Describe("Fetching albums (some failed)...")
	}
	_ = p.bar.Add(1)
}

func (p *fetchProgress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
