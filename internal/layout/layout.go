// Package layout computes the geometry of a chart collage: a square grid of
// covers followed by a ranked legend column.
package layout

import (
	"errors"
	"fmt"
	"image"

	"github.com/mattn/go-runewidth"
)

// Default geometry constants in pixels.
const (
	DefaultCoverSize  = 300
	DefaultMargin     = 50
	DefaultWordMargin = 2
)

var (
	// ErrNoAlbums is returned when there is nothing to lay out.
	ErrNoAlbums = errors.New("layout: no albums to lay out")

	// ErrRowTooSmall is returned when the legend has more rows than the
	// grid height can hold at one pixel per row.
	ErrRowTooSmall = errors.New("layout: legend rows would be less than one pixel tall")
)

// Options are the fixed inputs of a layout.
type Options struct {
	CoverSize  int // Edge length of one cover
	Margin     int // Border around the grid and the legend
	WordMargin int // Vertical gap between legend rows
}

// DefaultOptions returns the standard collage geometry.
func DefaultOptions() Options {
	return Options{
		CoverSize:  DefaultCoverSize,
		Margin:     DefaultMargin,
		WordMargin: DefaultWordMargin,
	}
}

// Geometry is the computed layout of a collage.
type Geometry struct {
	Count      int // Albums in the chart
	Side       int // Grid rows (and columns)
	CoverSize  int
	Margin     int
	WordMargin int
	Width      int // Canvas width
	Height     int // Canvas height
	RowHeight  int // Legend row height, also the glyph size
	TextX      int // Left edge of the legend
	TextWidth  int // Width reserved for the legend
}

// Plan lays out count albums whose longest name is maxNameWidth columns wide.
//
// The grid side is the largest S with S*S <= count. Albums ranked after the
// first S*S get a legend row but no cell.
func Plan(count, maxNameWidth int, opts Options) (Geometry, error) {
	if count <= 0 {
		return Geometry{}, ErrNoAlbums
	}
	if opts.CoverSize <= 0 || opts.Margin < 0 || opts.WordMargin < 0 {
		return Geometry{}, fmt.Errorf("layout: invalid options %+v", opts)
	}
	if maxNameWidth < 0 {
		return Geometry{}, fmt.Errorf("layout: negative name width %d", maxNameWidth)
	}

	side := isqrt(count)
	gridLength := opts.CoverSize * side

	rowSpace := gridLength - opts.WordMargin*(count-1)
	if rowSpace < count {
		return Geometry{}, fmt.Errorf("%w: %d rows in %dpx", ErrRowTooSmall, count, gridLength)
	}
	rowHeight := rowSpace / count

	height := 2*opts.Margin + gridLength
	textWidth := rowHeight * maxNameWidth

	return Geometry{
		Count:      count,
		Side:       side,
		CoverSize:  opts.CoverSize,
		Margin:     opts.Margin,
		WordMargin: opts.WordMargin,
		Width:      height + opts.Margin + textWidth,
		Height:     height,
		RowHeight:  rowHeight,
		TextX:      2*opts.Margin + gridLength,
		TextWidth:  textWidth,
	}, nil
}

// Bounds returns the canvas rectangle.
func (g Geometry) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Placed returns how many albums get a grid cell.
func (g Geometry) Placed() int {
	return g.Side * g.Side
}

// Overflow returns how many albums are listed in the legend only.
func (g Geometry) Overflow() int {
	return g.Count - g.Placed()
}

// Cell returns the rectangle of the i-th (0-based) album's cover, and false
// if that album has no cell.
func (g Geometry) Cell(i int) (image.Rectangle, bool) {
	if i < 0 || i >= g.Placed() {
		return image.Rectangle{}, false
	}
	x := g.Margin + g.CoverSize*(i%g.Side)
	y := g.Margin + g.CoverSize*(i/g.Side)
	return image.Rect(x, y, x+g.CoverSize, y+g.CoverSize), true
}

// TextTop returns the top edge of the i-th legend row.
func (g Geometry) TextTop(i int) int {
	return g.Margin + i*(g.RowHeight+g.WordMargin)
}

// MaxNameWidth returns the widest display width among names. East Asian
// wide characters count as two columns.
func MaxNameWidth(names []string) int {
	widest := 0
	for _, name := range names {
		if w := runewidth.StringWidth(name); w > widest {
			widest = w
		}
	}
	return widest
}

// isqrt returns floor(sqrt(n)) for n >= 0.
func isqrt(n int) int {
	s := 0
	for (s+1)*(s+1) <= n {
		s++
	}
	return s
}
