// Package render draws chart collages: cover art in a grid and a ranked
// legend beside it.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration

	"github.com/jfmyers9/scrobblegrid/internal/chart"
	"github.com/jfmyers9/scrobblegrid/internal/layout"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// DefaultPlaceholderSize is the edge length of the blank stand-in cover.
const DefaultPlaceholderSize = 300

// errNoImage marks an album without artwork bytes.
var errNoImage = errors.New("no image data")

// Options configures a Compositor.
type Options struct {
	Background      color.Color // Canvas fill (default black)
	Foreground      color.Color // Legend text (default white)
	FontData        []byte      // TrueType/OpenType font (default Go Regular)
	PlaceholderSize int         // Blank cover edge length (default DefaultPlaceholderSize)

	// FallbackFontData supplies glyphs FontData lacks. It may be a single
	// font or a collection. By default the Noto Sans CJK faces bundled with
	// the binary are used.
	FallbackFontData []byte
	// NoFallback draws legends with FontData alone.
	NoFallback bool
}

// Results is the read side of a chart.Store.
type Results interface {
	Get(name string) (chart.Result, bool)
}

// Compositor renders collages. It is safe for sequential reuse.
type Compositor struct {
	background  color.Color
	foreground  color.Color
	font        *opentype.Font
	fallback    func() ([]*opentype.Font, error)
	placeholder image.Image
	logger      zerolog.Logger
}

// NewCompositor parses the font and prepares the placeholder cover.
func NewCompositor(opts Options, logger zerolog.Logger) (*Compositor, error) {
	background := opts.Background
	if background == nil {
		background = color.Black
	}
	foreground := opts.Foreground
	if foreground == nil {
		foreground = color.White
	}
	fontData := opts.FontData
	if len(fontData) == 0 {
		fontData = goregular.TTF
	}
	size := opts.PlaceholderSize
	if size <= 0 {
		size = DefaultPlaceholderSize
	}

	f, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	var fallback func() ([]*opentype.Font, error)
	switch {
	case opts.NoFallback:
	case len(opts.FallbackFontData) > 0:
		fonts, err := parseFonts(opts.FallbackFontData, nil)
		if err != nil {
			return nil, err
		}
		fallback = func() ([]*opentype.Font, error) { return fonts, nil }
	default:
		fallback = bundledFallback
	}

	return &Compositor{
		background:  background,
		foreground:  foreground,
		font:        f,
		fallback:    fallback,
		placeholder: image.NewRGBA(image.Rect(0, 0, size, size)),
		logger:      logger.With().Str("component", "render").Logger(),
	}, nil
}

// Compose draws albums, in rank order, onto a new canvas sized by geom.
//
// The first geom.Placed() albums get their cover scaled into a grid cell.
// Albums with no recorded result, no artwork or undecodable artwork get the
// blank placeholder instead. Every album gets a legend row.
func (c *Compositor) Compose(albums []chart.Album, results Results, geom layout.Geometry) (*image.RGBA, error) {
	if len(albums) != geom.Count {
		return nil, fmt.Errorf("render: geometry planned for %d albums, got %d", geom.Count, len(albums))
	}

	canvas := image.NewRGBA(geom.Bounds())
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)

	lines := Legend(albums)
	face, err := c.legendFace(float64(geom.RowHeight), lines)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	for i, album := range albums {
		if cell, ok := geom.Cell(i); ok {
			result, _ := results.Get(album.Name)
			cover, err := decodeCover(result.Image)
			if err != nil {
				if !errors.Is(err, errNoImage) {
					c.logger.Warn().
						Err(err).
						Str("album", album.Name).
						Msg("Undecodable cover art, using placeholder")
				}
				cover = c.placeholder
			}
			draw.BiLinear.Scale(canvas, cell, cover, cover.Bounds(), draw.Src, nil)
		}

		c.drawText(canvas, face, lines[i], geom.TextX, geom.TextTop(i))
	}

	return canvas, nil
}

// legendFace returns a face of the given size for lines. Fallback faces are
// chained behind the primary font only when lines need a glyph it lacks.
func (c *Compositor) legendFace(size float64, lines []string) (font.Face, error) {
	opts := &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}

	primary, err := opentype.NewFace(c.font, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	if c.fallback == nil || !missingGlyphs(primary, lines) {
		return primary, nil
	}

	fonts, err := c.fallback()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Fallback font unavailable, some legend glyphs will be missing")
		return primary, nil
	}

	faces := []font.Face{primary}
	for _, f := range fonts {
		face, err := opentype.NewFace(f, opts)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Skipping fallback font")
			continue
		}
		faces = append(faces, face)
	}
	c.logger.Debug().Int("fallback_faces", len(faces)-1).Msg("Using fallback fonts for legend")
	return &fallbackFace{faces: faces}, nil
}

// drawText renders s with its top edge at y.
func (c *Compositor) drawText(dst draw.Image, face font.Face, s string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c.foreground),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func decodeCover(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errNoImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// LegendLine formats the legend entry of an album at a 1-based rank.
func LegendLine(rank int, album chart.Album) string {
	return fmt.Sprintf("%d. %s - %s", rank, album.Artist, album.Name)
}

// Legend returns the legend lines of albums in rank order.
func Legend(albums []chart.Album) []string {
	lines := make([]string, len(albums))
	for i, a := range albums {
		lines[i] = LegendLine(i+1, a)
	}
	return lines
}
