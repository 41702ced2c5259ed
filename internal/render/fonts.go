package render

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"unicode"

	"github.com/gonoto/notosans"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// The bundled Noto Sans collection is tens of megabytes once decompressed,
// so it is only parsed the first time a legend needs a glyph the primary
// font lacks.
var (
	notoOnce  sync.Once
	notoFonts []*opentype.Font
	notoErr   error
)

// bundledFallback returns the CJK faces of the embedded Noto Sans collection.
func bundledFallback() ([]*opentype.Font, error) {
	notoOnce.Do(func() {
		notoFonts, notoErr = parseFonts(notosans.OTC(), isCJKFont)
	})
	return notoFonts, notoErr
}

func isCJKFont(name string) bool {
	return strings.Contains(name, "CJK")
}

// parseFonts parses a single font or a font collection. When keep is set
// only the fonts whose full name it accepts are returned. Fonts the parser
// rejects are skipped as long as one usable font remains.
func parseFonts(data []byte, keep func(name string) bool) ([]*opentype.Font, error) {
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback font: %w", err)
	}

	var (
		fonts   []*opentype.Font
		buf     sfnt.Buffer
		lastErr error
	)
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			lastErr = fmt.Errorf("failed to parse fallback font %d: %w", i, err)
			continue
		}
		if keep != nil {
			name, err := f.Name(&buf, sfnt.NameIDFull)
			if err != nil || !keep(name) {
				continue
			}
		}
		fonts = append(fonts, f)
	}

	if len(fonts) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, errors.New("fallback font has no usable faces")
	}
	return fonts, nil
}

// missingGlyphs reports whether face lacks a glyph for any printable rune
// of lines.
func missingGlyphs(face font.Face, lines []string) bool {
	for _, line := range lines {
		for _, r := range line {
			if unicode.IsSpace(r) || !unicode.IsPrint(r) {
				continue
			}
			if _, ok := face.GlyphAdvance(r); !ok {
				return true
			}
		}
	}
	return false
}

// fallbackFace draws each rune with the first face that has a glyph for it.
// Runes no face covers use the first face's .notdef glyph. Metrics always
// come from the first face so every legend row keeps the same baseline.
type fallbackFace struct {
	faces []font.Face
}

func (f *fallbackFace) pick(r rune) font.Face {
	for _, face := range f.faces {
		if _, ok := face.GlyphAdvance(r); ok {
			return face
		}
	}
	return f.faces[0]
}

func (f *fallbackFace) Close() error {
	var errs []error
	for _, face := range f.faces {
		if err := face.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fallbackFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	return f.pick(r).Glyph(dot, r)
}

func (f *fallbackFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	return f.pick(r).GlyphBounds(r)
}

func (f *fallbackFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	return f.pick(r).GlyphAdvance(r)
}

// Kern only applies between runes drawn from the same face.
func (f *fallbackFace) Kern(r0, r1 rune) fixed.Int26_6 {
	face := f.pick(r0)
	if face != f.pick(r1) {
		return 0
	}
	return face.Kern(r0, r1)
}

func (f *fallbackFace) Metrics() font.Metrics {
	return f.faces[0].Metrics()
}
