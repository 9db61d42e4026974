package export

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// tinyFont draws nothing; the tests here only need its metrics
type tinyFont struct {
	g blankGlyph
}

type blankGlyph struct {
	r rune
}

func (g *blankGlyph) Draw(drivers.Displayer, int16, int16, color.RGBA) {}

func (g *blankGlyph) Info() tinyfont.GlyphInfo {
	return tinyfont.GlyphInfo{Rune: g.r, Width: 3, Height: 5, XAdvance: 4, YOffset: -4}
}

func (f *tinyFont) GetYAdvance() uint8 { return 6 }

func (f *tinyFont) GetGlyph(r rune) tinyfont.Glypher {
	f.g.r = r
	return &f.g
}
