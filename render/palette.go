package render

import (
	"image/color"
	"strconv"
)

// Palette maps the color index carried by a line to a display color
type Palette []color.RGBA

// DefaultPalette matches the toolbar buttons of the display firmware
var DefaultPalette = Palette{
	{R: 0x00, G: 0x00, B: 0x00, A: 0xff}, // black
	{R: 0xff, G: 0x00, B: 0x00, A: 0xff}, // red
	{R: 0x00, G: 0xff, B: 0x00, A: 0xff}, // green
	{R: 0x00, G: 0x00, B: 0xff, A: 0xff}, // blue
	{R: 0xff, G: 0xff, B: 0x00, A: 0xff}, // yellow
	{R: 0x00, G: 0xff, B: 0xff, A: 0xff}, // cyan
	{R: 0xff, G: 0x00, B: 0xff, A: 0xff}, // magenta
	{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}, // orange
}

// ColorError reports a color index outside the palette
type ColorError struct {
	Index uint8
	Size  int
}

func (e *ColorError) Error() string {
	return "color index " + strconv.Itoa(int(e.Index)) + " outside palette of " + strconv.Itoa(e.Size)
}

// Color returns the palette entry for index
func (p Palette) Color(index uint8) (color.RGBA, error) {
	if int(index) >= len(p) {
		return color.RGBA{}, &ColorError{Index: index, Size: len(p)}
	}
	return p[index], nil
}
