package render

import "image/color"

// Framebuffer is an in-memory display. The simulator renders into it and
// tests inspect its pixels.
type Framebuffer struct {
	width, height int16
	pixels        []color.RGBA
	frames        int
}

// NewFramebuffer allocates a width x height buffer cleared to zero
func NewFramebuffer(width, height int16) *Framebuffer {
	return &Framebuffer{
		width:  width,
		height: height,
		pixels: make([]color.RGBA, int(width)*int(height)),
	}
}

func (f *Framebuffer) Size() (x, y int16) {
	return f.width, f.height
}

func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return
	}
	f.pixels[int(y)*int(f.width)+int(x)] = c
}

// Display counts presented frames
func (f *Framebuffer) Display() error {
	f.frames++
	return nil
}

func (f *Framebuffer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	x0, y0 := clamp(x, f.width), clamp(y, f.height)
	x1, y1 := clamp(x+width, f.width), clamp(y+height, f.height)
	for py := y0; py < y1; py++ {
		row := int(py) * int(f.width)
		for px := x0; px < x1; px++ {
			f.pixels[row+int(px)] = c
		}
	}
	return nil
}

// At returns the pixel at x, y; out of range reads as zero
func (f *Framebuffer) At(x, y int16) color.RGBA {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return color.RGBA{}
	}
	return f.pixels[int(y)*int(f.width)+int(x)]
}

// Count returns how many pixels hold c
func (f *Framebuffer) Count(c color.RGBA) int {
	n := 0
	for _, p := range f.pixels {
		if p == c {
			n++
		}
	}
	return n
}

// Frames returns how many times Display was called
func (f *Framebuffer) Frames() int {
	return f.frames
}

func clamp(v, limit int16) int16 {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
