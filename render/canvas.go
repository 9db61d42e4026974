// Package render draws link traffic onto a TinyGo display
package render

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"drawlink/protocol"
)

// filler is implemented by displays with an accelerated rectangle fill,
// such as ili9341.Device
type filler interface {
	FillRectangle(x, y, width, height int16, c color.RGBA) error
}

// Config selects the font and colors of a Canvas. Zero colors take the
// defaults below.
type Config struct {
	Font             tinyfont.Fonter
	Palette          Palette
	Background       color.RGBA
	StatusForeground color.RGBA
	StatusBackground color.RGBA
}

var (
	defaultBackground       = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	defaultStatusForeground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	defaultStatusBackground = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
)

func (c *Config) applyDefaults() {
	if c.Palette == nil {
		c.Palette = DefaultPalette
	}
	if c.Background == (color.RGBA{}) {
		c.Background = defaultBackground
	}
	if c.StatusForeground == (color.RGBA{}) {
		c.StatusForeground = defaultStatusForeground
	}
	if c.StatusBackground == (color.RGBA{}) {
		c.StatusBackground = defaultStatusBackground
	}
}

// Canvas implements core.Renderer. The drawing area covers the display
// except for a one text line status bar along the bottom edge.
type Canvas struct {
	display drivers.Displayer
	cfg     Config

	width, height int16
	barTop        int16
	status        string
}

// NewCanvas clears the display and returns a canvas drawing on it.
// cfg.Font is required. The canvas is usable even when the first
// refresh fails; the error is returned alongside it.
func NewCanvas(display drivers.Displayer, cfg Config) (*Canvas, error) {
	cfg.applyDefaults()
	w, h := display.Size()

	barHeight := int16(cfg.Font.GetYAdvance())
	if barHeight > h {
		barHeight = h
	}

	c := &Canvas{
		display: display,
		cfg:     cfg,
		width:   w,
		height:  h,
		barTop:  h - barHeight,
	}
	if err := c.fill(0, 0, w, h, cfg.Background); err != nil {
		return c, err
	}
	return c, c.refreshStatus()
}

// DrawLine draws l in its palette color, clipped to the drawing area
func (c *Canvas) DrawLine(l protocol.Line) error {
	col, err := c.cfg.Palette.Color(l.Color)
	if err != nil {
		return err
	}
	c.line(l.X0, l.Y0, l.X1, l.Y1, col)
	return c.display.Display()
}

// Clear blanks the drawing area; the status bar is kept
func (c *Canvas) Clear() error {
	if err := c.fill(0, 0, c.width, c.barTop, c.cfg.Background); err != nil {
		return err
	}
	return c.display.Display()
}

// ShowStatus replaces the status bar text
func (c *Canvas) ShowStatus(text string) error {
	c.status = text
	return c.refreshStatus()
}

// Status returns the text currently on the status bar
func (c *Canvas) Status() string {
	return c.status
}

func (c *Canvas) refreshStatus() error {
	if err := c.fill(0, c.barTop, c.width, c.height-c.barTop, c.cfg.StatusBackground); err != nil {
		return err
	}
	if c.status != "" {
		// tinyfont positions text by its baseline
		baseline := c.height - 1
		tinyfont.WriteLine(c.display, c.cfg.Font, 0, baseline, c.status, c.cfg.StatusForeground)
	}
	return c.display.Display()
}

// line is Bresenham's algorithm over the full int16 range
func (c *Canvas) line(x0, y0, x1, y1 int16, col color.RGBA) {
	x, y := int(x0), int(y0)
	dx, dy := abs(int(x1)-x), -abs(int(y1)-y)
	sx, sy := 1, 1
	if x > int(x1) {
		sx = -1
	}
	if y > int(y1) {
		sy = -1
	}

	e := dx + dy
	for {
		c.plot(x, y, col)
		if x == int(x1) && y == int(y1) {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func (c *Canvas) plot(x, y int, col color.RGBA) {
	if x < 0 || y < 0 || x >= int(c.width) || y >= int(c.barTop) {
		return
	}
	c.display.SetPixel(int16(x), int16(y), col)
}

func (c *Canvas) fill(x, y, w, h int16, col color.RGBA) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if f, ok := c.display.(filler); ok {
		return f.FillRectangle(x, y, w, h, col)
	}
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			c.display.SetPixel(px, py, col)
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
