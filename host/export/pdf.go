package export

import (
	"io"

	"github.com/jung-kurt/gofpdf"

	"drawlink/protocol"
	"drawlink/render"
)

// PDF renders lines on a single page the size of the screen, one point
// per pixel. Lines with a color outside palette are skipped.
func PDF(w io.Writer, lines []protocol.Line, palette render.Palette, width, height int16) error {
	p := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(width), Ht: float64(height)},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	p.SetLineWidth(1)
	p.SetLineCapStyle("round")

	for _, l := range lines {
		c, err := palette.Color(l.Color)
		if err != nil {
			continue
		}
		p.SetDrawColor(int(c.R), int(c.G), int(c.B))
		p.Line(float64(l.X0), float64(l.Y0), float64(l.X1), float64(l.Y1))
	}
	return p.Output(w)
}
