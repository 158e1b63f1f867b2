package processing

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayKind selects how an overlay's points are drawn
type OverlayKind int

const (
	// OverlayRect uses Points[0] and Points[1] as opposite corners.
	OverlayRect OverlayKind = iota
	// OverlayPolygon joins every point and closes the outline.
	OverlayPolygon
	// OverlayPolyline joins the points without closing.
	OverlayPolyline
	// OverlayMarker draws a filled square at every point.
	OverlayMarker
)

// Overlay is a drawing primitive expressed in display coordinates
type Overlay struct {
	Kind   OverlayKind
	Points []image.Point
	Color  color.NRGBA
	Label  string // drawn next to the first point when set
}

// Overlay colors
var (
	ColorShape   = color.NRGBA{0x00, 0xff, 0x00, 0xff}
	ColorPending = color.NRGBA{0xff, 0x00, 0x00, 0xff}
	ColorVertex  = color.NRGBA{0xff, 0xcc, 0x00, 0xff}
)

const markerRadius = 3

func (p *Processor) drawOverlay(img *image.NRGBA, o Overlay) {
	stroke := p.config.Stroke

	switch o.Kind {
	case OverlayRect:
		if len(o.Points) < 2 {
			return
		}
		drawBox(img, image.Rectangle{Min: o.Points[0], Max: o.Points[1]}.Canon(), o.Color, stroke)
	case OverlayPolygon, OverlayPolyline:
		for i := 1; i < len(o.Points); i++ {
			drawLine(img, o.Points[i-1], o.Points[i], o.Color, stroke)
		}
		if o.Kind == OverlayPolygon && len(o.Points) > 2 {
			drawLine(img, o.Points[len(o.Points)-1], o.Points[0], o.Color, stroke)
		}
	case OverlayMarker:
		for _, pt := range o.Points {
			fillRect(img, image.Rect(pt.X-markerRadius, pt.Y-markerRadius, pt.X+markerRadius+1, pt.Y+markerRadius+1), o.Color)
		}
	}

	if o.Label != "" && len(o.Points) > 0 {
		anchor := o.Points[0]
		if o.Kind == OverlayRect && len(o.Points) > 1 {
			anchor = image.Rectangle{Min: o.Points[0], Max: o.Points[1]}.Canon().Min
		}
		drawLabel(img, anchor.Add(image.Pt(5, 5)), o.Label, o.Color)
	}
}

func drawLabel(img *image.NRGBA, topLeft image.Point, text string, c color.NRGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(topLeft.X, topLeft.Y+face.Ascent),
	}
	d.DrawString(text)
}

func drawBox(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm, stamping a
// stroke-sized square at every step. The segment is first clipped to the
// canvas grown by the stroke width.
func drawLine(img *image.NRGBA, a, b image.Point, c color.NRGBA, stroke int) {
	a, b, ok := clipSegment(a, b, img.Bounds().Inset(-stroke))
	if !ok {
		return
	}

	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	half := stroke / 2
	err := dx + dy
	x, y := a.X, a.Y
	for {
		fillRect(img, image.Rect(x-half, y-half, x-half+stroke, y-half+stroke), c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// clipSegment clips a-b to r with the Liang-Barsky algorithm. It reports
// false when the segment misses r.
func clipSegment(a, b image.Point, r image.Rectangle) (image.Point, image.Point, bool) {
	x0, y0 := float64(a.X), float64(a.Y)
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	t0, t1 := 0.0, 1.0

	for _, edge := range [4][2]float64{
		{-dx, x0 - float64(r.Min.X)},
		{dx, float64(r.Max.X-1) - x0},
		{-dy, y0 - float64(r.Min.Y)},
		{dy, float64(r.Max.Y-1) - y0},
	} {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			t0 = math.Max(t0, t)
		} else {
			t1 = math.Min(t1, t)
		}
		if t0 > t1 {
			return a, b, false
		}
	}

	at := func(t float64) image.Point {
		return image.Pt(int(math.Round(x0+t*dx)), int(math.Round(y0+t*dy)))
	}
	return at(t0), at(t1), true
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		drawHLine(img, y, r.Min.X, r.Max.X, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
