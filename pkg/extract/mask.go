package extract

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"

	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

// RasterizeMask fills the polygon into a single-channel coverage mask the size
// of frame. Vertices sit on pixel centers; a pixel's value is the fraction of
// its area inside the polygon (nonzero winding). The polygon is clipped to
// frame first, so vertices far outside it cost nothing.
func RasterizeMask(poly types.Polygon, frame image.Rectangle) *image.Alpha {
	w, h := frame.Dx(), frame.Dy()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 || len(poly.Points) < 3 {
		return mask
	}

	pts := make([]vec, len(poly.Points))
	for i, p := range poly.Points {
		pts[i] = vec{float64(p.X-frame.Min.X) + 0.5, float64(p.Y-frame.Min.Y) + 0.5}
	}
	pts = clipToRect(pts, float64(w), float64(h))
	if len(pts) < 3 {
		return mask
	}

	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src

	r.MoveTo(float32(pts[0].x), float32(pts[0].y))
	for _, p := range pts[1:] {
		r.LineTo(float32(p.x), float32(p.y))
	}
	r.ClosePath()

	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

type vec struct{ x, y float64 }

// clipToRect clips a closed polygon to [0,w]x[0,h] (Sutherland-Hodgman).
// Concave input may leave zero-width edges along the border; they add no
// coverage.
func clipToRect(pts []vec, w, h float64) []vec {
	edges := []struct {
		inside func(vec) bool
		cross  func(a, b vec) vec
	}{
		{func(p vec) bool { return p.x >= 0 }, func(a, b vec) vec { return lerpX(a, b, 0) }},
		{func(p vec) bool { return p.x <= w }, func(a, b vec) vec { return lerpX(a, b, w) }},
		{func(p vec) bool { return p.y >= 0 }, func(a, b vec) vec { return lerpY(a, b, 0) }},
		{func(p vec) bool { return p.y <= h }, func(a, b vec) vec { return lerpY(a, b, h) }},
	}

	for _, e := range edges {
		if len(pts) == 0 {
			break
		}
		out := make([]vec, 0, len(pts)+2)
		prev := pts[len(pts)-1]
		for _, cur := range pts {
			switch curIn, prevIn := e.inside(cur), e.inside(prev); {
			case curIn && prevIn:
				out = append(out, cur)
			case curIn:
				out = append(out, e.cross(prev, cur), cur)
			case prevIn:
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
		pts = out
	}
	return pts
}

func lerpX(a, b vec, x float64) vec {
	t := (x - a.x) / (b.x - a.x)
	return vec{x, a.y + t*(b.y-a.y)}
}

func lerpY(a, b vec, y float64) vec {
	t := (y - a.y) / (b.y - a.y)
	return vec{a.x + t*(b.x-a.x), y}
}

// applyMask clears every pixel of img whose mask coverage is below threshold.
// img and mask share their origin. It returns the number of pixels kept.
func applyMask(img *image.NRGBA, mask *image.Alpha, threshold uint8) int {
	kept := 0
	b := img.Rect
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			i := x * 4
			if cov := mask.AlphaAt(x, y).A; cov > 0 && cov >= threshold {
				kept++
				continue
			}
			row[i+0] = 0
			row[i+1] = 0
			row[i+2] = 0
			row[i+3] = 0
		}
	}
	return kept
}
