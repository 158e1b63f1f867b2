package types

import (
	"fmt"
	"image"
)

// ShapeKind identifies the variant of an annotation shape
type ShapeKind int

const (
	KindBox ShapeKind = iota
	KindPolygon
)

// String returns the name used in output filenames
func (k ShapeKind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Point is a pixel position in source-image coordinates
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Shape is an annotation stored in source-image coordinates.
// It is implemented by Box and Polygon only.
type Shape interface {
	Kind() ShapeKind
	// Bounds returns the axis-aligned rectangle enclosing the shape, unclipped.
	Bounds() image.Rectangle
	isShape()
}

// Box represents an axis-aligned bounding box in source pixels
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Kind implements Shape
func (b Box) Kind() ShapeKind { return KindBox }

// Bounds implements Shape
func (b Box) Bounds() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Area returns the box area in pixels
func (b Box) Area() int {
	return b.W * b.H
}

func (b Box) String() string {
	return fmt.Sprintf("box(%d,%d %dx%d)", b.X, b.Y, b.W, b.H)
}

func (Box) isShape() {}

// BoxFromRect converts a rectangle into a Box
func BoxFromRect(r image.Rectangle) Box {
	return Box{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Polygon is an ordered list of vertices in source pixels
type Polygon struct {
	Points []Point `json:"points"`
}

// Kind implements Shape
func (p Polygon) Kind() ShapeKind { return KindPolygon }

// Bounds implements Shape. The rectangle includes the vertex pixels themselves,
// so a polygon whose vertices span x=10..90 yields a width of 81.
func (p Polygon) Bounds() image.Rectangle {
	if len(p.Points) == 0 {
		return image.Rectangle{}
	}
	minX, minY := p.Points[0].X, p.Points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p.Points[1:] {
		minX = min(minX, pt.X)
		minY = min(minY, pt.Y)
		maxX = max(maxX, pt.X)
		maxY = max(maxY, pt.Y)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

func (p Polygon) String() string {
	return fmt.Sprintf("polygon(%d points)", len(p.Points))
}

func (Polygon) isShape() {}

// ViewState is a snapshot of the zoom factor and pan offset of a view
type ViewState struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
}
