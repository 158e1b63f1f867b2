package shapes

import (
	"errors"
	"fmt"

	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

// MinPolygonPoints is the smallest vertex count a polygon may be finalized with
const MinPolygonPoints = 3

// DefaultMinBoxSize rejects boxes produced by accidental clicks
const DefaultMinBoxSize = 10

// ErrInsufficientPoints is returned when finalizing a polygon with too few vertices
var ErrInsufficientPoints = errors.New("polygon needs at least 3 points")

// Store accumulates the annotations of the currently loaded image.
// All coordinates are source-image pixels.
type Store struct {
	minBoxSize int

	shapes  []types.Shape
	pending []types.Point

	boxOpen  bool
	boxStart types.Point
}

// New creates a Store that discards boxes whose width or height is <= minBoxSize
func New(minBoxSize int) *Store {
	if minBoxSize < 0 {
		minBoxSize = 0
	}
	return &Store{minBoxSize: minBoxSize}
}

// BeginBox records the anchor corner of a box drag
func (s *Store) BeginBox(x, y int) {
	s.boxOpen = true
	s.boxStart = types.Point{X: x, Y: y}
}

// BoxAnchor returns the anchor of an open box drag
func (s *Store) BoxAnchor() (types.Point, bool) {
	return s.boxStart, s.boxOpen
}

// CancelBox drops an open box drag without storing anything
func (s *Store) CancelBox() {
	s.boxOpen = false
}

// EndBox closes the open drag at (x, y). The box is normalized so corner order
// does not matter. Boxes at or below the minimum size are silently discarded,
// in which case ok is false.
func (s *Store) EndBox(x, y int) (box types.Box, ok bool) {
	if !s.boxOpen {
		return types.Box{}, false
	}
	s.boxOpen = false

	box = NormalizeBox(s.boxStart, types.Point{X: x, Y: y})
	if box.W <= s.minBoxSize || box.H <= s.minBoxSize {
		return types.Box{}, false
	}

	s.shapes = append(s.shapes, box)
	return box, true
}

// AddPolygonPoint appends a vertex to the in-progress polygon
func (s *Store) AddPolygonPoint(x, y int) {
	s.pending = append(s.pending, types.Point{X: x, Y: y})
}

// PendingPoints returns a copy of the in-progress polygon vertices
func (s *Store) PendingPoints() []types.Point {
	out := make([]types.Point, len(s.pending))
	copy(out, s.pending)
	return out
}

// FinalizePolygon moves the in-progress vertices into the completed set.
// With fewer than three points it fails and keeps them so the user can go on adding.
func (s *Store) FinalizePolygon() (types.Polygon, error) {
	if len(s.pending) < MinPolygonPoints {
		return types.Polygon{}, fmt.Errorf("%w: have %d", ErrInsufficientPoints, len(s.pending))
	}

	poly := types.Polygon{Points: s.pending}
	s.shapes = append(s.shapes, poly)
	s.pending = nil
	return poly, nil
}

// Clear empties boxes, polygons, the in-progress polygon and any open drag
func (s *Store) Clear() {
	s.shapes = nil
	s.pending = nil
	s.boxOpen = false
}

// Drop removes the first n stored shapes. Pending points and an open drag
// are kept.
func (s *Store) Drop(n int) {
	n = max(0, min(n, len(s.shapes)))
	s.shapes = append([]types.Shape(nil), s.shapes[n:]...)
}

// Shapes returns a snapshot of the stored shapes in insertion order
func (s *Store) Shapes() []types.Shape {
	out := make([]types.Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

// Len returns the number of stored shapes
func (s *Store) Len() int {
	return len(s.shapes)
}

// Empty reports whether there is nothing to save
func (s *Store) Empty() bool {
	return len(s.shapes) == 0
}

// NormalizeBox builds a box from two opposite corners given in any order
func NormalizeBox(a, b types.Point) types.Box {
	x0, x1 := min(a.X, b.X), max(a.X, b.X)
	y0, y1 := min(a.Y, b.Y), max(a.Y, b.Y)
	return types.Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
