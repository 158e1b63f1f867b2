package shapes

import (
	"errors"
	"testing"

	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

func TestBoxNormalization(t *testing.T) {
	s := New(DefaultMinBoxSize)

	s.BeginBox(50, 50)
	box, ok := s.EndBox(10, 10)
	if !ok {
		t.Fatal("Expected box to be stored")
	}

	expected := types.Box{X: 10, Y: 10, W: 40, H: 40}
	if box != expected {
		t.Errorf("Expected %v, got %v", expected, box)
	}

	shapes := s.Shapes()
	if len(shapes) != 1 || shapes[0] != expected {
		t.Errorf("Expected store to hold %v, got %v", expected, shapes)
	}
}

func TestBoxCornerOrder(t *testing.T) {
	corners := [][4]int{
		{10, 10, 50, 50},
		{50, 10, 10, 50},
		{10, 50, 50, 10},
		{50, 50, 10, 10},
	}

	for _, c := range corners {
		s := New(DefaultMinBoxSize)
		s.BeginBox(c[0], c[1])
		box, ok := s.EndBox(c[2], c[3])
		if !ok || box != (types.Box{X: 10, Y: 10, W: 40, H: 40}) {
			t.Errorf("Corners %v produced %v (ok=%v)", c, box, ok)
		}
	}
}

func TestDegenerateBoxRejection(t *testing.T) {
	s := New(DefaultMinBoxSize)

	s.BeginBox(10, 10)
	if _, ok := s.EndBox(12, 11); ok {
		t.Error("Expected tiny box to be discarded")
	}
	if s.Len() != 0 {
		t.Errorf("Expected no stored shapes, got %d", s.Len())
	}

	// exactly the minimum is still rejected
	s.BeginBox(0, 0)
	if _, ok := s.EndBox(10, 100); ok {
		t.Error("Expected box with width == min size to be discarded")
	}

	s.BeginBox(0, 0)
	if _, ok := s.EndBox(11, 11); !ok {
		t.Error("Expected box just above min size to be kept")
	}
}

func TestEndBoxWithoutBegin(t *testing.T) {
	s := New(DefaultMinBoxSize)

	if _, ok := s.EndBox(100, 100); ok {
		t.Error("EndBox without BeginBox should be a no-op")
	}

	s.BeginBox(0, 0)
	s.CancelBox()
	if _, ok := s.EndBox(100, 100); ok {
		t.Error("EndBox after CancelBox should be a no-op")
	}
	if _, open := s.BoxAnchor(); open {
		t.Error("Expected no open drag")
	}
}

func TestPolygonCompletionMinimum(t *testing.T) {
	s := New(DefaultMinBoxSize)

	s.AddPolygonPoint(0, 0)
	s.AddPolygonPoint(10, 0)

	_, err := s.FinalizePolygon()
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("Expected ErrInsufficientPoints, got %v", err)
	}
	if len(s.PendingPoints()) != 2 {
		t.Errorf("Expected pending points to be retained, got %d", len(s.PendingPoints()))
	}

	s.AddPolygonPoint(5, 10)
	poly, err := s.FinalizePolygon()
	if err != nil {
		t.Fatalf("FinalizePolygon failed: %v", err)
	}
	if len(poly.Points) != 3 {
		t.Errorf("Expected polygon of 3 points, got %d", len(poly.Points))
	}
	if len(s.PendingPoints()) != 0 {
		t.Error("Expected in-progress buffer to be cleared")
	}
	if s.Len() != 1 || s.Shapes()[0].Kind() != types.KindPolygon {
		t.Error("Expected one stored polygon")
	}
}

func TestFinalizeEmpty(t *testing.T) {
	s := New(DefaultMinBoxSize)

	if _, err := s.FinalizePolygon(); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("Expected ErrInsufficientPoints, got %v", err)
	}
}

func TestInsertionOrder(t *testing.T) {
	s := New(DefaultMinBoxSize)

	s.BeginBox(0, 0)
	s.EndBox(20, 20)
	s.AddPolygonPoint(0, 0)
	s.AddPolygonPoint(30, 0)
	s.AddPolygonPoint(0, 30)
	s.FinalizePolygon()
	s.BeginBox(100, 100)
	s.EndBox(150, 150)

	shapes := s.Shapes()
	kinds := []types.ShapeKind{types.KindBox, types.KindPolygon, types.KindBox}
	if len(shapes) != len(kinds) {
		t.Fatalf("Expected %d shapes, got %d", len(kinds), len(shapes))
	}
	for i, k := range kinds {
		if shapes[i].Kind() != k {
			t.Errorf("Shape %d: expected %s, got %s", i, k, shapes[i].Kind())
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := New(DefaultMinBoxSize)
	s.BeginBox(0, 0)
	s.EndBox(20, 20)

	snap := s.Shapes()
	snap[0] = types.Box{}

	if s.Shapes()[0] == (types.Box{}) {
		t.Error("Modifying a snapshot must not change the store")
	}
}

func TestClear(t *testing.T) {
	s := New(DefaultMinBoxSize)
	s.BeginBox(0, 0)
	s.EndBox(20, 20)
	s.AddPolygonPoint(1, 1)
	s.BeginBox(5, 5)

	s.Clear()

	if !s.Empty() {
		t.Error("Expected no shapes after Clear")
	}
	if len(s.PendingPoints()) != 0 {
		t.Error("Expected no pending points after Clear")
	}
	if _, open := s.BoxAnchor(); open {
		t.Error("Expected no open drag after Clear")
	}
}

func TestDrop(t *testing.T) {
	s := New(DefaultMinBoxSize)
	for _, x := range []int{0, 100, 200} {
		s.BeginBox(x, 0)
		s.EndBox(x+20, 20)
	}
	s.AddPolygonPoint(1, 1)

	s.Drop(2)
	shapes := s.Shapes()
	if len(shapes) != 1 || shapes[0].(types.Box).X != 200 {
		t.Errorf("Expected only the last box, got %v", shapes)
	}
	if len(s.PendingPoints()) != 1 {
		t.Error("Drop must keep pending points")
	}

	s.Drop(5)
	if !s.Empty() {
		t.Error("Dropping more than stored should empty the store")
	}
	s.Drop(-1)
}
