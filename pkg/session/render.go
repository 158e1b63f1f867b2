package session

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"

	"github.com/menta2k/hieroglyph-annotator/pkg/processing"
	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

// Status is a snapshot of what the status bar shows
type Status struct {
	Image       string
	Index       int // zero-based, -1 without an image
	Total       int
	Width       int
	Height      int
	View        types.ViewState
	Mode        Mode
	Category    string
	Description string
	Shapes      int
	Pending     int // vertices of the polygon being drawn
}

func (st Status) String() string {
	name := st.Image
	if name == "" {
		name = "(none)"
	}
	category := "(none)"
	if st.Category != "" {
		category = st.Category
		if st.Description != "" {
			category += " " + st.Description
		}
	}
	return fmt.Sprintf("%s [%d/%d] %dx%d zoom %.2f pan (%.0f,%.0f) mode %s category %s shapes %d pending %d",
		name, st.Index+1, st.Total, st.Width, st.Height,
		st.View.Zoom, st.View.PanX, st.View.PanY,
		st.Mode, category, st.Shapes, st.Pending)
}

// Status reports the current session state
func (s *Session) Status() Status {
	st := Status{
		Index:       s.index,
		Total:       len(s.files),
		View:        s.view.State(),
		Mode:        s.mode,
		Category:    s.category,
		Description: s.taxonomy.Describe(s.category),
		Shapes:      s.store.Len(),
		Pending:     len(s.store.PendingPoints()),
	}
	if s.img != nil {
		st.Image = filepath.Base(s.files[s.index])
		st.Width = s.img.Bounds().Dx()
		st.Height = s.img.Bounds().Dy()
	}
	return st
}

// Overlays returns the annotation primitives of the current image in
// display coordinates: stored shapes numbered from 1, the polygon being
// drawn with its vertices, and the rubber-band rectangle of an open drag.
func (s *Session) Overlays() []processing.Overlay {
	var out []processing.Overlay

	for i, shape := range s.store.Shapes() {
		label := strconv.Itoa(i + 1)
		switch v := shape.(type) {
		case types.Box:
			out = append(out, processing.Overlay{
				Kind: processing.OverlayRect,
				Points: []image.Point{
					s.view.ToDisplayPoint(types.Point{X: v.X, Y: v.Y}),
					s.view.ToDisplayPoint(types.Point{X: v.X + v.W, Y: v.Y + v.H}),
				},
				Color: processing.ColorShape,
				Label: label,
			})
		case types.Polygon:
			out = append(out, processing.Overlay{
				Kind:   processing.OverlayPolygon,
				Points: s.displayPoints(v.Points),
				Color:  processing.ColorShape,
				Label:  label,
			})
		}
	}

	if pending := s.store.PendingPoints(); len(pending) > 0 {
		pts := s.displayPoints(pending)
		out = append(out,
			processing.Overlay{Kind: processing.OverlayPolyline, Points: pts, Color: processing.ColorPending},
			processing.Overlay{Kind: processing.OverlayMarker, Points: pts, Color: processing.ColorVertex},
		)
	}

	if anchor, open := s.store.BoxAnchor(); open && s.hasCur {
		out = append(out, processing.Overlay{
			Kind: processing.OverlayRect,
			Points: []image.Point{
				s.view.ToDisplayPoint(anchor),
				s.view.ToDisplayPoint(types.Point{X: s.cursor.X, Y: s.cursor.Y}),
			},
			Color: processing.ColorPending,
		})
	}

	return out
}

func (s *Session) displayPoints(pts []types.Point) []image.Point {
	out := make([]image.Point, len(pts))
	for i, p := range pts {
		out[i] = s.view.ToDisplayPoint(p)
	}
	return out
}

// Render draws the visible part of the current image with all overlays.
// Without an image the buffer holds only the background.
func (s *Session) Render() *image.NRGBA {
	w, h := s.view.Viewport()
	return s.processor.Render(s.img, s.view.State(), w, h, s.Overlays())
}
