// Package view maps pointer coordinates between the on-screen canvas and the
// full-resolution source image.
//
// The viewing model is scale-then-crop: the whole image is scaled by the zoom
// factor and the viewport shows the part of the scaled image starting at the
// pan offset. Pan is therefore expressed in scaled (display) pixels.
package view

import (
	"image"
	"math"

	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

// Config holds the zoom limits and step factors of a view
type Config struct {
	MinZoom   float64
	MaxZoom   float64
	ZoomStep  float64 // factor applied by ZoomIn / ZoomOut
	WheelStep float64 // factor applied per scroll notch
}

// DefaultConfig returns the limits used by the desktop tool
func DefaultConfig() Config {
	return Config{
		MinZoom:   0.5,
		MaxZoom:   5.0,
		ZoomStep:  1.2,
		WheelStep: 1.1,
	}
}

// Transform holds the zoom and pan state for one image shown in one viewport
type Transform struct {
	config Config

	zoom float64
	panX float64
	panY float64

	imageW, imageH int
	viewW, viewH   int
}

// New creates a Transform for an image of the given size shown in a viewport.
// Zero fields of config take their default values.
func New(config Config, imageW, imageH, viewW, viewH int) *Transform {
	def := DefaultConfig()
	if config.MinZoom <= 0 {
		config.MinZoom = def.MinZoom
	}
	if config.MaxZoom <= 0 {
		config.MaxZoom = def.MaxZoom
	}
	if config.ZoomStep <= 0 {
		config.ZoomStep = def.ZoomStep
	}
	if config.WheelStep <= 0 {
		config.WheelStep = def.WheelStep
	}

	t := &Transform{
		config: config,
		imageW: imageW,
		imageH: imageH,
		viewW:  viewW,
		viewH:  viewH,
	}
	t.Reset()
	return t
}

// ToSource maps a display position to source pixels. The result is truncated
// and not clamped to the image.
func (t *Transform) ToSource(displayX, displayY float64) (int, int) {
	sx := (displayX + t.panX) / t.zoom
	sy := (displayY + t.panY) / t.zoom
	return int(sx), int(sy)
}

// ToDisplay maps a source position to display coordinates
func (t *Transform) ToDisplay(sourceX, sourceY int) (float64, float64) {
	return float64(sourceX)*t.zoom - t.panX, float64(sourceY)*t.zoom - t.panY
}

// ToDisplayPoint is ToDisplay rounded to the nearest display pixel
func (t *Transform) ToDisplayPoint(p types.Point) image.Point {
	dx, dy := t.ToDisplay(p.X, p.Y)
	return image.Pt(int(math.Round(dx)), int(math.Round(dy)))
}

// SetZoom sets an absolute zoom factor, clamped to the configured limits
func (t *Transform) SetZoom(zoom float64) {
	if math.IsNaN(zoom) || zoom <= 0 {
		return
	}
	t.zoom = math.Max(t.config.MinZoom, math.Min(zoom, t.config.MaxZoom))
	t.clampPan()
}

// ZoomIn multiplies the zoom by the configured step
func (t *Transform) ZoomIn() {
	t.SetZoom(t.zoom * t.config.ZoomStep)
}

// ZoomOut divides the zoom by the configured step
func (t *Transform) ZoomOut() {
	t.SetZoom(t.zoom / t.config.ZoomStep)
}

// Scroll applies one zoom change per wheel notch. Positive deltas zoom in.
func (t *Transform) Scroll(delta int) {
	switch {
	case delta > 0:
		t.SetZoom(t.zoom * math.Pow(t.config.WheelStep, float64(delta)))
	case delta < 0:
		t.SetZoom(t.zoom / math.Pow(t.config.WheelStep, float64(-delta)))
	}
}

// PanBy moves the visible window by a display-space delta. Each axis is
// clamped independently to [0, max(0, scaled - viewport)].
func (t *Transform) PanBy(dx, dy float64) {
	t.panX += dx
	t.panY += dy
	t.clampPan()
}

// Reset restores zoom 1.0 and pan (0,0)
func (t *Transform) Reset() {
	t.zoom = 1.0
	t.panX = 0
	t.panY = 0
	t.clampZoom()
}

// ResetFor switches to a new image size and resets the view
func (t *Transform) ResetFor(imageW, imageH int) {
	t.imageW = imageW
	t.imageH = imageH
	t.Reset()
}

// SetViewport updates the viewport size and re-clamps the pan offset
func (t *Transform) SetViewport(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	t.viewW = w
	t.viewH = h
	t.clampPan()
}

// Viewport returns the viewport size
func (t *Transform) Viewport() (int, int) {
	return t.viewW, t.viewH
}

// Zoom returns the current zoom factor
func (t *Transform) Zoom() float64 {
	return t.zoom
}

// State returns a snapshot of zoom and pan
func (t *Transform) State() types.ViewState {
	return types.ViewState{Zoom: t.zoom, PanX: t.panX, PanY: t.panY}
}

// MaxPan returns the largest pan offset allowed on each axis
func (t *Transform) MaxPan() (float64, float64) {
	return maxOffset(t.imageW, t.viewW, t.zoom), maxOffset(t.imageH, t.viewH, t.zoom)
}

// VisibleRegion returns the source rectangle currently shown in the viewport
func (t *Transform) VisibleRegion() image.Rectangle {
	x0 := int(math.Floor(t.panX / t.zoom))
	y0 := int(math.Floor(t.panY / t.zoom))
	x1 := int(math.Ceil((t.panX + float64(t.viewW)) / t.zoom))
	y1 := int(math.Ceil((t.panY + float64(t.viewH)) / t.zoom))
	return image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, t.imageW, t.imageH))
}

func (t *Transform) clampZoom() {
	t.zoom = math.Max(t.config.MinZoom, math.Min(t.zoom, t.config.MaxZoom))
}

func (t *Transform) clampPan() {
	maxX, maxY := t.MaxPan()
	t.panX = clamp(t.panX, 0, maxX)
	t.panY = clamp(t.panY, 0, maxY)
}

func maxOffset(imageDim, viewDim int, zoom float64) float64 {
	return math.Max(0, float64(imageDim)*zoom-float64(viewDim))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
