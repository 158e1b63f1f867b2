package session

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/menta2k/hieroglyph-annotator/pkg/shapes"
)

// Buttons is a bit set of pressed pointer buttons
type Buttons uint8

const (
	ButtonPrimary Buttons = 1 << iota
	ButtonMiddle
	ButtonSecondary
)

// Modifiers is a bit set of held modifier keys
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModShift
)

// PointerEvent is a pointer position in display coordinates plus the
// buttons and modifiers held at that moment
type PointerEvent struct {
	X, Y      float64
	Buttons   Buttons
	Modifiers Modifiers
}

// valid rejects positions a windowing toolkit should never report
func (e PointerEvent) valid() bool {
	return isFinite(e.X) && isFinite(e.Y)
}

func (e PointerEvent) pans() bool {
	return e.Buttons&ButtonMiddle != 0 || (e.Buttons&ButtonPrimary != 0 && e.Modifiers&ModCtrl != 0)
}

// Symbolic key names
const (
	KeyNext          = "next"
	KeyPrevious      = "previous"
	KeyReset         = "reset"
	KeyClear         = "clear"
	KeySave          = "save"
	KeyTogglePolygon = "toggle-polygon-mode"
	KeyComplete      = "complete"
	KeyLeft          = "left"
	KeyRight         = "right"
	KeyUp            = "up"
	KeyDown          = "down"
	KeyZoomIn        = "zoom-in"
	KeyZoomOut       = "zoom-out"
)

// single-letter shortcuts of the desktop tool
var keyAliases = map[string]string{
	"n":      KeyNext,
	"p":      KeyPrevious,
	"r":      KeyReset,
	"c":      KeyClear,
	"s":      KeySave,
	"g":      KeyTogglePolygon,
	"return": KeyComplete,
	"enter":  KeyComplete,
	"+":      KeyZoomIn,
	"-":      KeyZoomOut,
}

// KeyNames returns every symbolic key in a stable order
func KeyNames() []string {
	return []string{
		KeyNext, KeyPrevious, KeyReset, KeyClear, KeySave, KeyTogglePolygon,
		KeyComplete, KeyLeft, KeyRight, KeyUp, KeyDown, KeyZoomIn, KeyZoomOut,
	}
}

// PointerDown starts a pan, a box drag or places a polygon vertex
func (s *Session) PointerDown(ev PointerEvent) error {
	if !ev.valid() {
		return nil
	}
	if ev.pans() {
		s.panning = true
		s.lastX, s.lastY = ev.X, ev.Y
		return nil
	}
	if ev.Buttons&ButtonPrimary == 0 {
		return nil
	}
	if s.img == nil {
		return ErrNoImage
	}

	x, y := s.view.ToSource(ev.X, ev.Y)
	switch s.mode {
	case ModeBox:
		s.store.BeginBox(x, y)
		s.cursor, s.hasCur = image.Pt(x, y), true
	case ModePolygon:
		s.store.AddPolygonPoint(x, y)
		s.logger.Debug().Int("x", x).Int("y", y).Int("points", len(s.store.PendingPoints())).Msg("polygon point added")
	}
	return nil
}

// PointerMove continues a pan or updates the rubber-band rectangle
func (s *Session) PointerMove(ev PointerEvent) error {
	if !ev.valid() {
		return nil
	}
	if s.panning {
		s.panTo(ev.X, ev.Y)
		return nil
	}
	if s.img == nil {
		return nil
	}
	x, y := s.view.ToSource(ev.X, ev.Y)
	s.cursor, s.hasCur = image.Pt(x, y), true
	return nil
}

// PointerUp ends a pan or closes the box drag
func (s *Session) PointerUp(ev PointerEvent) error {
	if !ev.valid() {
		s.panning = false
		s.store.CancelBox()
		s.hasCur = false
		return nil
	}
	if s.panning {
		s.panTo(ev.X, ev.Y)
		s.panning = false
		return nil
	}
	if _, open := s.store.BoxAnchor(); !open {
		return nil
	}

	x, y := s.view.ToSource(ev.X, ev.Y)
	box, ok := s.store.EndBox(x, y)
	s.hasCur = false
	if !ok {
		s.logger.Debug().Int("x", x).Int("y", y).Msg("box below minimum size discarded")
		return nil
	}
	s.logger.Debug().Str("box", box.String()).Int("shapes", s.store.Len()).Msg("box added")
	return nil
}

// panTo drags the image with the pointer: the view moves opposite to it
func (s *Session) panTo(x, y float64) {
	s.view.PanBy(-(x - s.lastX), -(y - s.lastY))
	s.lastX, s.lastY = x, y
}

// Scroll applies wheel notches; positive values zoom in
func (s *Session) Scroll(delta int) {
	s.view.Scroll(delta)
}

// Key handles a symbolic key press. Keys are case-insensitive and the
// desktop tool's single-letter shortcuts are accepted.
func (s *Session) Key(name string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}

	step := s.config.PanStep
	switch key {
	case KeyNext:
		return s.Next()
	case KeyPrevious:
		return s.Previous()
	case KeyReset:
		s.view.Reset()
	case KeyClear:
		s.store.Clear()
		s.hasCur = false
		s.logger.Info().Msg("shapes cleared")
	case KeySave:
		_, err := s.Save()
		return err
	case KeyTogglePolygon:
		if s.mode == ModeBox {
			s.SetMode(ModePolygon)
		} else {
			s.SetMode(ModeBox)
		}
		s.logger.Info().Str("mode", s.mode.String()).Msg("mode changed")
	case KeyComplete:
		return s.CompletePolygon()
	case KeyLeft:
		s.view.PanBy(-step, 0)
	case KeyRight:
		s.view.PanBy(step, 0)
	case KeyUp:
		s.view.PanBy(0, -step)
	case KeyDown:
		s.view.PanBy(0, step)
	case KeyZoomIn:
		s.view.ZoomIn()
	case KeyZoomOut:
		s.view.ZoomOut()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return nil
}

// CompletePolygon finalizes the pending polygon. With fewer than three
// points shapes.ErrInsufficientPoints is returned and the points are kept.
func (s *Session) CompletePolygon() error {
	poly, err := s.store.FinalizePolygon()
	if err != nil {
		if errors.Is(err, shapes.ErrInsufficientPoints) {
			s.logger.Warn().Err(err).Msg("polygon not completed")
		}
		return err
	}
	s.logger.Debug().Str("polygon", poly.String()).Int("shapes", s.store.Len()).Msg("polygon added")
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
