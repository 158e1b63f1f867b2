// Package session implements the headless annotation controller.
//
// A Session owns the image list, the view of the current image, the shapes
// drawn on it and the selected category. It consumes primitive input events
// (pointer, wheel, symbolic keys) and produces display buffers and cropped
// symbol files. All methods run on the caller's goroutine; a Session must not
// be shared between goroutines.
package session

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/hieroglyph-annotator/internal/utils"
	"github.com/menta2k/hieroglyph-annotator/pkg/extract"
	"github.com/menta2k/hieroglyph-annotator/pkg/processing"
	"github.com/menta2k/hieroglyph-annotator/pkg/shapes"
	"github.com/menta2k/hieroglyph-annotator/pkg/taxonomy"
	"github.com/menta2k/hieroglyph-annotator/pkg/view"
)

// Mode selects what a primary-button gesture draws
type Mode int

const (
	ModeBox Mode = iota
	ModePolygon
)

func (m Mode) String() string {
	if m == ModePolygon {
		return "polygon"
	}
	return "box"
}

// Session is one annotation run over a list of images
type Session struct {
	config    Config
	files     []string
	index     int
	img       image.Image
	view      *view.Transform
	store     *shapes.Store
	extractor *extract.Extractor
	processor *processing.Processor
	taxonomy  *taxonomy.Taxonomy
	mode      Mode
	category  string
	logger    zerolog.Logger

	// pointer state
	panning bool
	lastX   float64
	lastY   float64
	cursor  image.Point
	hasCur  bool

	// next file index per image path
	counters map[string]int
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithTaxonomy replaces the embedded Gardiner table
func WithTaxonomy(t *taxonomy.Taxonomy) Option {
	return func(s *Session) {
		s.taxonomy = t
	}
}

// New creates a session over files and loads the first readable image.
// A list without any readable image is not an error; drawing and saving
// then fail with ErrNoImage.
func New(files []string, config Config, opts ...Option) (*Session, error) {
	if config.ViewWidth <= 0 || config.ViewHeight <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", config.ViewWidth, config.ViewHeight)
	}
	if config.Naming == "" {
		config.Naming = NamingKind
	}
	if config.PanStep <= 0 {
		config.PanStep = DefaultConfig().PanStep
	}

	s := &Session{
		config:    config,
		files:     append([]string(nil), files...),
		index:     -1,
		view:      view.New(config.View, 0, 0, config.ViewWidth, config.ViewHeight),
		store:     shapes.New(config.MinBoxSize),
		extractor: extract.NewWithConfig(config.Extract),
		processor: processing.NewProcessorWithConfig(config.Processing),
		logger:    log.With().Str("module", "session").Logger(),
		counters:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.taxonomy == nil {
		s.taxonomy = taxonomy.Default()
	}

	if config.PrecreateDirs {
		if err := s.precreateDirs(); err != nil {
			return nil, err
		}
	}

	if err := s.seek(0, 1); err != nil {
		s.logger.Warn().Int("files", len(files)).Msg("no readable image in input")
	}
	return s, nil
}

func (s *Session) precreateDirs() error {
	for _, code := range s.taxonomy.Categories() {
		dir := filepath.Join(s.config.OutputDir, code)
		if err := utils.EnsureDir(dir); err != nil {
			return &OutputError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	return nil
}

// Load shows the image at index i, resetting the view and dropping all
// shapes. On failure the current image and its shapes are left untouched.
func (s *Session) Load(i int) error {
	if i < 0 || i >= len(s.files) {
		return fmt.Errorf("%w: index %d of %d", ErrNoMoreImages, i, len(s.files))
	}
	path := s.files[i]

	img, err := s.processor.LoadImage(path)
	if err != nil {
		return err
	}

	b := img.Bounds()
	s.img = img
	s.index = i
	s.view.ResetFor(b.Dx(), b.Dy())
	s.store.Clear()
	s.panning = false
	s.hasCur = false

	s.logger.Info().
		Str("image", filepath.Base(path)).
		Int("index", i).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Msg("image loaded")
	return nil
}

// seek loads the first readable image starting at from and moving by step.
// Unreadable files are logged and passed over.
func (s *Session) seek(from, step int) error {
	for i := from; i >= 0 && i < len(s.files); i += step {
		err := s.Load(i)
		if err == nil {
			return nil
		}

		var loadErr *processing.ImageLoadError
		if !errors.As(err, &loadErr) {
			return err
		}
		s.logger.Warn().Str("path", loadErr.Path).Err(loadErr.Err).Msg("skipping unreadable image")
	}
	return ErrNoMoreImages
}

// Next moves to the next readable image. At the end of the list the current
// image stays and ErrNoMoreImages is returned.
func (s *Session) Next() error {
	return s.seek(s.index+1, 1)
}

// Previous moves to the previous readable image
func (s *Session) Previous() error {
	if s.index <= 0 {
		return ErrNoMoreImages
	}
	return s.seek(s.index-1, -1)
}

// SelectCategory sets the taxonomy code crops are saved under. Both sign
// codes (G1) and category codes (G) are accepted.
func (s *Session) SelectCategory(code string) error {
	e, ok := s.taxonomy.Lookup(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, code)
	}
	s.category = e.Code
	s.logger.Info().Str("code", e.Code).Str("description", e.Description).Msg("category selected")
	return nil
}

// Category returns the selected code, or "" when none is selected
func (s *Session) Category() string {
	return s.category
}

// SetMode switches between box and polygon drawing. An open box drag is
// cancelled; pending polygon points are kept.
func (s *Session) SetMode(m Mode) {
	s.store.CancelBox()
	s.mode = m
}

// Mode returns the drawing mode
func (s *Session) Mode() Mode {
	return s.mode
}

// Resize changes the viewport size
func (s *Session) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", w, h)
	}
	s.view.SetViewport(w, h)
	s.config.ViewWidth = w
	s.config.ViewHeight = h
	return nil
}

// View exposes the transform of the current image
func (s *Session) View() *view.Transform {
	return s.view
}

// Shapes exposes the shapes of the current image
func (s *Session) Shapes() *shapes.Store {
	return s.store
}

// Taxonomy returns the table categories are resolved against
func (s *Session) Taxonomy() *taxonomy.Taxonomy {
	return s.taxonomy
}

// Image returns the current image, or nil
func (s *Session) Image() image.Image {
	return s.img
}

// Path returns the path of the current image, or "" when none is loaded
func (s *Session) Path() string {
	if s.index < 0 {
		return ""
	}
	return s.files[s.index]
}

// Len returns the number of files in the session
func (s *Session) Len() int {
	return len(s.files)
}
