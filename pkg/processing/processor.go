package processing

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

// ImageLoadError reports a source file that could not be read or decoded.
// Sessions skip such files instead of stopping.
type ImageLoadError struct {
	Path string
	Err  error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error {
	return e.Err
}

// Config holds rendering and encoding options
type Config struct {
	Background   color.NRGBA // canvas color outside the image
	Stroke       int         // overlay line width in display pixels
	Interpolator draw.Interpolator
	Compression  png.CompressionLevel
}

// DefaultConfig returns the dark canvas, 2px stroke, bilinear configuration
func DefaultConfig() Config {
	return Config{
		Background:   color.NRGBA{0x1e, 0x1e, 0x1e, 0xff},
		Stroke:       2,
		Interpolator: draw.ApproxBiLinear,
		Compression:  png.DefaultCompression,
	}
}

// Processor handles image I/O and display rendering
type Processor struct {
	config Config
}

// NewProcessor creates a new image processor with the default configuration
func NewProcessor() *Processor {
	return &Processor{config: DefaultConfig()}
}

// NewProcessorWithConfig creates a processor with custom options
func NewProcessorWithConfig(config Config) *Processor {
	if config.Stroke <= 0 {
		config.Stroke = 1
	}
	if config.Interpolator == nil {
		config.Interpolator = draw.ApproxBiLinear
	}
	return &Processor{config: config}
}

// LoadImage loads an image from a file path, honouring EXIF orientation.
// WebP files the registered decoders reject are retried with libwebp.
func (p *Processor) LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	if !strings.EqualFold(filepath.Ext(path), ".webp") {
		return nil, &ImageLoadError{Path: path, Err: err}
	}

	f, ferr := os.Open(path)
	if ferr != nil {
		return nil, &ImageLoadError{Path: path, Err: ferr}
	}
	defer f.Close()

	img, werr := webp.Decode(f)
	if werr != nil {
		return nil, &ImageLoadError{Path: path, Err: werr}
	}
	return img, nil
}

// SaveImage writes img to path as PNG. The parent directory must already exist.
func (p *Processor) SaveImage(img image.Image, path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return fmt.Errorf("unsupported output format: %s", ext)
	}
	return imaging.Save(img, path, imaging.PNGCompressionLevel(p.config.Compression))
}

// RenderView draws the part of src visible through a width x height viewport:
// src is scaled by the zoom factor and shifted by the pan offset.
func (p *Processor) RenderView(src image.Image, state types.ViewState, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(p.config.Background), image.Point{}, draw.Src)
	if src == nil || state.Zoom <= 0 {
		return dst
	}

	b := src.Bounds()
	z := state.Zoom
	s2d := f64.Aff3{
		z, 0, -state.PanX - float64(b.Min.X)*z,
		0, z, -state.PanY - float64(b.Min.Y)*z,
	}
	p.config.Interpolator.Transform(dst, s2d, src, b, draw.Over, nil)
	return dst
}

// DrawOverlays paints the overlay primitives onto dst
func (p *Processor) DrawOverlays(dst *image.NRGBA, overlays []Overlay) {
	for _, o := range overlays {
		p.drawOverlay(dst, o)
	}
}

// Render is RenderView followed by DrawOverlays
func (p *Processor) Render(src image.Image, state types.ViewState, width, height int, overlays []Overlay) *image.NRGBA {
	dst := p.RenderView(src, state, width, height)
	p.DrawOverlays(dst, overlays)
	return dst
}
