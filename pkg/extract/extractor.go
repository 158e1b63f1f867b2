package extract

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

// ErrEmptyRegion is returned when a shape's region has no area inside the image.
// Callers skip the shape and carry on with the batch.
var ErrEmptyRegion = errors.New("region is empty after clipping")

// Default output size of a cropped symbol
const (
	DefaultWidth  = 224
	DefaultHeight = 224
)

// Config holds configuration for region extraction. A zero filter resamples
// with nearest neighbour.
type Config struct {
	Width         int
	Height        int
	BoxFilter     imaging.ResampleFilter
	PolygonFilter imaging.ResampleFilter
	// MaskThreshold is the minimum polygon coverage (0-255) for a pixel to count as inside.
	MaskThreshold uint8
}

// DefaultConfig returns the 224x224 Lanczos configuration
func DefaultConfig() Config {
	return Config{
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		BoxFilter:     imaging.Lanczos,
		PolygonFilter: imaging.Lanczos,
		MaskThreshold: 128,
	}
}

// Extractor cuts annotated regions out of a source image
type Extractor struct {
	config Config
}

// New creates an Extractor with the default configuration
func New() *Extractor {
	return &Extractor{config: DefaultConfig()}
}

// NewWithConfig creates an Extractor with a custom configuration
func NewWithConfig(config Config) *Extractor {
	if config.Width <= 0 {
		config.Width = DefaultWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultHeight
	}
	return &Extractor{config: config}
}

// Config returns the extractor configuration
func (e *Extractor) Config() Config {
	return e.config
}

// Result contains the output of one extraction
type Result struct {
	Image  *image.NRGBA
	Region image.Rectangle // clipped source region, relative to the image origin
	Kind   types.ShapeKind
}

// Extract produces the fixed-size output for any shape
func (e *Extractor) Extract(img image.Image, shape types.Shape) (Result, error) {
	switch s := shape.(type) {
	case types.Box:
		return e.ExtractBox(img, s)
	case types.Polygon:
		return e.ExtractPolygon(img, s)
	default:
		return Result{}, fmt.Errorf("unsupported shape %T", shape)
	}
}

// ExtractBox crops a box and stretches it to the output size. The result is opaque.
func (e *Extractor) ExtractBox(img image.Image, box types.Box) (Result, error) {
	bounds := img.Bounds()

	clipped, err := ClipBox(box, bounds.Dx(), bounds.Dy())
	if err != nil {
		return Result{}, err
	}
	region := clipped.Bounds()

	cropped := imaging.Crop(img, region.Add(bounds.Min))
	out := imaging.Resize(cropped, e.config.Width, e.config.Height, e.config.BoxFilter)
	makeOpaque(out)

	return Result{Image: out, Region: region, Kind: types.KindBox}, nil
}

// ExtractPolygon cuts the polygon out of its bounding box. Pixels outside the
// polygon are fully transparent; the crop is then stretched to the output size.
func (e *Extractor) ExtractPolygon(img image.Image, poly types.Polygon) (Result, error) {
	if len(poly.Points) < 3 {
		return Result{}, fmt.Errorf("%w: polygon has %d points", ErrEmptyRegion, len(poly.Points))
	}
	bounds := img.Bounds()

	frame := poly.Bounds()
	region := frame.Intersect(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if region.Empty() {
		return Result{}, fmt.Errorf("%w: polygon bounds %v outside %dx%d image",
			ErrEmptyRegion, frame, bounds.Dx(), bounds.Dy())
	}

	mask := RasterizeMask(poly, region)
	cropped := imaging.Crop(img, region.Add(bounds.Min))

	inside := applyMask(cropped, mask, e.config.MaskThreshold)
	if inside == 0 {
		return Result{}, fmt.Errorf("%w: polygon covers no pixels", ErrEmptyRegion)
	}

	out := imaging.Resize(cropped, e.config.Width, e.config.Height, e.config.PolygonFilter)
	return Result{Image: out, Region: region, Kind: types.KindPolygon}, nil
}

// ClipBox clips a box against a w x h image. It fails with ErrEmptyRegion when
// nothing of the box lies inside the image.
func ClipBox(box types.Box, w, h int) (types.Box, error) {
	r := box.Bounds().Intersect(image.Rect(0, 0, w, h))
	if r.Empty() {
		return types.Box{}, fmt.Errorf("%w: %v outside %dx%d image", ErrEmptyRegion, box, w, h)
	}
	return types.BoxFromRect(r), nil
}

func makeOpaque(img *image.NRGBA) {
	for y := 0; y < img.Rect.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+img.Rect.Dx()*4]
		for i := 3; i < len(row); i += 4 {
			row[i] = 0xff
		}
	}
}
