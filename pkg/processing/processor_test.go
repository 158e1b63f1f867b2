package processing

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/draw"

	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

// createTestImage creates a test image whose top-left quadrant is red and the rest blue
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 && y < height/2 {
				img.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 255, 255})
			}
		}
	}

	return img
}

func nearestProcessor() *Processor {
	cfg := DefaultConfig()
	cfg.Interpolator = draw.NearestNeighbor
	return NewProcessorWithConfig(cfg)
}

func TestNewProcessorWithConfig(t *testing.T) {
	p := NewProcessorWithConfig(Config{})

	if p.config.Stroke != 1 {
		t.Errorf("Expected stroke to default to 1, got %d", p.config.Stroke)
	}
	if p.config.Interpolator == nil {
		t.Error("Expected a default interpolator")
	}
}

func TestSaveAndLoadImage(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	path := filepath.Join(dir, "plate.png")

	if err := p.SaveImage(createTestImage(40, 30), path); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	img, err := p.LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("Expected 40x30, got %dx%d", b.Dx(), b.Dy())
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ColorModel != color.RGBAModel {
		t.Error("Opaque image should be written as RGB")
	}
}

func TestSaveImageRejectsFormat(t *testing.T) {
	p := NewProcessor()

	err := p.SaveImage(createTestImage(4, 4), filepath.Join(t.TempDir(), "x.jpg"))
	if err == nil {
		t.Error("Expected error for non-PNG output")
	}
}

func TestLoadImageErrors(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(corrupt, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	corruptWebp := filepath.Join(dir, "broken.webp")
	if err := os.WriteFile(corruptWebp, []byte("RIFF0000WEBP"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{corrupt, corruptWebp, filepath.Join(dir, "missing.png")} {
		_, err := p.LoadImage(path)

		var loadErr *ImageLoadError
		if !errors.As(err, &loadErr) {
			t.Errorf("%s: expected ImageLoadError, got %v", path, err)
			continue
		}
		if loadErr.Path != path {
			t.Errorf("Expected path %s, got %s", path, loadErr.Path)
		}
	}
}

func TestRenderViewIdentity(t *testing.T) {
	p := nearestProcessor()
	src := createTestImage(100, 100)

	dst := p.RenderView(src, types.ViewState{Zoom: 1}, 100, 100)

	if c := dst.NRGBAAt(10, 10); c.R != 255 || c.B != 0 {
		t.Errorf("Expected red at (10,10), got %v", c)
	}
	if c := dst.NRGBAAt(90, 90); c.B != 255 || c.R != 0 {
		t.Errorf("Expected blue at (90,90), got %v", c)
	}
}

func TestRenderViewZoomAndPan(t *testing.T) {
	p := nearestProcessor()
	src := createTestImage(100, 100)

	// zoom 2: display (x, y) shows source ((x+pan)/2, (y+pan)/2)
	dst := p.RenderView(src, types.ViewState{Zoom: 2, PanX: 60, PanY: 60}, 100, 100)

	// display (20,20) -> source (40,40): red
	if c := dst.NRGBAAt(20, 20); c.R != 255 {
		t.Errorf("Expected red at (20,20), got %v", c)
	}
	// display (60,60) -> source (60,60): blue
	if c := dst.NRGBAAt(60, 60); c.B != 255 {
		t.Errorf("Expected blue at (60,60), got %v", c)
	}
}

func TestRenderViewBackground(t *testing.T) {
	p := nearestProcessor()
	src := createTestImage(50, 50)

	dst := p.RenderView(src, types.ViewState{Zoom: 1}, 100, 80)

	if b := dst.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Fatalf("Expected viewport size, got %v", b)
	}
	if c := dst.NRGBAAt(75, 75); c != DefaultConfig().Background {
		t.Errorf("Expected background outside the image, got %v", c)
	}
}

func TestRenderViewSubImage(t *testing.T) {
	p := nearestProcessor()
	base := createTestImage(100, 100)
	sub := base.SubImage(image.Rect(50, 50, 100, 100))

	dst := p.RenderView(sub, types.ViewState{Zoom: 1}, 50, 50)
	if c := dst.NRGBAAt(0, 0); c.B != 255 {
		t.Errorf("Sub-image origin should map to display origin, got %v", c)
	}
}

func TestDrawOverlays(t *testing.T) {
	p := NewProcessor()
	dst := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	p.DrawOverlays(dst, []Overlay{
		{Kind: OverlayRect, Points: []image.Point{{30, 30}, {10, 10}}, Color: ColorShape, Label: "1"},
		{Kind: OverlayMarker, Points: []image.Point{{70, 70}}, Color: ColorVertex},
		{Kind: OverlayPolygon, Points: []image.Point{{50, 10}, {90, 10}, {90, 50}}, Color: ColorPending},
		{Kind: OverlayPolyline, Points: []image.Point{{-50, 95}, {150, 95}}, Color: ColorPending},
		{Kind: OverlayRect, Points: []image.Point{{5, 5}}, Color: ColorShape},
	})

	if c := dst.NRGBAAt(10, 20); c != ColorShape {
		t.Errorf("Expected rectangle edge at (10,20), got %v", c)
	}
	if c := dst.NRGBAAt(25, 25); c == ColorShape {
		t.Error("Rectangle interior should not be filled")
	}
	if c := dst.NRGBAAt(70, 70); c != ColorVertex {
		t.Errorf("Expected marker at (70,70), got %v", c)
	}
	if c := dst.NRGBAAt(70, 10); c != ColorPending {
		t.Errorf("Expected polygon edge at (70,10), got %v", c)
	}
	// closing edge (90,50) -> (50,10) passes through (70,30)
	if c := dst.NRGBAAt(70, 30); c != ColorPending {
		t.Errorf("Expected closing edge at (70,30), got %v", c)
	}
	if c := dst.NRGBAAt(0, 95); c != ColorPending {
		t.Errorf("Expected clipped polyline at (0,95), got %v", c)
	}
}

func TestDrawOverlaysFarOffCanvas(t *testing.T) {
	p := NewProcessor()
	dst := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	// stepping to (2^40, 2^40) pixel by pixel would never finish
	p.DrawOverlays(dst, []Overlay{
		{Kind: OverlayPolygon, Points: []image.Point{{10, 10}, {1 << 40, 1 << 40}, {10, 1 << 40}}, Color: ColorPending},
		{Kind: OverlayPolyline, Points: []image.Point{{-1 << 40, -5}, {1 << 40, -5}}, Color: ColorShape},
	})

	if c := dst.NRGBAAt(50, 50); c != ColorPending {
		t.Errorf("Expected diagonal edge at (50,50), got %v", c)
	}
	if c := dst.NRGBAAt(10, 90); c != ColorPending {
		t.Errorf("Expected closing edge at (10,90), got %v", c)
	}
	if c := dst.NRGBAAt(50, 0); c == ColorShape {
		t.Error("Line above the canvas should not be drawn")
	}
}

func TestClipSegment(t *testing.T) {
	r := image.Rect(0, 0, 100, 100)
	tests := []struct {
		a, b   image.Point
		wa, wb image.Point
		ok     bool
	}{
		{image.Pt(10, 10), image.Pt(50, 60), image.Pt(10, 10), image.Pt(50, 60), true},
		{image.Pt(-50, 95), image.Pt(150, 95), image.Pt(0, 95), image.Pt(99, 95), true},
		{image.Pt(10, 10), image.Pt(1<<40, 1<<40), image.Pt(10, 10), image.Pt(99, 99), true},
		{image.Pt(-10, -10), image.Pt(-10, 200), image.Point{}, image.Point{}, false},
		{image.Pt(200, 0), image.Pt(0, 200), image.Pt(99, 101), image.Pt(101, 99), false},
	}

	for _, tt := range tests {
		a, b, ok := clipSegment(tt.a, tt.b, r)
		if ok != tt.ok {
			t.Errorf("clipSegment(%v, %v) ok=%v, want %v", tt.a, tt.b, ok, tt.ok)
			continue
		}
		if ok && (a != tt.wa || b != tt.wb) {
			t.Errorf("clipSegment(%v, %v) = %v %v, want %v %v", tt.a, tt.b, a, b, tt.wa, tt.wb)
		}
	}
}

func TestRender(t *testing.T) {
	p := nearestProcessor()
	src := createTestImage(100, 100)

	out := p.Render(src, types.ViewState{Zoom: 1}, 100, 100, []Overlay{
		{Kind: OverlayMarker, Points: []image.Point{{90, 90}}, Color: ColorVertex},
	})
	if c := out.NRGBAAt(90, 90); c != ColorVertex {
		t.Errorf("Expected overlay drawn over the view, got %v", c)
	}
}

func BenchmarkRenderView(b *testing.B) {
	p := NewProcessor()
	src := createTestImage(2000, 1500)
	state := types.ViewState{Zoom: 1.7, PanX: 300, PanY: 200}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.RenderView(src, state, 1024, 768)
	}
}
