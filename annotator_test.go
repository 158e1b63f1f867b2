package annotator

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/hieroglyph-annotator/pkg/processing"
	"github.com/menta2k/hieroglyph-annotator/pkg/session"
	"github.com/menta2k/hieroglyph-annotator/pkg/shapes"
	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

// createTestImage writes a test image with a bright square in the center
func createTestImage(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}

	path := filepath.Join(t.TempDir(), "relief.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T) session.Config {
	cfg := session.DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "dataset")
	return cfg
}

func TestCropFile(t *testing.T) {
	path := createTestImage(t, 300, 300)
	cfg := testConfig(t)

	report, err := CropFile(path, "N35", []types.Shape{
		types.Box{X: 100, Y: 100, W: 100, H: 100},
		types.Box{X: 0, Y: 0, W: 5, H: 5},
		types.Polygon{Points: []types.Point{{X: 10, Y: 200}, {X: 90, Y: 200}, {X: 50, Y: 120}}},
	}, cfg)
	if err != nil {
		t.Fatalf("CropFile failed: %v", err)
	}

	if report.Saved != 2 || report.Category != "N35" {
		t.Fatalf("Unexpected report %+v", report)
	}
	want := []string{"relief_box_000.png", "relief_polygon_001.png"}
	for i, p := range report.Paths {
		if filepath.Base(p) != want[i] || filepath.Dir(p) != filepath.Join(cfg.OutputDir, "N35") {
			t.Errorf("Unexpected path %s", p)
		}
	}
}

func TestCropFileErrors(t *testing.T) {
	path := createTestImage(t, 100, 100)
	cfg := testConfig(t)

	if _, err := CropFile(path, "Q99", nil, cfg); !errors.Is(err, session.ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got %v", err)
	}
	if _, err := CropFile(path, "G1", nil, cfg); !errors.Is(err, session.ErrNoAnnotations) {
		t.Errorf("Expected ErrNoAnnotations, got %v", err)
	}

	line := types.Polygon{Points: []types.Point{{X: 1, Y: 1}, {X: 50, Y: 50}}}
	if _, err := CropFile(path, "G1", []types.Shape{line}, cfg); !errors.Is(err, shapes.ErrInsufficientPoints) {
		t.Errorf("Expected ErrInsufficientPoints, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.png")
	var loadErr *processing.ImageLoadError
	if _, err := CropFile(missing, "G1", nil, cfg); !errors.As(err, &loadErr) {
		t.Errorf("Expected ImageLoadError, got %v", err)
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("GetVersion() = %s, want %s", GetVersion(), Version)
	}
}
