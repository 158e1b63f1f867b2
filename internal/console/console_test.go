package console

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/menta2k/hieroglyph-annotator/pkg/session"
)

// createTestImage writes a gray PNG and returns its path
func createTestImage(t *testing.T, dir string, width, height int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{128, 128, 128, 255})
		}
	}

	path := filepath.Join(dir, "plate.png")
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

func newTestConsole(t *testing.T, outDir string) (*Console, *session.Session, *bytes.Buffer) {
	t.Helper()

	path := createTestImage(t, t.TempDir(), 400, 400)
	cfg := session.DefaultConfig()
	cfg.OutputDir = outDir
	cfg.ViewWidth, cfg.ViewHeight = 200, 200

	s, err := session.New([]string{path}, cfg, session.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	c := New(s, &out)
	c.SetLogger(zerolog.Nop())
	return c, s, &out
}

func TestRunSavesBoxAndPolygon(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	c, _, out := newTestConsole(t, outDir)

	script := `
# box first
category G1
drag 20 20 120 120
key toggle-polygon-mode
click 10 90
click 90 90
click 50 10
complete
save
status
quit
status
`
	if err := c.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{"plate_box_000.png", "plate_polygon_001.png"} {
		if _, err := os.Stat(filepath.Join(outDir, "G1", name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}

	text := out.String()
	if !strings.Contains(text, "category G1 Egyptian vulture") {
		t.Errorf("Expected category confirmation, got %q", text)
	}
	if !strings.Contains(text, "saved 2 skipped 0 under G1") {
		t.Errorf("Expected save report, got %q", text)
	}
	if strings.Count(text, "plate.png [1/1]") != 1 {
		t.Errorf("Expected exactly one status line before quit, got %q", text)
	}
}

func TestRunReportsRecoverableErrors(t *testing.T) {
	c, s, out := newTestConsole(t, filepath.Join(t.TempDir(), "out"))

	script := "save\nkey explode\ncategory Q99\ndown 1\nscroll x\ndrag 1 2 3 4 triple\nclick 10 10\ncomplete\n"
	if err := c.Run(strings.NewReader(script)); err != nil {
		t.Fatalf("Recoverable errors must not stop the loop: %v", err)
	}

	if got := strings.Count(out.String(), "error: "); got != 7 {
		t.Errorf("Expected 7 error lines, got %d in %q", got, out.String())
	}
	if !strings.Contains(out.String(), session.ErrNoCategorySelected.Error()) {
		t.Errorf("Expected missing category error, got %q", out.String())
	}
	if s.Shapes().Len() != 0 {
		t.Error("No shape should have been stored")
	}
}

func TestRunStopsOnFatalError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	c, _, out := newTestConsole(t, blocker)

	err := c.Run(strings.NewReader("category G1\ndrag 20 20 120 120\nsave\nstatus\n"))
	if !session.IsFatal(err) {
		t.Fatalf("Expected fatal error, got %v", err)
	}
	if strings.Contains(out.String(), "[1/1]") {
		t.Error("Commands after a fatal error must not run")
	}
}

func TestPanAndZoomCommands(t *testing.T) {
	c, s, _ := newTestConsole(t, t.TempDir())

	for _, line := range []string{"scroll 2", "drag 100 100 60 80 ctrl", "down", "right"} {
		if err := c.Exec(line); err != nil {
			t.Fatalf("%q failed: %v", line, err)
		}
	}

	st := s.View().State()
	if st.Zoom < 1.20 || st.Zoom > 1.22 {
		t.Errorf("Expected zoom 1.21, got %v", st.Zoom)
	}
	if st.PanX != 90 || st.PanY != 70 {
		t.Errorf("Expected pan (90,70), got (%v,%v)", st.PanX, st.PanY)
	}
	if s.Shapes().Len() != 0 {
		t.Error("Ctrl drag must not draw")
	}

	if err := c.Exec("down 10 10 middle"); err != nil {
		t.Fatal(err)
	}
	if err := c.Exec("move 30 10"); err != nil {
		t.Fatal(err)
	}
	if err := c.Exec("up 30 10"); err != nil {
		t.Fatal(err)
	}
	if st := s.View().State(); st.PanX != 70 {
		t.Errorf("Expected middle drag to pan to 70, got %v", st.PanX)
	}
}

func TestSearchResizeRenderHelp(t *testing.T) {
	c, s, out := newTestConsole(t, t.TempDir())

	if err := c.Exec("search ankh"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "S34. Ankh") {
		t.Errorf("Expected ankh entry, got %q", out.String())
	}

	if err := c.Exec("resize 320 240"); err != nil {
		t.Fatal(err)
	}
	if w, h := s.View().Viewport(); w != 320 || h != 240 {
		t.Errorf("Expected viewport 320x240, got %dx%d", w, h)
	}
	if err := c.Exec("resize 320"); err == nil {
		t.Error("Expected usage error")
	}

	view := filepath.Join(t.TempDir(), "view.png")
	if err := c.Exec("render " + view); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(view)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 320 || cfg.Height != 240 {
		t.Errorf("Expected 320x240 render, got %dx%d", cfg.Width, cfg.Height)
	}

	out.Reset()
	if err := c.Exec("help"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "toggle-polygon-mode") {
		t.Errorf("Help should list keys, got %q", out.String())
	}
}

func TestOutputCommand(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	c, _, out := newTestConsole(t, outDir)

	if err := c.Exec("output"); !errors.Is(err, session.ErrNoCategorySelected) {
		t.Errorf("Expected ErrNoCategorySelected, got %v", err)
	}

	if err := c.Exec("category D21"); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := c.Exec("output"); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(outDir, "D21")
	if got := out.String(); got != "output "+want+" (not created yet)\n" {
		t.Errorf("Unexpected reply %q", got)
	}

	if err := os.MkdirAll(want, 0755); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := c.Exec("output"); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "output "+want+"\n" {
		t.Errorf("Unexpected reply %q", got)
	}
}
