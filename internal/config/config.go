package config

import (
	"fmt"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/menta2k/hieroglyph-annotator/pkg/extract"
	"github.com/menta2k/hieroglyph-annotator/pkg/processing"
	"github.com/menta2k/hieroglyph-annotator/pkg/session"
	"github.com/menta2k/hieroglyph-annotator/pkg/shapes"
	"github.com/menta2k/hieroglyph-annotator/pkg/view"
)

// strict rejects unknown keys so typos in a config file are reported
var strict = sonic.Config{DisallowUnknownFields: true}.Froze()

// Config holds the application configuration
type Config struct {
	Input    InputConfig    `json:"input"`
	Output   OutputConfig   `json:"output"`
	View     ViewConfig     `json:"view"`
	Shapes   ShapesConfig   `json:"shapes"`
	Extract  ExtractConfig  `json:"extract"`
	Taxonomy TaxonomyConfig `json:"taxonomy"`
	Log      LogConfig      `json:"log"`
}

// InputConfig holds configuration for image discovery
type InputConfig struct {
	Dir        string   `json:"dir"`
	Extensions []string `json:"extensions"`
	Workers    int      `json:"workers"`
}

// OutputConfig holds configuration for saved crops
type OutputConfig struct {
	Dir           string `json:"dir"`
	Naming        string `json:"naming"`
	PrecreateDirs bool   `json:"precreate_dirs"`
	Compression   string `json:"compression"`
}

// ViewConfig holds configuration for the viewport and its navigation
type ViewConfig struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	MinZoom      float64 `json:"min_zoom"`
	MaxZoom      float64 `json:"max_zoom"`
	ZoomStep     float64 `json:"zoom_step"`
	WheelStep    float64 `json:"wheel_step"`
	PanStep      float64 `json:"pan_step"`
	Background   string  `json:"background"`
	Stroke       int     `json:"stroke"`
	Interpolator string  `json:"interpolator"`
}

// ShapesConfig holds configuration for annotation shapes
type ShapesConfig struct {
	MinBoxSize int `json:"min_box_size"`
}

// ExtractConfig holds configuration for region extraction
type ExtractConfig struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	BoxFilter     string `json:"box_filter"`
	PolygonFilter string `json:"polygon_filter"`
	MaskThreshold int    `json:"mask_threshold"`
}

// TaxonomyConfig points at a replacement sign table; empty uses the built-in one
type TaxonomyConfig struct {
	File string `json:"file"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Dir:        "hieroglyph_images",
			Extensions: []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff", ".webp"},
			Workers:    4,
		},
		Output: OutputConfig{
			Dir:         "hieroglyphs_dataset",
			Naming:      string(session.NamingKind),
			Compression: "default",
		},
		View: ViewConfig{
			Width:        1024,
			Height:       768,
			MinZoom:      0.5,
			MaxZoom:      5.0,
			ZoomStep:     1.2,
			WheelStep:    1.1,
			PanStep:      50,
			Background:   "#1e1e1e",
			Stroke:       2,
			Interpolator: "approx-bilinear",
		},
		Shapes: ShapesConfig{
			MinBoxSize: shapes.DefaultMinBoxSize,
		},
		Extract: ExtractConfig{
			Width:         extract.DefaultWidth,
			Height:        extract.DefaultHeight,
			BoxFilter:     "lanczos",
			PolygonFilter: "lanczos",
			MaskThreshold: 128,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := strict.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := sonic.ConfigStd.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Input.Workers < 1 {
		return fmt.Errorf("input.workers must be positive")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir cannot be empty")
	}

	if c.Output.Naming != string(session.NamingKind) && c.Output.Naming != string(session.NamingSymbol) {
		return fmt.Errorf("output.naming must be %q or %q", session.NamingKind, session.NamingSymbol)
	}

	if _, err := ParseCompression(c.Output.Compression); err != nil {
		return fmt.Errorf("output.compression: %w", err)
	}

	if c.View.Width < 1 || c.View.Height < 1 {
		return fmt.Errorf("view.width and view.height must be positive")
	}

	if c.View.MinZoom <= 0 || c.View.MaxZoom < c.View.MinZoom {
		return fmt.Errorf("view.min_zoom must be positive and not above view.max_zoom")
	}

	if c.View.ZoomStep <= 1 || c.View.WheelStep <= 1 {
		return fmt.Errorf("view.zoom_step and view.wheel_step must be greater than 1")
	}

	if c.View.PanStep <= 0 {
		return fmt.Errorf("view.pan_step must be positive")
	}

	if c.View.Stroke < 1 {
		return fmt.Errorf("view.stroke must be positive")
	}

	if _, err := ParseColor(c.View.Background); err != nil {
		return fmt.Errorf("view.background: %w", err)
	}

	if _, err := ParseInterpolator(c.View.Interpolator); err != nil {
		return fmt.Errorf("view.interpolator: %w", err)
	}

	if c.Shapes.MinBoxSize < 0 {
		return fmt.Errorf("shapes.min_box_size cannot be negative")
	}

	if c.Extract.Width < 1 || c.Extract.Height < 1 {
		return fmt.Errorf("extract.width and extract.height must be positive")
	}

	if _, err := ParseFilter(c.Extract.BoxFilter); err != nil {
		return fmt.Errorf("extract.box_filter: %w", err)
	}

	if _, err := ParseFilter(c.Extract.PolygonFilter); err != nil {
		return fmt.Errorf("extract.polygon_filter: %w", err)
	}

	if c.Extract.MaskThreshold < 1 || c.Extract.MaskThreshold > 255 {
		return fmt.Errorf("extract.mask_threshold must be between 1 and 255")
	}

	return nil
}

// Session converts the configuration into session settings
func (c *Config) Session() (session.Config, error) {
	if err := c.Validate(); err != nil {
		return session.Config{}, err
	}

	// Validate has checked every name below
	background, _ := ParseColor(c.View.Background)
	interpolator, _ := ParseInterpolator(c.View.Interpolator)
	compression, _ := ParseCompression(c.Output.Compression)
	boxFilter, _ := ParseFilter(c.Extract.BoxFilter)
	polygonFilter, _ := ParseFilter(c.Extract.PolygonFilter)

	return session.Config{
		OutputDir:     c.Output.Dir,
		ViewWidth:     c.View.Width,
		ViewHeight:    c.View.Height,
		PanStep:       c.View.PanStep,
		MinBoxSize:    c.Shapes.MinBoxSize,
		Naming:        session.Naming(c.Output.Naming),
		PrecreateDirs: c.Output.PrecreateDirs,
		View: view.Config{
			MinZoom:   c.View.MinZoom,
			MaxZoom:   c.View.MaxZoom,
			ZoomStep:  c.View.ZoomStep,
			WheelStep: c.View.WheelStep,
		},
		Extract: extract.Config{
			Width:         c.Extract.Width,
			Height:        c.Extract.Height,
			BoxFilter:     boxFilter,
			PolygonFilter: polygonFilter,
			MaskThreshold: uint8(c.Extract.MaskThreshold),
		},
		Processing: processing.Config{
			Background:   background,
			Stroke:       c.View.Stroke,
			Interpolator: interpolator,
			Compression:  compression,
		},
	}, nil
}

// ParseFilter maps a resampling filter name to an imaging filter
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(name) {
	case "lanczos":
		return imaging.Lanczos, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "mitchell":
		return imaging.MitchellNetravali, nil
	case "linear":
		return imaging.Linear, nil
	case "box":
		return imaging.Box, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	}
	return imaging.ResampleFilter{}, fmt.Errorf("unknown filter %q", name)
}

// ParseInterpolator maps a display interpolation name to an x/image/draw interpolator
func ParseInterpolator(name string) (draw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "nearest":
		return draw.NearestNeighbor, nil
	case "approx-bilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "catmullrom":
		return draw.CatmullRom, nil
	}
	return nil, fmt.Errorf("unknown interpolator %q", name)
}

// ParseCompression maps a PNG compression name to its level
func ParseCompression(name string) (png.CompressionLevel, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	}
	return png.DefaultCompression, fmt.Errorf("unknown compression %q", name)
}

// ParseColor parses an opaque "#rrggbb" color
func ParseColor(hex string) (color.NRGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "hieroglyph-annotator", "config.json")
}
