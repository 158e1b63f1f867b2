package session

import (
	"github.com/menta2k/hieroglyph-annotator/pkg/extract"
	"github.com/menta2k/hieroglyph-annotator/pkg/processing"
	"github.com/menta2k/hieroglyph-annotator/pkg/shapes"
	"github.com/menta2k/hieroglyph-annotator/pkg/view"
)

// Naming selects the middle part of saved file names
type Naming string

const (
	// NamingKind names files after the shape kind: plate_box_000.png
	NamingKind Naming = "kind"
	// NamingSymbol uses the fixed word "symbol": plate_symbol_000.png
	NamingSymbol Naming = "symbol"
)

// Config holds every tunable of a session
type Config struct {
	OutputDir     string
	ViewWidth     int
	ViewHeight    int
	PanStep       float64 // display pixels moved by one arrow key
	MinBoxSize    int
	Naming        Naming
	PrecreateDirs bool // create a directory per top-level category at start
	View          view.Config
	Extract       extract.Config
	Processing    processing.Config
}

// DefaultConfig returns the settings of the desktop tool
func DefaultConfig() Config {
	return Config{
		OutputDir:  "hieroglyphs_dataset",
		ViewWidth:  1024,
		ViewHeight: 768,
		PanStep:    50,
		MinBoxSize: shapes.DefaultMinBoxSize,
		Naming:     NamingKind,
		View:       view.DefaultConfig(),
		Extract:    extract.DefaultConfig(),
		Processing: processing.DefaultConfig(),
	}
}
