// Package annotator builds labeled hieroglyph datasets from photographs.
//
// An operator zooms and pans over an inscription, outlines signs with boxes
// or polygons and files each crop under its Gardiner code. The interactive
// part lives in pkg/session; this package offers the same save pipeline for
// shapes that are already known, e.g. from an earlier export.
//
// Basic usage:
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		annotator "github.com/menta2k/hieroglyph-annotator"
//		"github.com/menta2k/hieroglyph-annotator/pkg/session"
//		"github.com/menta2k/hieroglyph-annotator/pkg/types"
//	)
//
//	func main() {
//		cfg := session.DefaultConfig()
//		cfg.OutputDir = "dataset"
//
//		report, err := annotator.CropFile("wall.jpg", "G1", []types.Shape{
//			types.Box{X: 20, Y: 20, W: 100, H: 100},
//		}, cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("saved %d crops: %v\n", report.Saved, report.Paths)
//	}
//
// The package consists of these components:
//
// 1. View (pkg/view): zoom and pan state, display <-> source mapping
// 2. Shapes (pkg/shapes): boxes and polygons of the current image
// 3. Extract (pkg/extract): clipping, polygon masks and fixed-size crops
// 4. Taxonomy (pkg/taxonomy): the Gardiner sign list
// 5. Session (pkg/session): the event-driven annotation controller
//
// Boxes are written as RGB PNG files, polygons as RGBA PNG files whose pixels
// outside the outline are fully transparent.
package annotator

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/menta2k/hieroglyph-annotator/pkg/session"
	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

// Version of the annotator
const Version = "1.0.0"

// CropFile saves shapes drawn on the image at path under category, exactly
// as an interactive session would. Shapes are given in source pixels; boxes
// at or below the minimum size are dropped like accidental drags.
func CropFile(path, category string, shapes []types.Shape, config session.Config) (session.SaveReport, error) {
	return CropFileWithLogger(path, category, shapes, config, zerolog.Nop())
}

// CropFileWithLogger is CropFile reporting progress to logger
func CropFileWithLogger(path, category string, shapes []types.Shape, config session.Config, logger zerolog.Logger) (session.SaveReport, error) {
	s, err := session.New([]string{path}, config, session.WithLogger(logger))
	if err != nil {
		return session.SaveReport{}, err
	}
	if s.Image() == nil {
		if err := s.Load(0); err != nil {
			return session.SaveReport{}, err
		}
	}
	if err := s.SelectCategory(category); err != nil {
		return session.SaveReport{}, err
	}

	store := s.Shapes()
	for i, shape := range shapes {
		switch v := shape.(type) {
		case types.Box:
			store.BeginBox(v.X, v.Y)
			store.EndBox(v.X+v.W, v.Y+v.H)
		case types.Polygon:
			for _, p := range v.Points {
				store.AddPolygonPoint(p.X, p.Y)
			}
			if _, err := store.FinalizePolygon(); err != nil {
				return session.SaveReport{}, fmt.Errorf("shape %d: %w", i, err)
			}
		}
	}

	return s.Save()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
