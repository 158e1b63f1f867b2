package session

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/menta2k/hieroglyph-annotator/internal/utils"
	"github.com/menta2k/hieroglyph-annotator/pkg/extract"
	"github.com/menta2k/hieroglyph-annotator/pkg/types"
)

// SaveReport summarizes one save batch
type SaveReport struct {
	Category string
	Saved    int
	Skipped  int      // shapes with nothing inside the image
	Paths    []string // written files in save order
}

// Save crops every shape of the current image and writes it to
// OUTPUT/<category>/<stem>_<kind>_<index>.png. Indexes continue across
// repeated saves of the same image, so earlier files are never overwritten.
//
// Without a selected category nothing touches the disk. Shapes outside the
// image are skipped. When the batch completes the shapes are cleared. A
// write failure returns an *OutputError; shapes handled before it are
// dropped and the failed shape and those after it are kept, so a retry
// writes nothing twice.
func (s *Session) Save() (SaveReport, error) {
	if s.category == "" {
		return SaveReport{}, ErrNoCategorySelected
	}
	if s.img == nil {
		return SaveReport{}, ErrNoImage
	}
	if s.store.Empty() {
		return SaveReport{}, ErrNoAnnotations
	}

	report := SaveReport{Category: s.category}
	dir := filepath.Join(s.config.OutputDir, s.category)
	path := s.files[s.index]
	stem := utils.Stem(path)

	for i, shape := range s.store.Shapes() {
		result, err := s.extractor.Extract(s.img, shape)
		if errors.Is(err, extract.ErrEmptyRegion) {
			report.Skipped++
			s.logger.Warn().Str("shape", fmt.Sprint(shape)).Msg("shape lies outside the image, skipped")
			continue
		}
		if err != nil {
			s.store.Drop(i)
			return report, err
		}

		if err := utils.EnsureDir(dir); err != nil {
			s.store.Drop(i)
			return report, &OutputError{Op: "mkdir", Path: dir, Err: err}
		}

		name := utils.SymbolFilename(stem, s.nameKind(shape), s.counters[path])
		out := filepath.Join(dir, name)
		if err := s.processor.SaveImage(result.Image, out); err != nil {
			s.store.Drop(i)
			return report, &OutputError{Op: "write", Path: out, Err: err}
		}

		s.counters[path]++
		report.Saved++
		report.Paths = append(report.Paths, out)
	}

	s.store.Clear()
	s.hasCur = false

	s.logger.Info().
		Str("image", filepath.Base(path)).
		Str("category", s.category).
		Int("saved", report.Saved).
		Int("skipped", report.Skipped).
		Msg("symbols saved")
	return report, nil
}

// OutputDir returns the absolute folder crops of the selected category go to
func (s *Session) OutputDir() (string, error) {
	if s.category == "" {
		return "", ErrNoCategorySelected
	}
	return filepath.Abs(filepath.Join(s.config.OutputDir, s.category))
}

func (s *Session) nameKind(shape types.Shape) string {
	if s.config.Naming == NamingSymbol {
		return "symbol"
	}
	return shape.Kind().String()
}
