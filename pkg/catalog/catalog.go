// Package catalog discovers the source images of an annotation session.
package catalog

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// DefaultExtensions are the file types offered for annotation
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff", ".webp"}

// Entry describes one probed image
type Entry struct {
	Path   string
	Width  int
	Height int
	Format string
}

// Name returns the file name of the entry
func (e Entry) Name() string {
	return filepath.Base(e.Path)
}

// List returns the files directly inside dir whose extension is in exts,
// sorted by name. Subdirectories are not descended into.
func List(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if hasExtension(entry.Name(), exts) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	return paths, nil
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Prober reads image headers in parallel
type Prober struct {
	workers int
	logger  zerolog.Logger
}

// Option configures a Prober
type Option func(*Prober)

// WithLogger sets the logger used to report dropped files
func WithLogger(l zerolog.Logger) Option {
	return func(p *Prober) {
		p.logger = l
	}
}

// NewProber creates a prober running at most workers header reads at once.
// A non-positive worker count means one.
func NewProber(workers int, opts ...Option) *Prober {
	if workers <= 0 {
		workers = 1
	}
	p := &Prober{
		workers: workers,
		logger:  log.With().Str("module", "catalog").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe decodes the header of every path. Files that cannot be opened or
// decoded are logged and left out; the order of the remaining entries
// follows paths. The only error returned is the context's.
func (p *Prober) Probe(ctx context.Context, paths []string) ([]Entry, error) {
	results := make([]*Entry, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			entry, err := probeFile(path)
			if err != nil {
				p.logger.Warn().Str("path", path).Err(err).Msg("skipping unreadable image")
				return nil
			}
			results[i] = &entry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(paths))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	p.logger.Info().Int("found", len(paths)).Int("readable", len(entries)).Msg("catalog probed")

	return entries, nil
}

func probeFile(path string) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Entry{}, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Entry{}, fmt.Errorf("image has no pixels")
	}

	return Entry{Path: path, Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Probe is a convenience wrapper around NewProber(workers).Probe
func Probe(ctx context.Context, paths []string, workers int) ([]Entry, error) {
	return NewProber(workers).Probe(ctx, paths)
}

// Paths returns the path of every entry
func Paths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}
