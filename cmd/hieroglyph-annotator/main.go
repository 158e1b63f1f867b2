package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/menta2k/hieroglyph-annotator/internal/config"
	"github.com/menta2k/hieroglyph-annotator/internal/console"
	"github.com/menta2k/hieroglyph-annotator/internal/logging"
	"github.com/menta2k/hieroglyph-annotator/internal/utils"
	"github.com/menta2k/hieroglyph-annotator/pkg/catalog"
	"github.com/menta2k/hieroglyph-annotator/pkg/session"
	"github.com/menta2k/hieroglyph-annotator/pkg/taxonomy"
)

func main() {
	var cfgPath, in, outDir, taxFile, size, logLevel, logFormat, writeCfg string
	var workers int

	flag.StringVar(&cfgPath, "config", "", "config file (default: "+config.GetConfigPath()+" when present)")
	flag.StringVar(&in, "in", "", "directory of source images")
	flag.StringVar(&outDir, "out", "", "dataset output directory")
	flag.StringVar(&taxFile, "taxonomy", "", "YAML sign table replacing the built-in Gardiner list")
	flag.StringVar(&size, "size", "", "viewport size WxH, e.g. 1024x768")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error")
	flag.StringVar(&logFormat, "log-format", "", "log format: console|json")
	flag.IntVar(&workers, "workers", 0, "parallel header reads while scanning the input")
	flag.StringVar(&writeCfg, "write-config", "", "write the effective configuration to this file and exit")
	flag.Parse()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// flags given on the command line win over the file
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Input.Dir = in
		case "out":
			cfg.Output.Dir = outDir
		case "taxonomy":
			cfg.Taxonomy.File = taxFile
		case "size":
			w, h, err := parseSize(size)
			if err != nil {
				flagErr = err
				return
			}
			cfg.View.Width, cfg.View.Height = w, h
		case "log-level":
			cfg.Log.Level = logLevel
		case "log-format":
			cfg.Log.Format = logFormat
		case "workers":
			cfg.Input.Workers = workers
		}
	})
	if flagErr != nil {
		log.Fatal().Err(flagErr).Msg("Invalid flag")
	}

	if _, err := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	sessionCfg, err := cfg.Session()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if writeCfg != "" {
		if err := cfg.SaveToFile(writeCfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to write configuration")
		}
		log.Info().Str("path", writeCfg).Msg("configuration written")
		return
	}

	tax := taxonomy.Default()
	if cfg.Taxonomy.File != "" {
		tax, err = taxonomy.LoadFile(cfg.Taxonomy.File)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load taxonomy")
		}
	}
	log.Info().Int("entries", tax.Len()).Int("categories", len(tax.Categories())).Msg("taxonomy loaded")

	if !utils.DirExists(cfg.Input.Dir) {
		log.Fatal().Str("dir", cfg.Input.Dir).Msg("Input directory does not exist")
	}
	paths, err := catalog.List(cfg.Input.Dir, cfg.Input.Extensions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list input images")
	}
	entries, err := catalog.NewProber(cfg.Input.Workers, catalog.WithLogger(logging.Module("catalog"))).
		Probe(context.Background(), paths)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to scan input images")
	}
	if len(entries) == 0 {
		log.Fatal().Str("dir", cfg.Input.Dir).Msg("No readable images found")
	}

	s, err := session.New(catalog.Paths(entries), sessionCfg,
		session.WithLogger(logging.Module("session")),
		session.WithTaxonomy(tax))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start session")
	}

	log.Info().
		Str("input", cfg.Input.Dir).
		Str("output", cfg.Output.Dir).
		Int("images", len(entries)).
		Msg("Annotation session started, type help for commands")

	c := console.New(s, os.Stdout)
	c.SetLogger(logging.Module("console"))
	if err := c.Run(os.Stdin); err != nil {
		log.Fatal().Err(err).Msg("Session stopped")
	}
	log.Info().Msg("Annotation session finished")
}

// loadConfig reads path, or the default location when path is empty and a
// file exists there, or falls back to the defaults
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	if p := config.GetConfigPath(); utils.FileExists(p) {
		return config.LoadFromFile(p)
	}
	return config.Default(), nil
}

func parseSize(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("size must be WxH, got %q", s)
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size must be WxH, got %q", s)
	}
	return w, h, nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file] [-in dir] [-out dir] [-size WxH]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
}
