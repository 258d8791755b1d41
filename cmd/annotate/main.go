package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	annotator "github.com/menta2k/doc-annotator"
	"github.com/menta2k/doc-annotator/internal/config"
	"github.com/menta2k/doc-annotator/internal/logging"
	"github.com/menta2k/doc-annotator/internal/utils"
	"github.com/menta2k/doc-annotator/pkg/document"
)

func main() {
	var pages, script, configPath, outDir, format, preview string
	var debug, breaks bool

	flag.StringVar(&pages, "pages", "", "comma separated page images, directories or URLs (jpg/png/webp)")
	flag.StringVar(&script, "script", "", "JSON file with annotation actions to replay")
	flag.StringVar(&configPath, "config", "", "config file (default "+config.GetConfigPath()+" if present)")
	flag.StringVar(&outDir, "out", "", "output directory (overrides config)")
	flag.StringVar(&format, "format", "", "page format: A4|A5|Letter (overrides config)")
	flag.StringVar(&preview, "preview", "", "also write a flattened preview: png|jpg|webp")
	flag.BoolVar(&breaks, "breaks", false, "mark page breaks on the preview")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")

	flag.Parse()
	if pages == "" {
		log.Fatalf("usage: %s -pages page1.png,page2.png [-script actions.json] [-out outdir] [-format A4|A5|Letter] [-preview png|jpg|webp]", filepath.Base(os.Args[0]))
	}

	logger, err := logging.New(debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if outDir != "" {
		cfg.Output.OutputDir = outDir
	}
	if format != "" {
		cfg.Export.PageFormat = format
	}
	if breaks {
		cfg.Export.MarkPageBreaks = true
	}

	opts, err := annotator.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	opts.Logger = logger

	sources, err := utils.ExpandPages(pages)
	if err != nil {
		log.Fatal(err)
	}
	loader := document.NewLoaderWithConfig(document.LoaderConfig{
		SupportedFormats: cfg.Document.SupportedFormats,
		MinPageSize:      cfg.Document.MinPageSize,
	})
	imgs, err := loader.LoadPages(sources)
	if errors.Is(err, document.ErrUnrendered) {
		log.Fatalf("%v: render the document to page images and pass those with -pages", err)
	}
	if err != nil {
		log.Fatal(err)
	}

	a, err := annotator.NewWithConfig(imgs, opts)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	if script != "" {
		s, err := LoadScript(script)
		if err != nil {
			log.Fatal(err)
		}
		applied, err := s.Replay(a)
		if err != nil {
			log.Fatal(err)
		}
		logger.Info("script replayed",
			zap.Int("actions", len(s.Actions)),
			zap.Int("applied", applied),
			zap.Int("annotations", a.Scene().Len()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		log.Fatal(err)
	}
	path, err := a.ExportToDir(ctx, cfg.Output.OutputDir)
	if err != nil {
		log.Fatal(err)
	}
	if info, err := os.Stat(path); err == nil {
		log.Printf("wrote %s (%s)", path, utils.FormatFileSize(info.Size()))
	}

	if preview != "" {
		previewPath := utils.GenerateOutputFilename(cfg.Export.FileName, cfg.Output.OutputDir, "-preview", preview)
		if err := a.Snapshot(ctx, previewPath, preview); err != nil {
			log.Printf("preview failed: %v", err)
		} else {
			log.Printf("wrote %s", previewPath)
		}
	}
}

// loadConfig reads an explicit config file, falls back to the default
// location, and finally to built-in defaults
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	if def := config.GetConfigPath(); utils.FileExists(def) {
		return config.LoadFromFile(def)
	}
	return config.Default(), nil
}
