package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/menta2k/doc-annotator/pkg/processing"
)

// DefaultFileName is the name every exported document is written under
const DefaultFileName = "annotated-document.pdf"

const surfaceImage = "surface"

// ErrExportInProgress is returned when an export is already running
var ErrExportInProgress = errors.New("export already in progress")

// Surface is the composed document and annotation raster source
type Surface interface {
	Rasterize(ctx context.Context, scale float64) (image.Image, error)
}

// Config holds export settings
type Config struct {
	PageFormat PageFormat
	// Oversample is the rasterization scale relative to display size
	Oversample     float64
	FileName       string
	SnapshotFormat string
	Quality        int
	MarkPageBreaks bool
}

// DefaultConfig returns A4 output rasterized at twice display resolution
func DefaultConfig() Config {
	return Config{
		PageFormat:     A4,
		Oversample:     2,
		FileName:       DefaultFileName,
		SnapshotFormat: "png",
		Quality:        90,
	}
}

// Document is a finished export; it is not modified after creation
type Document struct {
	Name       string
	Pages      int
	PageFormat PageFormat
	Data       []byte
}

// Exporter rasterizes a surface and assembles the paginated PDF. At most
// one export runs at a time.
type Exporter struct {
	config    Config
	sem       *semaphore.Weighted
	processor *processing.Processor
	logger    *zap.Logger
}

// New creates an exporter with default configuration
func New() *Exporter {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an exporter with custom configuration
func NewWithConfig(config Config) *Exporter {
	if config.Oversample <= 0 {
		config.Oversample = 1
	}
	if config.FileName == "" {
		config.FileName = DefaultFileName
	}
	return &Exporter{
		config:    config,
		sem:       semaphore.NewWeighted(1),
		processor: processing.NewProcessor(),
		logger:    zap.NewNop(),
	}
}

// SetLogger replaces the exporter logger
func (e *Exporter) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.logger = logger
}

// Config returns the exporter configuration
func (e *Exporter) Config() Config { return e.config }

// Busy reports whether an export is running
func (e *Exporter) Busy() bool {
	if e.sem.TryAcquire(1) {
		e.sem.Release(1)
		return false
	}
	return true
}

// Export renders s and paginates it into a PDF document. A call made while
// another export is running fails with ErrExportInProgress. On any error no
// document is returned.
func (e *Exporter) Export(ctx context.Context, s Surface) (*Document, error) {
	if !e.sem.TryAcquire(1) {
		return nil, ErrExportInProgress
	}
	defer e.sem.Release(1)

	start := time.Now()
	doc, err := e.export(ctx, s)
	if err != nil {
		e.logger.Error("export failed", zap.Error(err))
		return nil, err
	}
	e.logger.Info("export complete",
		zap.String("name", doc.Name),
		zap.Int("pages", doc.Pages),
		zap.String("format", doc.PageFormat.Name),
		zap.Int("bytes", len(doc.Data)),
		zap.Duration("elapsed", time.Since(start)))
	return doc, nil
}

func (e *Exporter) export(ctx context.Context, s Surface) (*Document, error) {
	img, err := s.Rasterize(ctx, e.config.Oversample)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize surface: %w", err)
	}

	b := img.Bounds()
	plan, err := NewPlan(b.Dx(), b.Dy(), e.config.PageFormat)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("export plan",
		zap.Int("width", plan.SourceWidth),
		zap.Int("height", plan.SourceHeight),
		zap.Float64("image_height_mm", plan.ImageHeight),
		zap.Int("pages", plan.PageCount()))

	var raster bytes.Buffer
	if err := e.processor.EncodeImage(&raster, img, "png", 0, false); err != nil {
		return nil, fmt.Errorf("failed to encode surface: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := assemble(plan, &raster)
	if err != nil {
		return nil, err
	}
	return &Document{
		Name:       e.config.FileName,
		Pages:      plan.PageCount(),
		PageFormat: plan.Format,
		Data:       data,
	}, nil
}

// assemble draws the full raster once per page, shifted up by the slice
// offset so each page shows its own band
func assemble(plan Plan, raster *bytes.Buffer) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: plan.Format.Width, Ht: plan.Format.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("doc-annotator", true)

	opts := gofpdf.ImageOptions{ImageType: "PNG", AllowNegativePosition: true}
	pdf.RegisterImageOptionsReader(surfaceImage, opts, raster)

	for _, s := range plan.Slices {
		pdf.AddPage()
		pdf.ImageOptions(surfaceImage, 0, -s.Offset, plan.ImageWidth, plan.ImageHeight, false, opts, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to assemble pdf: %w", err)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return out.Bytes(), nil
}

// Snapshot writes the composed raster to path as png, jpg or webp
func (e *Exporter) Snapshot(ctx context.Context, s Surface, path, format string) error {
	if format == "" {
		format = e.config.SnapshotFormat
	}
	img, err := s.Rasterize(ctx, 1)
	if err != nil {
		return fmt.Errorf("failed to rasterize surface: %w", err)
	}
	if e.config.MarkPageBreaks {
		b := img.Bounds()
		plan, err := NewPlan(b.Dx(), b.Dy(), e.config.PageFormat)
		if err != nil {
			return err
		}
		img = e.processor.DrawPageBreaks(img, plan.PageBreaks())
	}
	if err := e.processor.SaveImage(img, path, format, e.config.Quality, false); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	e.logger.Info("snapshot written", zap.String("path", path), zap.String("format", format))
	return nil
}

// WriteFile stores doc in dir under its fixed name and returns the path
func WriteFile(doc *Document, dir string) (string, error) {
	if doc == nil {
		return "", errors.New("no document to write")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, doc.Name)
	if err := os.WriteFile(path, doc.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
