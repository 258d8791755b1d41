// Package annotator overlays vector annotations on a rendered document and
// flattens the result into a paginated PDF.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		annotator "github.com/menta2k/doc-annotator"
//		"github.com/menta2k/doc-annotator/pkg/capture"
//		"github.com/menta2k/doc-annotator/pkg/types"
//		"seehuhn.de/go/geom/vec"
//	)
//
//	func main() {
//		a, err := annotator.New(pages)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer a.Close()
//
//		a.SetTool(types.ToolHighlight)
//		a.Handle(capture.RawEvent{Type: capture.EventStart, Client: vec.Vec2{X: 50, Y: 50}})
//		a.Handle(capture.RawEvent{Type: capture.EventMove, Client: vec.Vec2{X: 250, Y: 50}})
//		a.Handle(capture.RawEvent{Type: capture.EventEnd, Client: vec.Vec2{X: 250, Y: 50}})
//
//		if _, err := a.ExportToDir(context.Background(), "."); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package wires these components together:
//
//  1. Engine (pkg/engine): the tool state machine
//  2. Scene (pkg/scene): the annotation data model
//  3. Capture (pkg/capture): input routing and coordinate mapping
//  4. Render (pkg/render): scene drawing and surface rasterization
//  5. Export (pkg/export): pagination and PDF assembly
//
// Everything except Export must be driven from a single goroutine. Export
// works on a copy of the scene and may run elsewhere.
package annotator

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"
	"seehuhn.de/go/geom/rect"

	"github.com/menta2k/doc-annotator/internal/config"
	"github.com/menta2k/doc-annotator/internal/logging"
	"github.com/menta2k/doc-annotator/pkg/capture"
	"github.com/menta2k/doc-annotator/pkg/document"
	"github.com/menta2k/doc-annotator/pkg/engine"
	"github.com/menta2k/doc-annotator/pkg/export"
	"github.com/menta2k/doc-annotator/pkg/geometry"
	"github.com/menta2k/doc-annotator/pkg/render"
	"github.com/menta2k/doc-annotator/pkg/scene"
	"github.com/menta2k/doc-annotator/pkg/types"
)

// Version of the annotator library
const Version = "1.0.0"

// Options configures an Annotator
type Options struct {
	Engine       engine.Config
	Viewer       document.ViewerConfig
	Export       export.Config
	DefaultTool  types.Tool
	DefaultColor types.Color
	Logger       *zap.Logger
}

// DefaultOptions returns the stock configuration
func DefaultOptions() Options {
	return Options{
		Engine:       engine.DefaultConfig(),
		Viewer:       document.DefaultViewerConfig(),
		Export:       export.DefaultConfig(),
		DefaultTool:  types.ToolSelect,
		DefaultColor: types.Yellow,
	}
}

// OptionsFromConfig converts a loaded configuration file into Options
func OptionsFromConfig(c *config.Config) (Options, error) {
	if err := c.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid config: %w", err)
	}

	opts := DefaultOptions()
	opts.Engine = engine.Config{
		HighlightHeight:   c.Engine.HighlightHeight,
		UnderlineHeight:   c.Engine.UnderlineHeight,
		HighlightOpacity:  c.Engine.HighlightOpacity,
		UnderlineOpacity:  c.Engine.UnderlineOpacity,
		MinWidth:          c.Engine.MinWidth,
		SignatureWidth:    c.Engine.SignatureWidth,
		SelectionGrace:    time.Duration(c.Engine.SelectionGraceMS) * time.Millisecond,
		DiscardDegenerate: c.Engine.DiscardDegenerate,
	}

	var err error
	if c.Engine.DefaultTool != "" {
		if opts.DefaultTool, err = types.ParseTool(c.Engine.DefaultTool); err != nil {
			return Options{}, err
		}
	}
	if c.Engine.DefaultColor != "" {
		if opts.DefaultColor, err = types.ParseColor(c.Engine.DefaultColor); err != nil {
			return Options{}, err
		}
	}

	opts.Viewer = document.ViewerConfig{PageWidth: c.Document.PageWidth, PageGap: c.Document.PageGap}

	format, err := pageFormat(c.Export)
	if err != nil {
		return Options{}, err
	}
	opts.Export = export.Config{
		PageFormat:     format,
		Oversample:     c.Export.Oversample,
		FileName:       c.Export.FileName,
		SnapshotFormat: c.Output.SnapshotFormat,
		Quality:        c.Output.Quality,
		MarkPageBreaks: c.Export.MarkPageBreaks,
	}
	return opts, nil
}

func pageFormat(c config.ExportConfig) (export.PageFormat, error) {
	if strings.EqualFold(c.PageFormat, "custom") {
		return export.PageFormat{Name: "custom", Width: c.PageWidthMM, Height: c.PageHeightMM}, nil
	}
	f, ok := export.LookupPageFormat(c.PageFormat)
	if !ok {
		return export.PageFormat{}, fmt.Errorf("unknown page format: %s", c.PageFormat)
	}
	return f, nil
}

// Annotator is a document with an annotation overlay
type Annotator struct {
	scene    *scene.Scene
	engine   *engine.Engine
	viewer   *document.Viewer
	layer    *render.Layer
	capture  *capture.Surface
	exporter *export.Exporter
	logger   *zap.Logger

	// left and top locate the surface on screen; they change as the host scrolls
	left, top float64
}

// New creates an Annotator over the given page bitmaps with default options
func New(pages []image.Image) (*Annotator, error) {
	return NewWithConfig(pages, DefaultOptions())
}

// NewWithConfig creates an Annotator with custom options
func NewWithConfig(pages []image.Image, opts Options) (*Annotator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	viewer := document.NewViewer(pages, opts.Viewer)
	if _, err := viewer.Render(); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	size := viewer.Size()

	s := scene.New()
	e := engine.NewWithConfig(s, opts.Engine)
	e.SetLogger(logging.Named(logger, "engine"))
	e.SetTool(opts.DefaultTool)
	e.SetColor(opts.DefaultColor)

	a := &Annotator{
		scene:    s,
		engine:   e,
		viewer:   viewer,
		layer:    render.NewLayer(size.X, size.Y),
		exporter: export.NewWithConfig(opts.Export),
		logger:   logger,
	}
	a.exporter.SetLogger(logging.Named(logger, "export"))
	a.capture = capture.New(e, capture.BoundsFunc(a.bounds), a.layer)
	a.capture.SetLogger(logging.Named(logger, "capture"))
	a.capture.Mount()

	logger.Info("document loaded",
		zap.Int("pages", viewer.NumPages()),
		zap.Int("width", size.X),
		zap.Int("height", size.Y))
	return a, nil
}

func (a *Annotator) bounds() rect.Rect {
	size := a.viewer.Size()
	return geometry.Bounds(a.left, a.top, float64(size.X), float64(size.Y))
}

// Engine returns the tool state machine
func (a *Annotator) Engine() *engine.Engine { return a.engine }

// Scene returns the live annotation scene
func (a *Annotator) Scene() *scene.Scene { return a.scene }

// Capture returns the input surface
func (a *Annotator) Capture() *capture.Surface { return a.capture }

// Viewer returns the document page column
func (a *Annotator) Viewer() *document.Viewer { return a.viewer }

// Exporter returns the PDF exporter
func (a *Annotator) Exporter() *export.Exporter { return a.exporter }

// Overlay returns the current annotation layer bitmap
func (a *Annotator) Overlay() image.Image { return a.layer.Image() }

// ScrollTo records the on-screen position of the top-left corner of the
// document surface
func (a *Annotator) ScrollTo(left, top float64) {
	a.left, a.top = left, top
}

// Handle feeds one input event through the capture surface
func (a *Annotator) Handle(ev capture.RawEvent) capture.Result {
	return a.capture.Handle(ev)
}

// SetTool activates a tool. Uncommitted work is dropped from the overlay.
func (a *Annotator) SetTool(t types.Tool) {
	a.engine.SetTool(t)
	a.capture.Redraw()
}

// SetColor changes the color used from the next press on
func (a *Annotator) SetColor(c types.Color) {
	a.engine.SetColor(c)
}

// SaveComment saves the pending comment with text and draws it
func (a *Annotator) SaveComment(text string) bool {
	return a.redrawIf(a.engine.SaveCommentText(text))
}

// CancelComment discards the pending comment
func (a *Annotator) CancelComment() bool {
	return a.redrawIf(a.engine.CancelComment())
}

// DismissComment deletes a saved or pending comment by ID
func (a *Annotator) DismissComment(id string) bool {
	return a.redrawIf(a.engine.DismissComment(id))
}

// ClearAll removes every annotation and blanks the overlay
func (a *Annotator) ClearAll() {
	a.engine.ClearAll()
	a.capture.Redraw()
}

// Resize changes the overlay size to match the host container
func (a *Annotator) Resize(width, height int) {
	a.capture.Resize(width, height)
	a.capture.Redraw()
}

func (a *Annotator) redrawIf(changed bool) bool {
	if changed {
		a.capture.Redraw()
	}
	return changed
}

// Export flattens the document and a snapshot of the current annotations
// into a PDF
func (a *Annotator) Export(ctx context.Context) (*export.Document, error) {
	return a.exporter.Export(ctx, a.surface())
}

// ExportToDir exports and writes the document into dir
func (a *Annotator) ExportToDir(ctx context.Context, dir string) (string, error) {
	doc, err := a.Export(ctx)
	if err != nil {
		return "", err
	}
	return export.WriteFile(doc, dir)
}

// Snapshot writes the flattened surface as an image
func (a *Annotator) Snapshot(ctx context.Context, path, format string) error {
	return a.exporter.Snapshot(ctx, a.surface(), path, format)
}

// surface captures the scene as it is now; pending comments stay hidden
func (a *Annotator) surface() *render.Surface {
	return render.NewSurface(a.viewer, a.scene.Clone())
}

// Close detaches the capture surface and releases the overlay
func (a *Annotator) Close() {
	a.capture.Unmount()
}
