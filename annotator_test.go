package annotator

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/geom/vec"

	"github.com/menta2k/doc-annotator/internal/config"
	"github.com/menta2k/doc-annotator/pkg/capture"
	"github.com/menta2k/doc-annotator/pkg/document"
	"github.com/menta2k/doc-annotator/pkg/export"
	"github.com/menta2k/doc-annotator/pkg/scene"
	"github.com/menta2k/doc-annotator/pkg/types"
)

// createTestImage creates a plain page bitmap
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{250, 250, 245, 255})
		}
	}
	return img
}

func press(a *Annotator, typ capture.EventType, x, y float64) capture.Result {
	return a.Handle(capture.RawEvent{Type: typ, Source: capture.SourcePointer, Client: vec.Vec2{X: x, Y: y}})
}

func TestNew(t *testing.T) {
	a, err := New([]image.Image{createTestImage(400, 600)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if a.Engine().Tool() != types.ToolSelect {
		t.Errorf("Expected select tool, got %s", a.Engine().Tool())
	}
	if a.Engine().Color() != types.Yellow {
		t.Errorf("Expected yellow, got %s", a.Engine().Color())
	}
	if b := a.Overlay().Bounds(); b.Dx() != 800 || b.Dy() != 1200 {
		t.Errorf("Expected overlay 800x1200, got %v", b)
	}
	if !a.Capture().Mounted() {
		t.Error("Expected capture surface to be mounted")
	}
}

func TestNewWithoutPages(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, document.ErrNoPages) {
		t.Errorf("Expected ErrNoPages, got %v", err)
	}
}

func TestAnnotateScenario(t *testing.T) {
	a, err := New([]image.Image{createTestImage(400, 600)})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	a.ScrollTo(20, 100)

	a.SetTool(types.ToolHighlight)
	press(a, capture.EventStart, 70, 150)
	press(a, capture.EventMove, 270, 150)
	press(a, capture.EventEnd, 270, 150)

	a.SetTool(types.ToolComment)
	press(a, capture.EventStart, 100, 220)
	if !a.SaveComment("Needs revision") {
		t.Fatal("Expected comment to be saved")
	}

	want := []scene.Annotation{
		scene.Shape{
			Type:    types.KindHighlight,
			Origin:  vec.Vec2{X: 50, Y: 50},
			Width:   200,
			Height:  20,
			Color:   types.Yellow,
			Opacity: 0.3,
		},
		scene.Comment{Position: vec.Vec2{X: 80, Y: 120}, Text: "Needs revision"},
	}
	opts := cmpopts.IgnoreFields(scene.Shape{}, "ID")
	commentOpts := cmpopts.IgnoreFields(scene.Comment{}, "ID")
	if diff := cmp.Diff(want, a.Scene().All(), opts, commentOpts); diff != "" {
		t.Errorf("Scene mismatch (-want +got):\n%s", diff)
	}

	doc, err := a.Export(context.Background())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	// 800x1200 at 2x is 1600x2400, 315mm tall on A4
	if doc.Pages != 2 {
		t.Errorf("Expected 2 pages, got %d", doc.Pages)
	}
	if a.Scene().Len() != 2 {
		t.Errorf("Export should not change the scene, got %d annotations", a.Scene().Len())
	}
}

func alphaAt(a *Annotator, x, y int) uint8 {
	return a.Overlay().(*image.NRGBA).NRGBAAt(x, y).A
}

func TestOverlayFollowsEngine(t *testing.T) {
	a, err := New([]image.Image{createTestImage(400, 600)})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	a.SetTool(types.ToolComment)
	press(a, capture.EventStart, 80, 120)
	if alphaAt(a, 85, 125) != 0 {
		t.Error("Pending comment should not be drawn")
	}
	if !a.SaveComment("Needs revision") {
		t.Fatal("Expected comment to be saved")
	}
	if alphaAt(a, 85, 125) == 0 {
		t.Error("Expected saved comment on the overlay")
	}

	// switching tools mid-drag drops the provisional highlight
	a.SetTool(types.ToolHighlight)
	press(a, capture.EventStart, 50, 400)
	press(a, capture.EventMove, 250, 400)
	if alphaAt(a, 100, 405) == 0 {
		t.Fatal("Expected provisional highlight on the overlay")
	}
	a.SetTool(types.ToolSelect)
	if alphaAt(a, 100, 405) != 0 {
		t.Error("Expected provisional highlight to be erased after tool switch")
	}
	if len(a.Scene().Shapes()) != 0 {
		t.Errorf("Expected no shapes, got %+v", a.Scene().Shapes())
	}

	a.SetTool(types.ToolHighlight)
	press(a, capture.EventStart, 50, 400)
	press(a, capture.EventMove, 250, 400)
	press(a, capture.EventEnd, 250, 400)
	a.ClearAll()
	if a.Scene().Len() != 0 {
		t.Errorf("Expected empty scene, got %d annotations", a.Scene().Len())
	}
	if alphaAt(a, 100, 405) != 0 || alphaAt(a, 85, 125) != 0 {
		t.Error("Expected blank overlay after ClearAll")
	}
}

func TestDismissCommentAndResize(t *testing.T) {
	a, err := New([]image.Image{createTestImage(400, 600)})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	a.SetTool(types.ToolComment)
	press(a, capture.EventStart, 80, 120)
	a.SaveComment("First")
	press(a, capture.EventStart, 300, 500)
	if !a.CancelComment() {
		t.Error("Expected pending comment to be cancelled")
	}

	comments := a.Scene().Comments()
	if len(comments) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(comments))
	}
	if !a.DismissComment(comments[0].ID) {
		t.Fatal("Expected comment to be dismissed")
	}
	if a.DismissComment(comments[0].ID) {
		t.Error("Dismissing twice should report false")
	}
	if alphaAt(a, 85, 125) != 0 {
		t.Error("Expected dismissed comment to be erased")
	}

	a.SetTool(types.ToolHighlight)
	press(a, capture.EventStart, 50, 50)
	press(a, capture.EventMove, 250, 50)
	press(a, capture.EventEnd, 250, 50)

	a.Resize(600, 300)
	if b := a.Overlay().Bounds(); b.Dx() != 600 || b.Dy() != 300 {
		t.Errorf("Expected 600x300 overlay, got %v", b)
	}
	if alphaAt(a, 100, 55) == 0 {
		t.Error("Expected highlight to be redrawn after resize")
	}
}

func TestExportThreePages(t *testing.T) {
	opts := DefaultOptions()
	opts.Export.Oversample = 1
	opts.Export.PageFormat = export.PageFormat{Name: "strip", Width: 80, Height: 100}

	// one 400x1500 page lays out as an 800x3000 surface
	a, err := NewWithConfig([]image.Image{createTestImage(400, 1500)}, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	dir := t.TempDir()
	path, err := a.ExportToDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ExportToDir failed: %v", err)
	}
	if filepath.Base(path) != "annotated-document.pdf" {
		t.Errorf("Unexpected output path %s", path)
	}

	doc, err := a.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Pages != 3 {
		t.Errorf("Expected 3 pages, got %d", doc.Pages)
	}
}

func TestSnapshot(t *testing.T) {
	a, err := New([]image.Image{createTestImage(100, 100)})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	path := filepath.Join(t.TempDir(), "preview.jpg")
	if err := a.Snapshot(context.Background(), path, "jpg"); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected snapshot file: %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	c := config.Default()
	c.Engine.DefaultTool = "underline"
	c.Engine.DefaultColor = "pink"
	c.Engine.SelectionGraceMS = 250
	c.Export.PageFormat = "letter"

	opts, err := OptionsFromConfig(c)
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	if opts.DefaultTool != types.ToolUnderline || opts.DefaultColor != types.Pink {
		t.Errorf("Unexpected defaults %s/%s", opts.DefaultTool, opts.DefaultColor)
	}
	if opts.Engine.SelectionGrace.Milliseconds() != 250 {
		t.Errorf("Expected 250ms grace, got %v", opts.Engine.SelectionGrace)
	}
	if opts.Export.PageFormat != export.Letter {
		t.Errorf("Expected Letter, got %v", opts.Export.PageFormat)
	}

	c.Export.PageFormat = "custom"
	c.Export.PageWidthMM = 100
	c.Export.PageHeightMM = 150
	opts, err = OptionsFromConfig(c)
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	if opts.Export.PageFormat.Width != 100 || opts.Export.PageFormat.Height != 150 {
		t.Errorf("Unexpected custom format %v", opts.Export.PageFormat)
	}

	for name, mutate := range map[string]func(*config.Config){
		"unknown format": func(c *config.Config) { c.Export.PageFormat = "B5" },
		"unknown tool":   func(c *config.Config) { c.Engine.DefaultTool = "eraser" },
		"unknown color":  func(c *config.Config) { c.Engine.DefaultColor = "teal" },
		"invalid":        func(c *config.Config) { c.Output.Quality = 0 },
	} {
		bad := config.Default()
		mutate(bad)
		if _, err := OptionsFromConfig(bad); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
