package engine

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/geom/vec"

	"github.com/menta2k/doc-annotator/pkg/scene"
	"github.com/menta2k/doc-annotator/pkg/types"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine() (*Engine, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	e := New(scene.New())
	e.SetClock(clock.Now)
	return e, clock
}

func pt(x, y float64) vec.Vec2 { return vec.Vec2{X: x, Y: y} }

func TestNew(t *testing.T) {
	e, _ := newTestEngine()
	if e.Tool() != types.ToolSelect {
		t.Errorf("Expected select tool, got %v", e.Tool())
	}
	if e.Color() != types.Yellow {
		t.Errorf("Expected yellow, got %v", e.Color())
	}
	if e.State() != StateIdle {
		t.Errorf("Expected idle, got %v", e.State())
	}
	if e.config.MinWidth != 5 {
		t.Errorf("Expected min width 5, got %v", e.config.MinWidth)
	}
}

func TestHighlightScenario(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolHighlight)
	e.SetColor(types.Yellow)

	if !e.PointerDown(pt(50, 50)) {
		t.Fatal("PointerDown did not start a shape")
	}
	if e.State() != StateDrawingShape {
		t.Fatalf("Expected drawing-shape, got %v", e.State())
	}
	e.PointerMove(pt(150, 60))
	e.PointerMove(pt(250, 50))
	if !e.PointerUp() {
		t.Fatal("PointerUp did not commit")
	}

	shapes := e.Scene().Shapes()
	if len(shapes) != 1 {
		t.Fatalf("Expected 1 shape, got %d", len(shapes))
	}
	want := scene.Shape{
		Type:    types.KindHighlight,
		Origin:  pt(50, 50),
		Width:   200,
		Height:  20,
		Color:   types.Yellow,
		Opacity: 0.3,
	}
	if diff := cmp.Diff(want, shapes[0], cmpopts.IgnoreFields(scene.Shape{}, "ID")); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	if e.State() != StateIdle {
		t.Errorf("Expected idle after commit, got %v", e.State())
	}
}

func TestUnderlineConstants(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolUnderline)
	e.SetColor(types.Red)
	e.PointerDown(pt(10, 10))
	e.PointerMove(pt(60, 90))
	e.PointerUp()

	s := e.Scene().Shapes()[0]
	if s.Type != types.KindUnderline || s.Height != 2 || s.Opacity != 1 {
		t.Errorf("Unexpected underline %+v", s)
	}
	if s.Origin != pt(10, 10) {
		t.Errorf("Origin must not follow the pointer, got %v", s.Origin)
	}
}

func TestMinimumWidth(t *testing.T) {
	tests := []struct {
		name  string
		moves []vec.Vec2
		width float64
	}{
		{"no motion", nil, 5},
		{"backwards", []vec.Vec2{pt(10, 50)}, 5},
		{"tiny", []vec.Vec2{pt(52, 50)}, 5},
		{"exact", []vec.Vec2{pt(55, 50)}, 5},
		{"wide", []vec.Vec2{pt(80, 50)}, 30},
	}

	for _, test := range tests {
		e, _ := newTestEngine()
		e.SetTool(types.ToolHighlight)
		e.PointerDown(pt(50, 50))
		for _, m := range test.moves {
			e.PointerMove(m)
		}
		e.PointerUp()
		shapes := e.Scene().Shapes()
		if len(shapes) != 1 {
			t.Fatalf("%s: expected 1 shape, got %d", test.name, len(shapes))
		}
		if shapes[0].Width != test.width {
			t.Errorf("%s: expected width %v, got %v", test.name, test.width, shapes[0].Width)
		}
	}
}

func TestDiscardDegenerate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DiscardDegenerate = true
	e := NewWithConfig(scene.New(), cfg)
	e.SetTool(types.ToolHighlight)
	e.PointerDown(pt(50, 50))
	e.PointerMove(pt(52, 50))
	if e.PointerUp() {
		t.Error("Expected degenerate drag not to commit")
	}
	if e.Scene().Len() != 0 {
		t.Errorf("Expected empty scene, got %d", e.Scene().Len())
	}

	e.PointerDown(pt(50, 50))
	e.PointerMove(pt(90, 50))
	if !e.PointerUp() {
		t.Error("Expected real drag to commit")
	}
}

func TestColorCapturedAtPress(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolHighlight)
	e.SetColor(types.Green)
	e.PointerDown(pt(0, 0))
	e.SetColor(types.Blue)
	e.PointerMove(pt(100, 0))
	e.PointerUp()

	if got := e.Scene().Shapes()[0].Color; got != types.Green {
		t.Errorf("Expected green, got %v", got)
	}
	if e.Color() != types.Blue {
		t.Errorf("Expected active color blue, got %v", e.Color())
	}
}

func TestToolSwitchDiscardsInProgress(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolHighlight)
	e.PointerDown(pt(0, 0))
	e.PointerMove(pt(40, 0))
	e.PointerUp()

	e.PointerDown(pt(0, 100))
	e.PointerMove(pt(80, 100))
	e.SetTool(types.ToolUnderline)

	shapes := e.Scene().Shapes()
	if len(shapes) != 1 {
		t.Fatalf("Expected only the committed shape, got %d", len(shapes))
	}
	if shapes[0].Width != 40 {
		t.Errorf("Committed shape changed: %+v", shapes[0])
	}
	if e.State() != StateIdle {
		t.Errorf("Expected idle, got %v", e.State())
	}
	if e.PointerMove(pt(120, 100)) {
		t.Error("Move after tool switch should be ignored")
	}
	if e.PointerUp() {
		t.Error("Release after tool switch should not commit")
	}
}

func TestToolSwitchDiscardsSignatureAndComment(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolSignature)
	e.PointerDown(pt(0, 0))
	e.PointerMove(pt(5, 5))
	e.SetTool(types.ToolComment)
	if e.Scene().Len() != 0 {
		t.Errorf("Expected uncommitted signature to be dropped, got %d items", e.Scene().Len())
	}

	e.PointerDown(pt(10, 10))
	e.SetDraft("half typed")
	e.SetTool(types.ToolSelect)
	if e.Scene().Len() != 0 {
		t.Errorf("Expected pending comment to be dropped, got %d items", e.Scene().Len())
	}
}

func TestSelectToolTogglesSelection(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolHighlight)
	if e.Selectable() {
		t.Error("Expected selection disabled for drawing tool")
	}
	e.SetTool(types.ToolSelect)
	if !e.Selectable() {
		t.Error("Expected selection enabled for select tool")
	}
	if e.PointerDown(pt(10, 10)) {
		t.Error("Select tool should not start drawing")
	}
	if e.State() != StateIdle || e.Scene().Len() != 0 {
		t.Error("Select tool press must not change the scene")
	}
}

func TestSelectionGraceDelay(t *testing.T) {
	e, clock := newTestEngine()
	e.SetTool(types.ToolHighlight)
	e.PointerDown(pt(0, 0))
	e.PointerMove(pt(50, 0))
	e.PointerUp()

	if e.Selectable() {
		t.Error("Selection must stay disabled right after the drag ends")
	}
	clock.Advance(50 * time.Millisecond)
	if e.Selectable() {
		t.Error("Selection must stay disabled inside the grace period")
	}
	clock.Advance(50 * time.Millisecond)
	e.Tick()
	if !e.Scene().Selectable() {
		t.Error("Expected selection re-enabled after the grace period")
	}

	e.PointerDown(pt(0, 40))
	if e.Scene().Selectable() {
		t.Error("Expected new press to disable selection again")
	}
}

func TestCommentScenario(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolComment)
	if !e.PointerDown(pt(80, 120)) {
		t.Fatal("PointerDown did not place a comment")
	}
	if e.State() != StateEditingComment {
		t.Fatalf("Expected editing-comment, got %v", e.State())
	}
	pending, ok := e.PendingComment()
	if !ok || !pending.Pending() {
		t.Fatal("Expected a pending comment")
	}
	if e.PointerMove(pt(90, 130)) {
		t.Error("Comments are placed, not dragged")
	}

	if !e.SaveCommentText("Needs revision") {
		t.Fatal("SaveCommentText failed")
	}
	comments := e.Scene().Comments()
	want := []scene.Comment{{Position: pt(80, 120), Text: "Needs revision"}}
	if diff := cmp.Diff(want, comments, cmpopts.IgnoreFields(scene.Comment{}, "ID")); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}
	if e.State() != StateIdle {
		t.Errorf("Expected idle, got %v", e.State())
	}
}

func TestWhitespaceCommentNeverPersists(t *testing.T) {
	for _, text := range []string{"", " ", "\t\n", "   \r\n "} {
		e, _ := newTestEngine()
		e.SetTool(types.ToolComment)
		e.PointerDown(pt(1, 1))
		e.SetDraft(text)
		if e.SaveComment() {
			t.Errorf("Save of %q should not succeed", text)
		}
		if n := len(e.Scene().Comments()); n != 0 {
			t.Errorf("Expected no comments after saving %q, got %d", text, n)
		}
		if e.State() != StateIdle {
			t.Errorf("Expected idle, got %v", e.State())
		}
	}
}

func TestCancelComment(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolComment)
	e.PointerDown(pt(1, 1))
	e.SetDraft("draft")
	if !e.CancelComment() {
		t.Fatal("CancelComment returned false")
	}
	if e.Scene().Len() != 0 {
		t.Errorf("Expected pending comment removed, got %d", e.Scene().Len())
	}
	if e.Draft() != "" {
		t.Errorf("Expected draft reset, got %q", e.Draft())
	}
}

func TestInvalidTransitionsAreNoOps(t *testing.T) {
	e, _ := newTestEngine()
	if e.SaveComment() || e.CancelComment() || e.SetDraft("x") {
		t.Error("Comment actions without a pending comment must be no-ops")
	}
	if e.PointerMove(pt(1, 1)) || e.PointerUp() {
		t.Error("Move/release while idle must be no-ops")
	}
	if e.DismissComment("missing") {
		t.Error("Dismissing an unknown comment must be a no-op")
	}
	if e.State() != StateIdle || e.Scene().Len() != 0 {
		t.Error("No-op actions changed the engine")
	}
}

func TestPressWhileEditingIgnored(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolComment)
	e.PointerDown(pt(1, 1))
	if e.PointerDown(pt(2, 2)) {
		t.Error("Expected second press during edit to be ignored")
	}
	if n := len(e.Scene().Comments()); n != 1 {
		t.Errorf("Expected one pending comment, got %d", n)
	}
}

func TestDismissComment(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolComment)
	e.PointerDown(pt(1, 1))
	e.SaveCommentText("first")
	id := e.Scene().Comments()[0].ID

	e.PointerDown(pt(5, 5))
	e.SaveCommentText("second")

	if !e.DismissComment(id) {
		t.Fatal("DismissComment returned false")
	}
	comments := e.Scene().Comments()
	if len(comments) != 1 || comments[0].Text != "second" {
		t.Errorf("Unexpected comments %+v", comments)
	}
}

func TestSignature(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolSignature)
	e.SetColor(types.Blue)
	e.PointerDown(pt(10, 10))
	e.PointerMove(pt(12, 14))
	e.PointerMove(pt(20, 18))

	live, ok := e.LiveStroke()
	if !ok || len(live.Points) != 3 {
		t.Fatalf("Expected live stroke with 3 points, got %v", live.Points)
	}
	if e.Scene().Len() != 0 {
		t.Error("Stroke must not be in the scene before release")
	}

	if !e.PointerUp() {
		t.Fatal("PointerUp did not commit the signature")
	}
	strokes := e.Scene().Strokes()
	if len(strokes) != 1 {
		t.Fatalf("Expected 1 stroke, got %d", len(strokes))
	}
	want := []vec.Vec2{pt(10, 10), pt(12, 14), pt(20, 18)}
	if diff := cmp.Diff(want, strokes[0].Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	if strokes[0].Color != types.Blue {
		t.Errorf("Expected blue stroke, got %v", strokes[0].Color)
	}
}

func TestClearAllIdempotent(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolHighlight)
	e.PointerDown(pt(0, 0))
	e.PointerMove(pt(30, 0))
	e.PointerUp()
	e.SetTool(types.ToolComment)
	e.PointerDown(pt(3, 3))

	for i := 0; i < 2; i++ {
		e.ClearAll()
		if e.Scene().Len() != 0 {
			t.Errorf("Clear %d: expected empty scene, got %d", i+1, e.Scene().Len())
		}
		if e.State() != StateIdle {
			t.Errorf("Clear %d: expected idle, got %v", i+1, e.State())
		}
	}
}

func TestClearAllDuringDrag(t *testing.T) {
	e, _ := newTestEngine()
	e.SetTool(types.ToolHighlight)
	e.PointerDown(pt(0, 0))
	e.ClearAll()
	if e.PointerUp() {
		t.Error("Release after clear must not commit")
	}
	if e.Scene().Len() != 0 {
		t.Errorf("Expected empty scene, got %d", e.Scene().Len())
	}
}

func BenchmarkDrag(b *testing.B) {
	e := New(scene.New())
	e.SetTool(types.ToolHighlight)
	for i := 0; i < b.N; i++ {
		e.PointerDown(pt(0, float64(i)))
		for x := 0; x < 20; x++ {
			e.PointerMove(pt(float64(x*10), float64(i)))
		}
		e.PointerUp()
	}
}
