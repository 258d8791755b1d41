// Package engine implements the annotation tool state machine.
//
// The engine turns press/move/release input (already mapped to document
// coordinates) into annotation objects in a scene. It is the only writer
// of the scene during interactive editing and is driven from a single
// goroutine; no method blocks and no timers are started.
package engine

import (
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"seehuhn.de/go/geom/vec"

	"github.com/menta2k/doc-annotator/pkg/scene"
	"github.com/menta2k/doc-annotator/pkg/types"
)

// State is the drawing lifecycle state
type State int

const (
	StateIdle State = iota
	StateDrawingShape
	StateEditingComment
	StateDrawingSignature
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawingShape:
		return "drawing-shape"
	case StateEditingComment:
		return "editing-comment"
	case StateDrawingSignature:
		return "drawing-signature"
	}
	return "unknown"
}

// Config holds the per-tool drawing constants
type Config struct {
	HighlightHeight  float64
	UnderlineHeight  float64
	HighlightOpacity float64
	UnderlineOpacity float64
	// MinWidth is the smallest width a committed shape can have
	MinWidth       float64
	SignatureWidth float64
	// SelectionGrace delays re-enabling object selection after a drag ends
	SelectionGrace time.Duration
	// DiscardDegenerate drops shapes whose drag never passed MinWidth
	// instead of committing them at MinWidth
	DiscardDegenerate bool
}

// DefaultConfig returns the stock tool constants
func DefaultConfig() Config {
	return Config{
		HighlightHeight:  20,
		UnderlineHeight:  2,
		HighlightOpacity: 0.3,
		UnderlineOpacity: 1,
		MinWidth:         5,
		SignatureWidth:   2,
		SelectionGrace:   100 * time.Millisecond,
	}
}

// Engine is the tool state machine
type Engine struct {
	config Config
	scene  *scene.Scene
	logger *zap.Logger
	now    func() time.Time

	tool  types.Tool
	color types.Color
	state State

	// activeID is the shape being dragged or the comment being edited
	activeID string
	moved    bool
	draft    string
	path     []vec.Vec2
	pathCol  types.Color

	reenableAt time.Time
}

// New creates an engine with default configuration
func New(s *scene.Scene) *Engine {
	return NewWithConfig(s, DefaultConfig())
}

// NewWithConfig creates an engine with custom tool constants
func NewWithConfig(s *scene.Scene, config Config) *Engine {
	if s == nil {
		s = scene.New()
	}
	e := &Engine{
		config: config,
		scene:  s,
		logger: zap.NewNop(),
		now:    time.Now,
		tool:   types.ToolSelect,
		color:  types.Yellow,
	}
	s.SetSelectable(true)
	return e
}

// SetLogger replaces the engine's logger
func (e *Engine) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.logger = logger
}

// SetClock replaces the time source used for the selection grace delay
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Scene returns the scene the engine writes to
func (e *Engine) Scene() *scene.Scene { return e.scene }

// Config returns the engine's tool constants
func (e *Engine) Config() Config { return e.config }

// Tool returns the active tool
func (e *Engine) Tool() types.Tool { return e.tool }

// Color returns the active color
func (e *Engine) Color() types.Color { return e.color }

// State returns the current lifecycle state
func (e *Engine) State() State { return e.state }

// SetTool activates a tool. Any uncommitted drawing or pending comment is
// discarded and the engine returns to idle.
func (e *Engine) SetTool(t types.Tool) {
	e.discard()
	e.tool = t
	e.reenableAt = time.Time{}
	e.scene.SetSelectable(t == types.ToolSelect)
	e.logger.Debug("tool selected", zap.Stringer("tool", t))
}

// SetColor changes the active color. Annotations already in progress keep
// the color they were started with.
func (e *Engine) SetColor(c types.Color) {
	e.color = c
	e.logger.Debug("color selected", zap.Stringer("color", c))
}

// PointerDown handles a press at document coordinates p. It reports
// whether the press started an annotation.
func (e *Engine) PointerDown(p vec.Vec2) bool {
	e.settle()
	if e.state != StateIdle {
		return false
	}

	if e.tool == types.ToolSelect {
		e.scene.SetSelectable(true)
		return false
	}
	e.scene.SetSelectable(false)
	e.reenableAt = time.Time{}

	switch e.tool {
	case types.ToolHighlight, types.ToolUnderline:
		return e.startShape(p)
	case types.ToolComment:
		return e.placeComment(p)
	case types.ToolSignature:
		e.path = []vec.Vec2{p}
		e.pathCol = e.color
		e.state = StateDrawingSignature
		e.logger.Debug("signature started", zap.Float64("x", p.X), zap.Float64("y", p.Y))
		return true
	}
	return false
}

func (e *Engine) startShape(p vec.Vec2) bool {
	kind, _ := types.ShapeKind(e.tool)
	shape := scene.Shape{
		ID:      scene.NewID(kind),
		Type:    kind,
		Origin:  p,
		Width:   0,
		Height:  e.config.UnderlineHeight,
		Color:   e.color,
		Opacity: e.config.UnderlineOpacity,
	}
	if kind == types.KindHighlight {
		shape.Height = e.config.HighlightHeight
		shape.Opacity = e.config.HighlightOpacity
	}
	if err := e.scene.AddShape(shape); err != nil {
		e.logger.Error("failed to add shape", zap.Error(err))
		return false
	}
	e.activeID = shape.ID
	e.moved = false
	e.state = StateDrawingShape
	e.logger.Debug("shape started",
		zap.String("id", shape.ID),
		zap.Stringer("kind", kind),
		zap.Stringer("color", shape.Color))
	return true
}

func (e *Engine) placeComment(p vec.Vec2) bool {
	c := scene.Comment{ID: scene.NewID(types.KindComment), Position: p}
	if err := e.scene.AddComment(c); err != nil {
		e.logger.Error("failed to add comment", zap.Error(err))
		return false
	}
	e.activeID = c.ID
	e.draft = ""
	e.state = StateEditingComment
	e.logger.Debug("comment placed", zap.String("id", c.ID))
	return true
}

// PointerMove handles pointer motion while a press is active. It reports
// whether an annotation was updated.
func (e *Engine) PointerMove(p vec.Vec2) bool {
	e.settle()
	switch e.state {
	case StateDrawingShape:
		shape, ok := e.scene.Shape(e.activeID)
		if !ok {
			return false
		}
		dx := p.X - shape.Origin.X
		if dx > e.config.MinWidth {
			e.moved = true
		}
		return e.scene.UpdateShapeWidth(e.activeID, math.Max(dx, e.config.MinWidth))
	case StateDrawingSignature:
		e.path = append(e.path, p)
		return true
	}
	return false
}

// PointerUp ends an active drag and commits the annotation. It reports
// whether something was committed.
func (e *Engine) PointerUp() bool {
	e.settle()
	switch e.state {
	case StateDrawingShape:
		return e.commitShape()
	case StateDrawingSignature:
		return e.commitSignature()
	}
	return false
}

func (e *Engine) commitShape() bool {
	id := e.activeID
	e.activeID = ""
	e.state = StateIdle
	e.scheduleReenable()

	shape, ok := e.scene.Shape(id)
	if !ok {
		return false
	}
	if !e.moved && e.config.DiscardDegenerate {
		e.scene.Remove(id)
		e.logger.Debug("degenerate shape discarded", zap.String("id", id))
		return false
	}
	if shape.Width < e.config.MinWidth {
		e.scene.UpdateShapeWidth(id, e.config.MinWidth)
	}
	e.logger.Debug("shape committed", zap.String("id", id))
	return true
}

func (e *Engine) commitSignature() bool {
	st := scene.Stroke{
		ID:     scene.NewID(types.KindSignature),
		Points: e.path,
		Color:  e.pathCol,
		Width:  e.config.SignatureWidth,
	}
	e.path = nil
	e.state = StateIdle
	e.scheduleReenable()
	if err := e.scene.AddStroke(st); err != nil {
		e.logger.Error("failed to add signature", zap.Error(err))
		return false
	}
	e.logger.Debug("signature committed", zap.String("id", st.ID), zap.Int("points", len(st.Points)))
	return true
}

// SetDraft updates the text typed into the pending comment
func (e *Engine) SetDraft(text string) bool {
	if e.state != StateEditingComment {
		return false
	}
	e.draft = text
	return true
}

// Draft returns the text typed into the pending comment
func (e *Engine) Draft() string { return e.draft }

// SaveComment stores the draft text on the pending comment. A draft that
// is empty after trimming discards the comment instead. It reports
// whether a comment was saved.
func (e *Engine) SaveComment() bool {
	if e.state != StateEditingComment {
		return false
	}
	id, text := e.activeID, e.draft
	if strings.TrimSpace(text) == "" {
		e.CancelComment()
		return false
	}
	e.scene.SetCommentText(id, text)
	e.resetComment()
	e.logger.Debug("comment saved", zap.String("id", id), zap.Int("length", len(text)))
	return true
}

// SaveCommentText sets the draft and saves it in one step
func (e *Engine) SaveCommentText(text string) bool {
	if !e.SetDraft(text) {
		return false
	}
	return e.SaveComment()
}

// CancelComment removes the pending comment. It reports whether a comment
// was pending.
func (e *Engine) CancelComment() bool {
	if e.state != StateEditingComment {
		return false
	}
	id := e.activeID
	e.scene.Remove(id)
	e.resetComment()
	e.logger.Debug("comment discarded", zap.String("id", id))
	return true
}

func (e *Engine) resetComment() {
	e.activeID = ""
	e.draft = ""
	e.state = StateIdle
}

// DismissComment deletes a comment from the scene. Dismissing the comment
// currently being edited behaves like CancelComment.
func (e *Engine) DismissComment(id string) bool {
	if e.state == StateEditingComment && id == e.activeID {
		return e.CancelComment()
	}
	if _, ok := e.scene.Comment(id); !ok {
		return false
	}
	e.scene.Remove(id)
	e.logger.Debug("comment dismissed", zap.String("id", id))
	return true
}

// PendingComment returns the comment currently being edited
func (e *Engine) PendingComment() (scene.Comment, bool) {
	if e.state != StateEditingComment {
		return scene.Comment{}, false
	}
	return e.scene.Comment(e.activeID)
}

// ActiveShape returns the shape currently being dragged
func (e *Engine) ActiveShape() (scene.Shape, bool) {
	if e.state != StateDrawingShape {
		return scene.Shape{}, false
	}
	return e.scene.Shape(e.activeID)
}

// LiveStroke returns the signature path being drawn, not yet in the scene
func (e *Engine) LiveStroke() (scene.Stroke, bool) {
	if e.state != StateDrawingSignature {
		return scene.Stroke{}, false
	}
	return scene.Stroke{
		Points: append([]vec.Vec2(nil), e.path...),
		Color:  e.pathCol,
		Width:  e.config.SignatureWidth,
	}, true
}

// Drawing reports whether a press is in progress
func (e *Engine) Drawing() bool {
	return e.state == StateDrawingShape || e.state == StateDrawingSignature
}

// ClearAll empties the scene and returns to idle from any state
func (e *Engine) ClearAll() {
	e.activeID = ""
	e.draft = ""
	e.path = nil
	e.moved = false
	e.state = StateIdle
	e.scene.Clear()
	e.logger.Debug("annotations cleared")
}

// Selectable reports whether object selection is currently enabled
func (e *Engine) Selectable() bool {
	e.settle()
	return e.scene.Selectable()
}

// Tick applies time-based transitions such as the delayed selection
// re-enable. Hosts call it from their event loop.
func (e *Engine) Tick() {
	e.settle()
}

func (e *Engine) scheduleReenable() {
	if e.tool == types.ToolSelect {
		return
	}
	e.reenableAt = e.now().Add(e.config.SelectionGrace)
}

func (e *Engine) settle() {
	if e.reenableAt.IsZero() || e.now().Before(e.reenableAt) {
		return
	}
	e.reenableAt = time.Time{}
	e.scene.SetSelectable(true)
}

// discard drops whatever has not been committed yet
func (e *Engine) discard() {
	switch e.state {
	case StateDrawingShape:
		e.scene.Remove(e.activeID)
		e.logger.Debug("uncommitted shape discarded", zap.String("id", e.activeID))
	case StateEditingComment:
		e.scene.Remove(e.activeID)
		e.logger.Debug("pending comment discarded", zap.String("id", e.activeID))
	case StateDrawingSignature:
		e.logger.Debug("uncommitted signature discarded", zap.Int("points", len(e.path)))
	}
	e.activeID = ""
	e.draft = ""
	e.path = nil
	e.moved = false
	e.state = StateIdle
}
