// Package capture implements the transparent input surface laid over the
// rendered document.
//
// A Surface has one long-lived handler for both pointer and touch events.
// It reads the active tool from the engine at dispatch time, so tool or
// color changes never require handlers to be detached and re-attached.
package capture

import (
	"go.uber.org/zap"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/menta2k/doc-annotator/pkg/engine"
	"github.com/menta2k/doc-annotator/pkg/geometry"
	"github.com/menta2k/doc-annotator/pkg/render"
	"github.com/menta2k/doc-annotator/pkg/scene"
	"github.com/menta2k/doc-annotator/pkg/types"
)

// EventType is the phase of an input event
type EventType int

const (
	EventStart EventType = iota
	EventMove
	EventEnd
)

func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventMove:
		return "move"
	case EventEnd:
		return "end"
	}
	return "unknown"
}

// Source is the input device family an event came from
type Source int

const (
	SourcePointer Source = iota
	SourceTouch
)

func (s Source) String() string {
	if s == SourceTouch {
		return "touch"
	}
	return "pointer"
}

// RawEvent is an input event in screen coordinates
type RawEvent struct {
	Type   EventType
	Source Source
	// Client is the pointer position; ignored for touch events
	Client vec.Vec2
	// Touches holds the active touch points of a touch event
	Touches []vec.Vec2
}

// Result tells the host how an event was consumed
type Result struct {
	// Handled is true when the event changed the annotation state
	Handled bool
	// PreventDefault asks the host to suppress scrolling and gestures
	PreventDefault bool
}

// Mode describes whether the surface intercepts input
type Mode int

const (
	PassThrough Mode = iota
	Intercept
)

func (m Mode) String() string {
	if m == Intercept {
		return "intercept"
	}
	return "pass-through"
}

// BoundsProvider reports the current screen-space box of the surface
type BoundsProvider interface {
	Bounds() rect.Rect
}

// BoundsFunc adapts a function to BoundsProvider
type BoundsFunc func() rect.Rect

func (f BoundsFunc) Bounds() rect.Rect { return f() }

// Surface routes raw input through the coordinate mapper into the engine
type Surface struct {
	engine  *engine.Engine
	bounds  BoundsProvider
	mapper  *geometry.Mapper
	layer   *render.Layer
	logger  *zap.Logger
	mounted bool
	// lastTouch remembers the last touch position; touch end events carry
	// no active touches
	lastTouch vec.Vec2
}

// New creates a surface over the engine. The layer may be nil when the
// host renders the scene itself.
func New(e *engine.Engine, bounds BoundsProvider, layer *render.Layer) *Surface {
	return &Surface{
		engine: e,
		bounds: bounds,
		mapper: geometry.NewMapper(),
		layer:  layer,
		logger: zap.NewNop(),
	}
}

// SetLogger replaces the surface's logger
func (s *Surface) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s.logger = logger
}

// SetZoom sets the display scale used when mapping coordinates
func (s *Surface) SetZoom(zoom float64) {
	s.mapper.Zoom = zoom
}

// Mount starts accepting events
func (s *Surface) Mount() {
	s.mounted = true
	s.logger.Debug("capture surface mounted")
}

// Unmount stops accepting events and releases the drawing layer
func (s *Surface) Unmount() {
	if !s.mounted {
		return
	}
	s.mounted = false
	if s.layer != nil {
		s.layer.Dispose()
	}
	s.logger.Debug("capture surface unmounted")
}

// Mounted reports whether the surface accepts events
func (s *Surface) Mounted() bool { return s.mounted }

// Mode returns pass-through for the select tool and intercept otherwise
func (s *Surface) Mode() Mode {
	if s.engine.Tool().Draws() {
		return Intercept
	}
	return PassThrough
}

// Cursor returns the cursor name to show over the surface
func (s *Surface) Cursor() string {
	if s.Mode() == Intercept {
		return "crosshair"
	}
	return "default"
}

// Resize changes the size of the drawing layer to match the container
func (s *Surface) Resize(width, height int) {
	if s.layer != nil {
		s.layer.Resize(width, height)
	}
}

// Handle dispatches one event. Events are dropped while unmounted.
func (s *Surface) Handle(ev RawEvent) Result {
	if !s.mounted {
		return Result{}
	}

	client, ok := s.position(ev)
	if !ok {
		return Result{}
	}
	// bounds are queried per event since the surface may scroll or resize
	p := s.mapper.Map(client, s.bounds.Bounds())

	tool := s.engine.Tool()
	drawing := s.engine.Drawing()
	var res Result
	switch ev.Type {
	case EventStart:
		res.Handled = s.engine.PointerDown(p)
		res.PreventDefault = ev.Source == SourceTouch && tool != types.ToolSelect
	case EventMove:
		res.Handled = s.engine.PointerMove(p)
		res.PreventDefault = ev.Source == SourceTouch && drawing
	case EventEnd:
		res.Handled = s.engine.PointerUp()
	}

	if res.Handled && s.layer != nil {
		s.redraw()
	}
	if res.Handled {
		s.logger.Debug("input handled",
			zap.Stringer("event", ev.Type),
			zap.Stringer("source", ev.Source),
			zap.Stringer("tool", tool),
			zap.Float64("x", p.X),
			zap.Float64("y", p.Y))
	}
	return res
}

func (s *Surface) position(ev RawEvent) (vec.Vec2, bool) {
	if ev.Source != SourceTouch {
		return ev.Client, true
	}
	if t, ok := geometry.FirstTouch(ev.Touches); ok {
		s.lastTouch = t
		return t, true
	}
	if ev.Type == EventEnd {
		return s.lastTouch, true
	}
	return vec.Vec2{}, false
}

// Redraw re-renders the layer from the current scene
func (s *Surface) Redraw() {
	if s.layer != nil {
		s.redraw()
	}
}

func (s *Surface) redraw() {
	var live []scene.Stroke
	if st, ok := s.engine.LiveStroke(); ok {
		live = append(live, st)
	}
	s.layer.Render(s.engine.Scene(), live...)
}
