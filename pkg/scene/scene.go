// Package scene holds the ordered collection of annotation objects.
//
// The scene is a pure data model: it owns no drawing surface and exposes
// explicit mutation operations. Accessors hand out copies so callers can
// never modify an annotation behind the scene's back.
package scene

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"seehuhn.de/go/geom/vec"

	"github.com/menta2k/doc-annotator/pkg/types"
)

// Annotation is implemented by Shape, Comment and Stroke
type Annotation interface {
	AnnotationID() string
	Kind() types.Kind
}

// Shape is a highlight or underline rectangle
type Shape struct {
	ID      string
	Type    types.Kind
	Origin  vec.Vec2
	Width   float64
	Height  float64
	Color   types.Color
	Opacity float64
}

func (s Shape) AnnotationID() string { return s.ID }
func (s Shape) Kind() types.Kind     { return s.Type }

// Comment is a text note placed at a document position
type Comment struct {
	ID       string
	Position vec.Vec2
	Text     string
}

func (c Comment) AnnotationID() string { return c.ID }
func (c Comment) Kind() types.Kind     { return types.KindComment }

// Pending reports whether the comment has no visible text yet
func (c Comment) Pending() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Stroke is a freehand signature path
type Stroke struct {
	ID     string
	Points []vec.Vec2
	Color  types.Color
	Width  float64
}

func (s Stroke) AnnotationID() string { return s.ID }
func (s Stroke) Kind() types.Kind     { return types.KindSignature }

// Scene is an ordered set of annotations keyed by id. Insertion order is
// the rendering z-order. A Scene is not safe for concurrent mutation.
type Scene struct {
	order      []string
	items      map[string]Annotation
	selectable bool
}

// New creates an empty scene with object selection enabled
func New() *Scene {
	return &Scene{
		items:      make(map[string]Annotation),
		selectable: true,
	}
}

// NewID returns a fresh identifier for an annotation of the given kind
func NewID(kind types.Kind) string {
	prefix := "shape"
	switch kind {
	case types.KindComment:
		prefix = "comment"
	case types.KindSignature:
		prefix = "stroke"
	}
	return prefix + "-" + uuid.NewString()
}

func (s *Scene) add(a Annotation) error {
	id := a.AnnotationID()
	if id == "" {
		return fmt.Errorf("annotation has no id")
	}
	if _, exists := s.items[id]; exists {
		return fmt.Errorf("duplicate annotation id: %s", id)
	}
	s.items[id] = a
	s.order = append(s.order, id)
	return nil
}

// AddShape appends a shape; negative dimensions are clamped to zero
func (s *Scene) AddShape(shape Shape) error {
	if shape.Width < 0 {
		shape.Width = 0
	}
	if shape.Height < 0 {
		shape.Height = 0
	}
	return s.add(shape)
}

// UpdateShapeWidth changes the width of an existing shape. Origin and
// height are left untouched.
func (s *Scene) UpdateShapeWidth(id string, width float64) bool {
	shape, ok := s.items[id].(Shape)
	if !ok {
		return false
	}
	if width < 0 {
		width = 0
	}
	shape.Width = width
	s.items[id] = shape
	return true
}

// AddComment appends a comment
func (s *Scene) AddComment(c Comment) error {
	return s.add(c)
}

// SetCommentText replaces the text of an existing comment
func (s *Scene) SetCommentText(id, text string) bool {
	c, ok := s.items[id].(Comment)
	if !ok {
		return false
	}
	c.Text = text
	s.items[id] = c
	return true
}

// AddStroke appends a signature stroke; the point slice is copied
func (s *Scene) AddStroke(st Stroke) error {
	st.Points = append([]vec.Vec2(nil), st.Points...)
	return s.add(st)
}

// Remove deletes an annotation; it reports whether anything was removed
func (s *Scene) Remove(id string) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear releases every annotation
func (s *Scene) Clear() {
	s.order = nil
	s.items = make(map[string]Annotation)
}

// Len returns the number of annotations
func (s *Scene) Len() int {
	return len(s.order)
}

// Get returns a copy of the annotation with the given id
func (s *Scene) Get(id string) (Annotation, bool) {
	a, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return clone(a), true
}

// Shape returns the shape with the given id
func (s *Scene) Shape(id string) (Shape, bool) {
	shape, ok := s.items[id].(Shape)
	return shape, ok
}

// Comment returns the comment with the given id
func (s *Scene) Comment(id string) (Comment, bool) {
	c, ok := s.items[id].(Comment)
	return c, ok
}

// All returns copies of all annotations in z-order
func (s *Scene) All() []Annotation {
	out := make([]Annotation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.items[id]))
	}
	return out
}

// Shapes returns all shapes in z-order
func (s *Scene) Shapes() []Shape {
	var out []Shape
	for _, id := range s.order {
		if shape, ok := s.items[id].(Shape); ok {
			out = append(out, shape)
		}
	}
	return out
}

// Comments returns all comments in z-order, including pending ones
func (s *Scene) Comments() []Comment {
	var out []Comment
	for _, id := range s.order {
		if c, ok := s.items[id].(Comment); ok {
			out = append(out, c)
		}
	}
	return out
}

// Strokes returns all signature strokes in z-order
func (s *Scene) Strokes() []Stroke {
	var out []Stroke
	for _, id := range s.order {
		if st, ok := s.items[id].(Stroke); ok {
			out = append(out, clone(st).(Stroke))
		}
	}
	return out
}

// Clone returns an independent copy of the scene
func (s *Scene) Clone() *Scene {
	c := &Scene{
		order:      append([]string(nil), s.order...),
		items:      make(map[string]Annotation, len(s.items)),
		selectable: s.selectable,
	}
	for id, a := range s.items {
		c.items[id] = clone(a)
	}
	return c
}

// SetSelectable toggles object-level selection for every annotation
func (s *Scene) SetSelectable(on bool) {
	s.selectable = on
}

// Selectable reports whether annotations may be selected and moved
func (s *Scene) Selectable() bool {
	return s.selectable
}

func clone(a Annotation) Annotation {
	if st, ok := a.(Stroke); ok {
		st.Points = append([]vec.Vec2(nil), st.Points...)
		return st
	}
	return a
}
