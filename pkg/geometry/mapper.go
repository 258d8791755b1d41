// Package geometry converts raw input positions into document-local coordinates.
//
// Bounds are given as a rect.Rect in screen space where LLx/LLy hold the
// left/top corner of the capture surface and URx/URy the right/bottom corner.
package geometry

import (
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Map translates a client position into coordinates relative to the
// top-left corner of bounds
func Map(client vec.Vec2, bounds rect.Rect) vec.Vec2 {
	return client.Sub(vec.Vec2{X: bounds.LLx, Y: bounds.LLy})
}

// Mapper maps client positions while honouring a zoom scale
type Mapper struct {
	// Zoom is the display scale of the document; values <= 0 mean 1
	Zoom float64
}

// NewMapper creates a mapper without zoom
func NewMapper() *Mapper {
	return &Mapper{Zoom: 1}
}

// Map returns document coordinates for a client position. It must be
// called with freshly queried bounds for every event.
func (m *Mapper) Map(client vec.Vec2, bounds rect.Rect) vec.Vec2 {
	p := Map(client, bounds)
	z := m.scale()
	if z == 1 {
		return p
	}
	return vec.Vec2{X: p.X / z, Y: p.Y / z}
}

func (m *Mapper) scale() float64 {
	if m == nil || m.Zoom <= 0 {
		return 1
	}
	return m.Zoom
}

// FirstTouch returns the first active touch point
func FirstTouch(touches []vec.Vec2) (vec.Vec2, bool) {
	if len(touches) == 0 {
		return vec.Vec2{}, false
	}
	return touches[0], true
}

// Bounds builds a screen-space rectangle from position and size
func Bounds(left, top, width, height float64) rect.Rect {
	return rect.Rect{LLx: left, LLy: top, URx: left + width, URy: top + height}
}
