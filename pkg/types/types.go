package types

import (
	"fmt"
	"image/color"
	"strings"
)

// Tool is the interaction mode that decides how input is interpreted
type Tool int

const (
	ToolSelect Tool = iota
	ToolHighlight
	ToolUnderline
	ToolComment
	ToolSignature
)

var toolNames = [...]string{"select", "highlight", "underline", "comment", "signature"}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("Tool(%d)", int(t))
	}
	return toolNames[t]
}

// Draws reports whether the tool creates annotations from pointer input
func (t Tool) Draws() bool {
	return t != ToolSelect
}

// ParseTool converts a tool name into a Tool
func ParseTool(name string) (Tool, error) {
	for i, n := range toolNames {
		if strings.EqualFold(name, n) {
			return Tool(i), nil
		}
	}
	return ToolSelect, fmt.Errorf("unknown tool: %q", name)
}

// Tools returns every tool in toolbar order
func Tools() []Tool {
	return []Tool{ToolSelect, ToolHighlight, ToolUnderline, ToolComment, ToolSignature}
}

// Color is one entry of the fixed annotation palette
type Color int

const (
	Yellow Color = iota
	Green
	Blue
	Pink
	Red
)

type paletteEntry struct {
	name string
	hex  string
	rgba color.NRGBA
}

var palette = [...]paletteEntry{
	{"yellow", "#FFD700", color.NRGBA{0xFF, 0xD7, 0x00, 0xFF}},
	{"green", "#00FF00", color.NRGBA{0x00, 0xFF, 0x00, 0xFF}},
	{"blue", "#0000FF", color.NRGBA{0x00, 0x00, 0xFF, 0xFF}},
	{"pink", "#FFC0CB", color.NRGBA{0xFF, 0xC0, 0xCB, 0xFF}},
	{"red", "#FF0000", color.NRGBA{0xFF, 0x00, 0x00, 0xFF}},
}

// entry falls back to yellow for values outside the palette
func (c Color) entry() paletteEntry {
	if c < 0 || int(c) >= len(palette) {
		return palette[Yellow]
	}
	return palette[c]
}

func (c Color) String() string {
	return c.entry().name
}

// Hex returns the rendering color as #RRGGBB
func (c Color) Hex() string {
	return c.entry().hex
}

// RGBA returns the opaque rendering color
func (c Color) RGBA() color.NRGBA {
	return c.entry().rgba
}

// ParseColor converts a palette name into a Color
func ParseColor(name string) (Color, error) {
	for i, e := range palette {
		if strings.EqualFold(name, e.name) {
			return Color(i), nil
		}
	}
	return Yellow, fmt.Errorf("unknown color: %q", name)
}

// Palette returns all colors in toolbar order
func Palette() []Color {
	return []Color{Yellow, Green, Blue, Pink, Red}
}

// Kind identifies the type of an annotation object
type Kind int

const (
	KindHighlight Kind = iota
	KindUnderline
	KindComment
	KindSignature
)

func (k Kind) String() string {
	switch k {
	case KindHighlight:
		return "highlight"
	case KindUnderline:
		return "underline"
	case KindComment:
		return "comment"
	case KindSignature:
		return "signature"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ShapeKind maps a shape tool to the kind of annotation it produces
func ShapeKind(t Tool) (Kind, bool) {
	switch t {
	case ToolHighlight:
		return KindHighlight, true
	case ToolUnderline:
		return KindUnderline, true
	}
	return 0, false
}
