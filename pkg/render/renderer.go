// Package render projects an annotation scene onto raster images.
//
// The scene and engine know nothing about drawing; this package is the
// adapter between the data model and pixels. Layer owns the on-screen
// drawing surface, Surface composes document pages and annotations into a
// single bitmap for export.
package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"seehuhn.de/go/geom/vec"

	"github.com/menta2k/doc-annotator/pkg/scene"
)

// Comment box styling
var (
	commentBackground = color.NRGBA{0xFE, 0xF9, 0xC3, 0xFF}
	commentBorder     = color.NRGBA{0xD6, 0xD3, 0xD1, 0xFF}
	commentTitle      = color.NRGBA{0x6B, 0x72, 0x80, 0xFF}
	commentText       = color.NRGBA{0x37, 0x41, 0x51, 0xFF}
)

const (
	commentPadding  = 8
	commentMaxWidth = 240
	commentHeading  = "Comment"
)

// Renderer draws annotations onto an NRGBA image
type Renderer struct {
	face font.Face
}

// NewRenderer creates a renderer using the built-in bitmap font
func NewRenderer() *Renderer {
	return &Renderer{face: basicfont.Face7x13}
}

// Draw renders every annotation of s in z-order, followed by any live
// strokes that are still being drawn. Coordinates are multiplied by scale.
// The returned image may differ from dst.
func (r *Renderer) Draw(dst *image.NRGBA, s *scene.Scene, scale float64, live ...scene.Stroke) *image.NRGBA {
	if scale <= 0 {
		scale = 1
	}
	for _, a := range s.All() {
		switch v := a.(type) {
		case scene.Shape:
			dst = r.drawShape(dst, v, scale)
		case scene.Stroke:
			r.drawStroke(dst, v, scale)
		case scene.Comment:
			if !v.Pending() {
				r.drawComment(dst, v, scale)
			}
		}
	}
	for _, st := range live {
		r.drawStroke(dst, st, scale)
	}
	return dst
}

func (r *Renderer) drawShape(dst *image.NRGBA, s scene.Shape, scale float64) *image.NRGBA {
	x := int(math.Round(s.Origin.X * scale))
	y := int(math.Round(s.Origin.Y * scale))
	w := int(math.Max(1, math.Round(s.Width*scale)))
	h := int(math.Max(1, math.Round(s.Height*scale)))

	fill := imaging.New(w, h, s.Color.RGBA())
	return imaging.Overlay(dst, fill, image.Pt(x, y), s.Opacity)
}

func (r *Renderer) drawStroke(dst *image.NRGBA, s scene.Stroke, scale float64) {
	if len(s.Points) == 0 {
		return
	}
	b := dst.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	dasher := rasterx.NewDasher(b.Dx(), b.Dy(), scanner)

	width := math.Max(s.Width*scale, 1)
	dasher.SetStroke(fixed.Int26_6(width*64), 0, rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.ArcClip, nil, 0)
	dasher.SetColor(s.Color.RGBA())

	pts := s.Points
	if len(pts) == 1 {
		// a tap leaves a dot
		pts = []vec.Vec2{pts[0], {X: pts[0].X + 0.5/scale, Y: pts[0].Y}}
	}
	dasher.Start(rasterx.ToFixedP(pts[0].X*scale, pts[0].Y*scale))
	for _, p := range pts[1:] {
		dasher.Line(rasterx.ToFixedP(p.X*scale, p.Y*scale))
	}
	dasher.Stop(false)
	dasher.Draw()
	dasher.Clear()
}

func (r *Renderer) drawComment(dst *image.NRGBA, c scene.Comment, scale float64) {
	lineHeight := r.face.Metrics().Height.Ceil()
	ascent := r.face.Metrics().Ascent.Ceil()
	lines := r.wrap(c.Text, commentMaxWidth-2*commentPadding)

	width := font.MeasureString(r.face, commentHeading).Ceil()
	for _, l := range lines {
		if w := font.MeasureString(r.face, l).Ceil(); w > width {
			width = w
		}
	}
	width += 2 * commentPadding
	height := 2*commentPadding + lineHeight*(len(lines)+1) + 4

	x := int(math.Round(c.Position.X * scale))
	y := int(math.Round(c.Position.Y * scale))
	box := image.Rect(x, y, x+width, y+height)

	xdraw.Draw(dst, box, image.NewUniform(commentBorder), image.Point{}, xdraw.Over)
	xdraw.Draw(dst, box.Inset(1), image.NewUniform(commentBackground), image.Point{}, xdraw.Over)

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(commentTitle), Face: r.face}
	d.Dot = fixed.P(x+commentPadding, y+commentPadding+ascent)
	d.DrawString(commentHeading)

	d.Src = image.NewUniform(commentText)
	for i, l := range lines {
		d.Dot = fixed.P(x+commentPadding, y+commentPadding+ascent+4+lineHeight*(i+1))
		d.DrawString(l)
	}
}

// wrap breaks text into lines no wider than maxWidth pixels
func (r *Renderer) wrap(text string, maxWidth int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if font.MeasureString(r.face, candidate).Ceil() > maxWidth {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}
