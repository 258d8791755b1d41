package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/menta2k/doc-annotator/pkg/scene"
)

// ErrEmptySurface is returned when there is nothing to rasterize
var ErrEmptySurface = errors.New("surface has no area")

// Document supplies the rendered document content
type Document interface {
	Render() (image.Image, error)
}

// Surface is the combined visual surface: document content with the
// annotation scene drawn on top, sharing one coordinate origin.
type Surface struct {
	doc      Document
	scene    *scene.Scene
	renderer *Renderer
}

// NewSurface composes a document and a scene
func NewSurface(doc Document, s *scene.Scene) *Surface {
	return &Surface{doc: doc, scene: s, renderer: NewRenderer()}
}

// Rasterize renders document and annotations into one bitmap whose size is
// the document size multiplied by scale.
func (s *Surface) Rasterize(ctx context.Context, scale float64) (image.Image, error) {
	if scale <= 0 {
		scale = 1
	}
	base, err := s.doc.Render()
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	b := base.Bounds()
	if b.Empty() {
		return nil, ErrEmptySurface
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	dst := imaging.New(w, h, color.White)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), base, b, xdraw.Over, nil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.renderer.Draw(dst, s.scene, scale), nil
}
