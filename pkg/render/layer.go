package render

import (
	"image"

	"github.com/menta2k/doc-annotator/pkg/scene"
)

// Layer is the transparent drawing surface placed over the document. It
// is owned by whoever creates it; collaborators only render into it.
type Layer struct {
	img      *image.NRGBA
	renderer *Renderer
	disposed bool
}

// NewLayer creates a transparent layer of the given size
func NewLayer(width, height int) *Layer {
	return &Layer{
		img:      image.NewNRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
		renderer: NewRenderer(),
	}
}

// Size returns the layer dimensions in pixels
func (l *Layer) Size() (int, int) {
	if l.img == nil {
		return 0, 0
	}
	b := l.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize reallocates the layer; the content is cleared until the next Render
func (l *Layer) Resize(width, height int) {
	if l.disposed {
		return
	}
	l.img = image.NewNRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
}

// Render clears the layer and draws the scene and any live strokes
func (l *Layer) Render(s *scene.Scene, live ...scene.Stroke) {
	if l.disposed || l.img == nil {
		return
	}
	clear(l.img.Pix)
	l.img = l.renderer.Draw(l.img, s, 1, live...)
}

// Image returns the current layer content
func (l *Layer) Image() image.Image {
	if l.img == nil {
		return image.NewNRGBA(image.Rectangle{})
	}
	return l.img
}

// Dispose releases the pixel buffer; further calls are no-ops
func (l *Layer) Dispose() {
	l.img = nil
	l.disposed = true
}

// Disposed reports whether Dispose was called
func (l *Layer) Disposed() bool { return l.disposed }
