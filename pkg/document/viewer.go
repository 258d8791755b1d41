// Package document adapts the external document renderer to the annotator.
//
// The renderer supplies one bitmap per page; Viewer lays them out in a
// single scrolling column at a fixed display width, which is the surface
// annotations are anchored to.
package document

import (
	"errors"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ErrNoPages is returned when a viewer has nothing to show
var ErrNoPages = errors.New("document has no pages")

// ViewerConfig controls the page column layout
type ViewerConfig struct {
	PageWidth int
	PageGap   int
}

// DefaultViewerConfig renders pages 800px wide with a 16px gap
func DefaultViewerConfig() ViewerConfig {
	return ViewerConfig{PageWidth: 800, PageGap: 16}
}

// Viewer stacks page bitmaps vertically
type Viewer struct {
	config   ViewerConfig
	pages    []image.Image
	rendered image.Image
}

// NewViewer creates a viewer over the given pages
func NewViewer(pages []image.Image, config ViewerConfig) *Viewer {
	return &Viewer{config: config, pages: pages}
}

// NumPages returns the number of pages
func (v *Viewer) NumPages() int { return len(v.pages) }

// Size returns the laid out column size without rendering it
func (v *Viewer) Size() image.Point {
	var h int
	for i, p := range v.pages {
		h += v.scaledHeight(p)
		if i < len(v.pages)-1 {
			h += v.config.PageGap
		}
	}
	if len(v.pages) == 0 {
		return image.Point{}
	}
	return image.Pt(v.config.PageWidth, h)
}

// PageOffset returns the top of page i inside the column
func (v *Viewer) PageOffset(i int) int {
	var y int
	for j := 0; j < i && j < len(v.pages); j++ {
		y += v.scaledHeight(v.pages[j]) + v.config.PageGap
	}
	return y
}

func (v *Viewer) scaledHeight(p image.Image) int {
	b := p.Bounds()
	if b.Dx() == 0 || v.config.PageWidth <= 0 {
		return 0
	}
	return int(float64(b.Dy())*float64(v.config.PageWidth)/float64(b.Dx()) + 0.5)
}

// Render returns the page column as one bitmap. The result is cached;
// callers must not modify it.
func (v *Viewer) Render() (image.Image, error) {
	if len(v.pages) == 0 {
		return nil, ErrNoPages
	}
	if v.rendered != nil {
		return v.rendered, nil
	}
	size := v.Size()
	dst := imaging.New(size.X, size.Y, color.White)
	for i, p := range v.pages {
		h := v.scaledHeight(p)
		if h == 0 {
			continue
		}
		scaled := imaging.Resize(p, v.config.PageWidth, h, imaging.Lanczos)
		dst = imaging.Paste(dst, scaled, image.Pt(0, v.PageOffset(i)))
	}
	v.rendered = dst
	return dst, nil
}
