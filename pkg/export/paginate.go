package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// ErrEmptySurface is returned when the source raster has no area
var ErrEmptySurface = errors.New("nothing to export")

// tolerance absorbs float residue when the image height is an exact
// multiple of the page height
const tolerance = 1e-9

// Slice is the part of the source image shown on one output page
type Slice struct {
	Index  int
	Offset float64
	Height float64
}

// Paginate splits an image of the given height into page-height slices.
// The page count is ceil(imageHeight/pageHeight); the last slice may be
// shorter than a page.
func Paginate(imageHeight, pageHeight float64) []Slice {
	if imageHeight <= 0 || pageHeight <= 0 {
		return nil
	}

	var slices []Slice
	remaining := imageHeight
	offset := 0.0
	for {
		slices = append(slices, Slice{
			Index:  len(slices),
			Offset: offset,
			Height: math.Min(pageHeight, remaining),
		})
		remaining -= pageHeight
		offset += pageHeight
		if remaining <= tolerance {
			break
		}
	}
	return slices
}

// Plan is the page layout for one export
type Plan struct {
	Format       PageFormat
	SourceWidth  int
	SourceHeight int
	// ImageWidth and ImageHeight are the scaled image size in millimetres
	ImageWidth  float64
	ImageHeight float64
	Slices      []Slice
}

// NewPlan scales a srcW x srcH raster to the page width and paginates it
func NewPlan(srcW, srcH int, format PageFormat) (Plan, error) {
	if err := format.Validate(); err != nil {
		return Plan{}, err
	}
	if srcW <= 0 || srcH <= 0 {
		return Plan{}, fmt.Errorf("%w: %dx%d", ErrEmptySurface, srcW, srcH)
	}

	imgH := float64(srcH) * (format.Width / float64(srcW))
	return Plan{
		Format:       format,
		SourceWidth:  srcW,
		SourceHeight: srcH,
		ImageWidth:   format.Width,
		ImageHeight:  imgH,
		Slices:       Paginate(imgH, format.Height),
	}, nil
}

// PageCount returns the number of output pages
func (p Plan) PageCount() int { return len(p.Slices) }

// PageHeightPixels returns one page height in source pixels
func (p Plan) PageHeightPixels() float64 {
	return p.Format.Height * float64(p.SourceWidth) / p.Format.Width
}

// PageBreaks returns the source pixel rows where each page after the first begins
func (p Plan) PageBreaks() []int {
	var breaks []int
	ph := p.PageHeightPixels()
	for _, s := range p.Slices[min(1, len(p.Slices)):] {
		breaks = append(breaks, int(math.Round(float64(s.Index)*ph)))
	}
	return breaks
}

// SliceImage cuts img into page-height views. Every source row appears in
// exactly one view.
func SliceImage(img image.Image, pageHeight int) []image.Image {
	b := img.Bounds()
	if pageHeight <= 0 || b.Empty() {
		return nil
	}

	var views []image.Image
	for _, s := range Paginate(float64(b.Dy()), float64(pageHeight)) {
		y0 := b.Min.Y + int(s.Offset)
		y1 := y0 + int(s.Height)
		views = append(views, &sliceView{
			source: img,
			bounds: image.Rect(b.Min.X, y0, b.Max.X, y1),
		})
	}
	return views
}

// sliceView is a zero-origin window onto part of a larger image
type sliceView struct {
	source image.Image
	bounds image.Rectangle
}

func (v *sliceView) ColorModel() color.Model {
	return v.source.ColorModel()
}

func (v *sliceView) Bounds() image.Rectangle {
	return image.Rect(0, 0, v.bounds.Dx(), v.bounds.Dy())
}

func (v *sliceView) At(x, y int) color.Color {
	if !(image.Point{x, y}).In(v.Bounds()) {
		return color.Transparent
	}
	return v.source.At(x+v.bounds.Min.X, y+v.bounds.Min.Y)
}
