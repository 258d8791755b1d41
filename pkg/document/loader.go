package document

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"path"
	"strings"

	"github.com/menta2k/doc-annotator/pkg/processing"
)

// Loader reads rendered page bitmaps supplied by the document renderer
type Loader struct {
	config LoaderConfig
}

// LoaderConfig holds configuration for page loading
type LoaderConfig struct {
	SupportedFormats []string
	MinPageSize      int
}

// NewLoader creates a Loader with default configuration
func NewLoader() *Loader {
	return &Loader{
		config: LoaderConfig{
			SupportedFormats: []string{"jpg", "jpeg", "png", "webp"},
			MinPageSize:      16,
		},
	}
}

// NewLoaderWithConfig creates a Loader with custom configuration
func NewLoaderWithConfig(config LoaderConfig) *Loader {
	return &Loader{config: config}
}

// LoadPage loads a page bitmap from a file path or an http(s) URL
func (l *Loader) LoadPage(source string) (image.Image, error) {
	if err := l.checkSource(source); err != nil {
		return nil, err
	}

	img, err := processing.NewProcessor().LoadImageSmart(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", source, err)
	}
	if err := l.ValidatePage(img); err != nil {
		return nil, err
	}
	return img, nil
}

// checkSource rejects sources whose extension names an unsupported format.
// A local .pdf is sniffed so that a real document gets ErrUnrendered.
func (l *Loader) checkSource(source string) error {
	name, remote := source, false
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		name, remote = u.Path, true
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	switch {
	case ext == "":
		return nil
	case ext == "pdf":
		if !remote {
			if err := CheckFile(source); err != nil {
				return err
			}
		}
		return fmt.Errorf("%w: %s", ErrUnrendered, source)
	case !l.isFormatSupported(ext):
		return fmt.Errorf("unsupported page format: %s", ext)
	}
	return nil
}

// LoadPages loads several pages in order
func (l *Loader) LoadPages(sources []string) ([]image.Image, error) {
	pages := make([]image.Image, 0, len(sources))
	for _, p := range sources {
		img, err := l.LoadPage(p)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

func (l *Loader) isFormatSupported(format string) bool {
	for _, supported := range l.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidatePage checks if a page bitmap meets minimum requirements
func (l *Loader) ValidatePage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < l.config.MinPageSize || bounds.Dy() < l.config.MinPageSize {
		return fmt.Errorf("page too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), l.config.MinPageSize)
	}
	return nil
}
