// Package export flattens the annotated surface into a paginated PDF.
package export

import (
	"fmt"
	"strings"
)

// PageFormat is a fixed output page size in millimetres
type PageFormat struct {
	Name   string
	Width  float64
	Height float64
}

// Standard portrait page formats
var (
	A4     = PageFormat{Name: "A4", Width: 210, Height: 297}
	A5     = PageFormat{Name: "A5", Width: 148, Height: 210}
	Letter = PageFormat{Name: "Letter", Width: 215.9, Height: 279.4}
)

var pageFormats = []PageFormat{A4, A5, Letter}

// LookupPageFormat finds a standard format by case-insensitive name
func LookupPageFormat(name string) (PageFormat, bool) {
	for _, f := range pageFormats {
		if strings.EqualFold(f.Name, strings.TrimSpace(name)) {
			return f, true
		}
	}
	return PageFormat{}, false
}

// PageFormats lists the standard formats
func PageFormats() []PageFormat {
	return append([]PageFormat(nil), pageFormats...)
}

// Validate reports whether the format has a usable size
func (f PageFormat) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid page format %q: %gx%g mm", f.Name, f.Width, f.Height)
	}
	return nil
}

func (f PageFormat) String() string {
	return fmt.Sprintf("%s (%gx%g mm)", f.Name, f.Width, f.Height)
}
