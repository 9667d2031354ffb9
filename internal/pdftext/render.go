package pdftext

import (
	"fmt"
	"image"

	"github.com/unidoc/unipdf/v3/render"

	"github.com/platinummonkey/tabscore/internal/extract"
	"github.com/platinummonkey/tabscore/internal/geometry"
)

// DefaultDPI is the rendering resolution used for OCR
const DefaultDPI = 300

// Page is a rendered page image with the page size it was rendered from
type Page struct {
	Image image.Image

	// Size is the page box in points, top-left origin
	Size geometry.BoundingBox
}

// Scale returns pixels per point on each axis
func (p *Page) Scale() (sx, sy float64) {
	b := p.Image.Bounds()
	if p.Size.Width() == 0 || p.Size.Height() == 0 {
		return 0, 0
	}
	return float64(b.Dx()) / p.Size.Width(), float64(b.Dy()) / p.Size.Height()
}

// RenderPage renders a 1-indexed page at the given DPI
func RenderPage(path string, pageNum, dpi int) (*Page, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	page, closeFn, err := loadPage(path, pageNum)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	mediaBox, err := page.GetMediaBox()
	if err != nil {
		return nil, fmt.Errorf("%w: media box of %s: %v", extract.ErrMissingResource, path, err)
	}

	// pixels = points * DPI / 72
	device := render.NewImageDevice()
	device.OutputWidth = int(mediaBox.Width() * float64(dpi) / 72.0)

	img, err := device.Render(page)
	if err != nil {
		return nil, fmt.Errorf("render page %d of %s: %w", pageNum, path, err)
	}

	return &Page{
		Image: img,
		Size:  geometry.NewBoundingBox(0, 0, mediaBox.Width(), mediaBox.Height()),
	}, nil
}
