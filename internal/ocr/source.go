package ocr

import (
	"context"
	"fmt"

	"github.com/platinummonkey/tabscore/internal/extract"
	"github.com/platinummonkey/tabscore/internal/geometry"
	"github.com/platinummonkey/tabscore/internal/pdftext"
)

var _ extract.TextSource = (*Source)(nil)

// Source serves region text from one OCR pass over a rendered page
type Source struct {
	page   *PageOCR
	scaleX float64
	scaleY float64
}

// Open renders a 1-indexed page of the PDF at path and recognizes it
func Open(path string, pageNum int, cfg *Config) (*Source, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	rendered, err := pdftext.RenderPage(path, pageNum, cfg.DPI)
	if err != nil {
		return nil, err
	}

	pageOCR, err := New(cfg).ProcessImage(rendered.Image, pageNum)
	if err != nil {
		return nil, fmt.Errorf("ocr %s page %d: %w", path, pageNum, err)
	}

	sx, sy := rendered.Scale()
	return NewSource(pageOCR, sx, sy), nil
}

// NewSource wraps recognized words with the pixels-per-point scale of the
// image they came from
func NewSource(page *PageOCR, scaleX, scaleY float64) *Source {
	return &Source{page: page, scaleX: scaleX, scaleY: scaleY}
}

// RegionText returns the words whose centre lies inside region, given in
// top-left-origin points
func (s *Source) RegionText(ctx context.Context, region geometry.BoundingBox) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	words := s.page.WordsIn(
		region.XMin*s.scaleX, region.YMin*s.scaleY,
		region.XMax*s.scaleX, region.YMax*s.scaleY,
	)
	return joinWords(words), nil
}
