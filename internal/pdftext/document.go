package pdftext

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/unidoc/unipdf/v3/common"
	"github.com/unidoc/unipdf/v3/extractor"
	unipdf "github.com/unidoc/unipdf/v3/model"

	"github.com/platinummonkey/tabscore/internal/extract"
	"github.com/platinummonkey/tabscore/internal/geometry"
	"github.com/platinummonkey/tabscore/internal/logger"
)

func init() {
	common.SetLogger(common.NewConsoleLogger(common.LogLevelError))
}

var _ extract.TextSource = (*Document)(nil)

// Config holds options for opening a document
type Config struct {
	// Page is the 1-indexed page to read (default: 1)
	Page int

	Logger *logger.Logger
}

// Mark is one extracted glyph run with its box in top-left-origin points
type Mark struct {
	Text string
	Box  geometry.BoundingBox

	// Meta marks are spaces and line breaks inserted by the extractor
	Meta bool
}

// Document holds the text marks of one PDF page
type Document struct {
	info   *Info
	page   int
	size   geometry.BoundingBox
	marks  []Mark
	logger *logger.Logger
}

// Open reads the text marks of a page. Unreadable files return
// extract.ErrMissingResource; a process without SetLicense gets ErrUnlicensed.
func Open(path string, cfg *Config) (*Document, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	pageNum := cfg.Page
	if pageNum == 0 {
		pageNum = 1
	}

	info, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	if !info.Valid {
		log.WithFields("pdf", path, "error", info.ValidationError).Debug("PDF failed relaxed validation, reading anyway")
	}

	if pageNum < 1 || pageNum > info.PageCount {
		return nil, fmt.Errorf("%w: page %d out of range (%s has %d pages)", extract.ErrMissingResource, pageNum, path, info.PageCount)
	}

	if !Licensed() {
		return nil, fmt.Errorf("%w: extract text from %s", ErrUnlicensed, path)
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

	ex, err := extractor.New(page)
	if err != nil {
		return nil, fmt.Errorf("%w: create extractor for %s: %v", extract.ErrMissingResource, path, err)
	}

	pageText, _, _, err := ex.ExtractPageText()
	if err != nil {
		return nil, fmt.Errorf("%w: extract text from %s: %v", extract.ErrMissingResource, path, err)
	}

	elements := pageText.Marks().Elements()
	marks := make([]Mark, 0, len(elements))
	for _, m := range elements {
		marks = append(marks, Mark{
			Text: m.Text,
			Box:  toTopLeft(m.BBox, *mediaBox),
			Meta: m.Meta,
		})
	}

	log.WithFields("pdf", path, "page", pageNum, "marks", len(marks)).Debug("Loaded page text marks")

	return &Document{
		info:   info,
		page:   pageNum,
		size:   geometry.NewBoundingBox(0, 0, mediaBox.Width(), mediaBox.Height()),
		marks:  marks,
		logger: log,
	}, nil
}

// NewDocument builds a document from marks already in top-left-origin points
func NewDocument(size geometry.BoundingBox, marks []Mark) *Document {
	return &Document{
		info:   &Info{PageCount: 1, Valid: true},
		page:   1,
		size:   size,
		marks:  marks,
		logger: logger.Get(),
	}
}

// PageCount returns the number of pages in the file
func (d *Document) PageCount() int {
	return d.info.PageCount
}

// PageSize returns the page box with a top-left origin
func (d *Document) PageSize() geometry.BoundingBox {
	return d.size
}

// RegionText returns the text of marks whose centre lies inside region
func (d *Document) RegionText(ctx context.Context, region geometry.BoundingBox) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return regionText(d.marks, region), nil
}

// regionText joins the selected marks in reading order. A gap of skipped or
// meta marks between two selected marks becomes one space.
func regionText(marks []Mark, region geometry.BoundingBox) string {
	var b strings.Builder
	pending := false

	for _, m := range marks {
		if m.Meta || !contains(region, m.Box) {
			if b.Len() > 0 {
				pending = true
			}
			continue
		}

		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteString(m.Text)
	}

	return b.String()
}

func contains(region, box geometry.BoundingBox) bool {
	cx := (box.XMin + box.XMax) / 2
	cy := (box.YMin + box.YMax) / 2
	return region.Contains(cx, cy)
}

// toTopLeft converts a PDF user-space rectangle into top-left-origin points
// relative to the media box
func toTopLeft(r unipdf.PdfRectangle, mediaBox unipdf.PdfRectangle) geometry.BoundingBox {
	shifted := geometry.NewBoundingBox(r.Llx-mediaBox.Llx, r.Lly-mediaBox.Lly, r.Urx-mediaBox.Llx, r.Ury-mediaBox.Lly)
	return geometry.FlipY(shifted, mediaBox.Ury-mediaBox.Lly)
}

// loadPage opens path and returns one page with a function closing the file
func loadPage(path string, pageNum int) (*unipdf.PdfPage, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %v", extract.ErrMissingResource, path, err)
	}

	reader, err := unipdf.NewPdfReaderLazy(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: parse %s: %v", extract.ErrMissingResource, path, err)
	}

	page, err := reader.GetPage(pageNum)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%w: page %d of %s: %v", extract.ErrMissingResource, pageNum, path, err)
	}

	return page, func() { f.Close() }, nil
}
