// Package pdftext reads text and page images from source PDF documents.
package pdftext

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/platinummonkey/tabscore/internal/extract"
)

// Info holds lightweight facts about a PDF file
type Info struct {
	Path      string
	PageCount int

	// Valid is false when relaxed validation reported a problem; such files
	// may still be readable
	Valid           bool
	ValidationError error
}

// Inspect parses the file once with pdfcpu, reads the page count and runs
// relaxed validation on the parsed context
func Inspect(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf %s: %v", extract.ErrMissingResource, path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf %s: %v", extract.ErrMissingResource, path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("%w: page tree of %s: %v", extract.ErrMissingResource, path, err)
	}

	info := &Info{
		Path:      path,
		PageCount: ctx.PageCount,
		Valid:     true,
	}

	if err := api.ValidateContext(ctx); err != nil {
		info.Valid = false
		info.ValidationError = err
	}

	return info, nil
}
