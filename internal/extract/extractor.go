package extract

import (
	"context"
	"fmt"

	"github.com/platinummonkey/tabscore/internal/geometry"
	"github.com/platinummonkey/tabscore/internal/logger"
	"github.com/platinummonkey/tabscore/internal/matcher"
)

// TextSource reads the text inside a region of a page. Regions are in PDF
// points with a top-left origin.
type TextSource interface {
	RegionText(ctx context.Context, region geometry.BoundingBox) (string, error)
}

// PredictedExtractor maps predicted image-space cells into PDF space and
// reads their text from the source document
type PredictedExtractor struct {
	source TextSource
	logger *logger.Logger
}

// NewPredictedExtractor creates an extractor reading text from source
func NewPredictedExtractor(source TextSource, log *logger.Logger) *PredictedExtractor {
	if log == nil {
		log = logger.Get()
	}
	return &PredictedExtractor{source: source, logger: log}
}

// Extract returns one cell per predicted object, in input order, with its box
// in PDF space and its cleaned text. Objects with invalid boxes are kept with
// empty text so the matcher can report and skip them.
func (e *PredictedExtractor) Extract(ctx context.Context, objects []PredictedObject, pdfTableBBox []float64) ([]matcher.Cell, error) {
	cells := make([]matcher.Cell, 0, len(objects))
	if len(objects) == 0 {
		return cells, nil
	}

	pdfFrame, err := geometry.Validate(pdfTableBBox)
	if err != nil {
		return nil, fmt.Errorf("pdf table bbox: %w", err)
	}

	valid := make([]geometry.BoundingBox, 0, len(objects))
	boxes := make([]*geometry.BoundingBox, len(objects))
	for i, obj := range objects {
		box, err := geometry.Validate(obj.BBox)
		if err != nil {
			e.logger.WithFields("pred_index", i, "bbox", obj.BBox, "error", err).
				Warn("Predicted cell has invalid bbox")
			continue
		}
		boxes[i] = &box
		valid = append(valid, box)
	}

	imageFrame, ok := geometry.Union(valid...)
	if !ok {
		return nil, fmt.Errorf("%w: no valid predicted boxes", geometry.ErrInvalidGeometry)
	}

	mapper, err := geometry.NewMapper(imageFrame, pdfFrame)
	if err != nil {
		return nil, fmt.Errorf("map image frame %v to pdf frame %v: %w", imageFrame, pdfFrame, err)
	}

	for i, obj := range objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cell := matcher.Cell{
			BBox:       obj.BBox,
			Frame:      geometry.FrameImage,
			RowNums:    obj.RowNums,
			ColumnNums: obj.ColumnNums,
		}

		if boxes[i] != nil {
			region := mapper.Map(*boxes[i])
			raw, err := e.source.RegionText(ctx, region)
			if err != nil {
				return nil, fmt.Errorf("read text of cell %d at %v: %w", i, region, err)
			}

			cell.Text = CleanText(raw)
			cell.BBox = region.Slice()
			cell.Frame = geometry.FramePDF
		}

		cells = append(cells, cell)
	}

	e.logger.Debugf("Extracted %d predicted cells (%d valid)", len(cells), len(valid))
	return cells, nil
}

// GroundTruthExtractor returns annotated cells as they are stored
type GroundTruthExtractor struct{}

// Extract returns the cells of table index without transformation
func (GroundTruthExtractor) Extract(tables []TableAnnotation, index int) ([]matcher.Cell, error) {
	table, err := TableAt(tables, index)
	if err != nil {
		return nil, err
	}

	cells := make([]matcher.Cell, 0, len(table.Cells))
	for _, c := range table.Cells {
		cells = append(cells, matcher.Cell{
			Text:  c.Text,
			BBox:  c.PDFBBox,
			Frame: geometry.FramePDF,
		})
	}

	return cells, nil
}
