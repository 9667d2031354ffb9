package geometry

import "fmt"

// MapToReference projects a cell box from the source frame into the target
// frame. Both frames describe the same physical table region; the mapping is
// affine and axis-aligned (independent x/y scale plus offset, no rotation).
func MapToReference(cell, source, target BoundingBox) (BoundingBox, error) {
	srcW, srcH := source.Width(), source.Height()
	dstW, dstH := target.Width(), target.Height()

	if srcW == 0 || srcH == 0 {
		return BoundingBox{}, fmt.Errorf("%w: source frame %v has zero extent", ErrUndefinedMapping, source)
	}
	if dstW == 0 || dstH == 0 {
		return BoundingBox{}, fmt.Errorf("%w: target frame %v has zero extent", ErrUndefinedMapping, target)
	}

	// Normalize cell corners into [0,1] fractions of the source frame
	x0 := (cell.XMin - source.XMin) / srcW
	y0 := (cell.YMin - source.YMin) / srcH
	x1 := (cell.XMax - source.XMin) / srcW
	y1 := (cell.YMax - source.YMin) / srcH

	return BoundingBox{
		XMin: target.XMin + x0*dstW,
		YMin: target.YMin + y0*dstH,
		XMax: target.XMin + x1*dstW,
		YMax: target.YMin + y1*dstH,
	}, nil
}

// Mapper holds a frame pair so many cells can be projected with one check
type Mapper struct {
	source BoundingBox
	target BoundingBox
}

// NewMapper validates the frame pair and returns a reusable mapper
func NewMapper(source, target BoundingBox) (*Mapper, error) {
	if source.Width() == 0 || source.Height() == 0 {
		return nil, fmt.Errorf("%w: source frame %v has zero extent", ErrUndefinedMapping, source)
	}
	if target.Width() == 0 || target.Height() == 0 {
		return nil, fmt.Errorf("%w: target frame %v has zero extent", ErrUndefinedMapping, target)
	}

	return &Mapper{source: source, target: target}, nil
}

// Map projects a box from the source frame to the target frame
func (m *Mapper) Map(cell BoundingBox) BoundingBox {
	// Frames were validated in NewMapper
	out, _ := MapToReference(cell, m.source, m.target)
	return out
}

// Inverse returns the mapper for the opposite direction
func (m *Mapper) Inverse() *Mapper {
	return &Mapper{source: m.target, target: m.source}
}

// FlipY converts a box between top-left and bottom-left origin conventions on
// a page of the given height. Applying it twice returns the original box.
func FlipY(b BoundingBox, pageHeight float64) BoundingBox {
	return BoundingBox{
		XMin: b.XMin,
		YMin: pageHeight - b.YMax,
		XMax: b.XMax,
		YMax: pageHeight - b.YMin,
	}
}
