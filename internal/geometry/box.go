// Package geometry provides bounding box validation, overlap metrics and
// coordinate frame mapping for table cells.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidGeometry indicates a malformed or inverted bounding box
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrUndefinedMapping indicates a reference frame with zero width or height
	ErrUndefinedMapping = errors.New("undefined coordinate mapping")
)

// Frame identifies the coordinate system a box is expressed in
type Frame int

const (
	// FrameUnknown is the zero value; boxes must be tagged before use
	FrameUnknown Frame = iota

	// FrameImage is rendered-image pixel space (top-left origin)
	FrameImage

	// FramePDF is PDF point space (top-left origin, as used by annotations)
	FramePDF
)

// String returns the frame name
func (f Frame) String() string {
	switch f {
	case FrameImage:
		return "image"
	case FramePDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// BoundingBox is an axis-aligned box (x_min, y_min, x_max, y_max)
type BoundingBox struct {
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// NewBoundingBox creates a box from corner coordinates without validation
func NewBoundingBox(xMin, yMin, xMax, yMax float64) BoundingBox {
	return BoundingBox{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax}
}

// Validate converts a four-number slice into a BoundingBox.
// Boxes with x_min > x_max or y_min > y_max are rejected, never reordered.
func Validate(coords []float64) (BoundingBox, error) {
	if len(coords) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: expected 4 coordinates, got %d", ErrInvalidGeometry, len(coords))
	}

	for i, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return BoundingBox{}, fmt.Errorf("%w: coordinate %d is not finite", ErrInvalidGeometry, i)
		}
	}

	box := NewBoundingBox(coords[0], coords[1], coords[2], coords[3])
	if !box.Valid() {
		return BoundingBox{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, box)
	}

	return box, nil
}

// Valid reports whether the box satisfies x_min <= x_max and y_min <= y_max
func (b BoundingBox) Valid() bool {
	return b.XMin <= b.XMax && b.YMin <= b.YMax
}

// Width returns the horizontal extent
func (b BoundingBox) Width() float64 {
	return b.XMax - b.XMin
}

// Height returns the vertical extent
func (b BoundingBox) Height() float64 {
	return b.YMax - b.YMin
}

// Area returns width * height
func (b BoundingBox) Area() float64 {
	return b.Width() * b.Height()
}

// Overlaps reports whether the two boxes touch or intersect
func (b BoundingBox) Overlaps(other BoundingBox) bool {
	return !(b.XMax < other.XMin ||
		b.XMin > other.XMax ||
		b.YMax < other.YMin ||
		b.YMin > other.YMax)
}

// Contains reports whether the point lies inside the box (edges inclusive)
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// Slice returns the box as [x_min, y_min, x_max, y_max]
func (b BoundingBox) Slice() []float64 {
	return []float64{b.XMin, b.YMin, b.XMax, b.YMax}
}

// Min returns the lower corner, as used by spatial indexes
func (b BoundingBox) Min() [2]float64 {
	return [2]float64{b.XMin, b.YMin}
}

// Max returns the upper corner, as used by spatial indexes
func (b BoundingBox) Max() [2]float64 {
	return [2]float64{b.XMax, b.YMax}
}

// String formats the box as [x0, y0, x1, y1]
func (b BoundingBox) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", b.XMin, b.YMin, b.XMax, b.YMax)
}

// Union returns the smallest box enclosing all the given boxes.
// It returns false when no boxes are given.
func Union(boxes ...BoundingBox) (BoundingBox, bool) {
	if len(boxes) == 0 {
		return BoundingBox{}, false
	}

	u := boxes[0]
	for _, b := range boxes[1:] {
		u.XMin = math.Min(u.XMin, b.XMin)
		u.YMin = math.Min(u.YMin, b.YMin)
		u.XMax = math.Max(u.XMax, b.XMax)
		u.YMax = math.Max(u.YMax, b.YMax)
	}

	return u, true
}

// IoU returns the intersection-over-union of two boxes in [0, 1].
// Zero intersection short-circuits to 0 so degenerate boxes never divide by zero.
func IoU(a, b BoundingBox) float64 {
	interW := math.Max(0, math.Min(a.XMax, b.XMax)-math.Max(a.XMin, b.XMin))
	interH := math.Max(0, math.Min(a.YMax, b.YMax)-math.Max(a.YMin, b.YMin))
	inter := interW * interH
	if inter == 0 {
		return 0.0
	}

	return inter / (a.Area() + b.Area() - inter)
}
