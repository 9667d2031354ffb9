// Package matcher pairs predicted table cells with ground-truth cells by
// spatial overlap.
package matcher

import "github.com/platinummonkey/tabscore/internal/geometry"

// DefaultThreshold is the minimum IoU for a predicted cell to claim a ground-truth cell
const DefaultThreshold = 0.5

// Cell is one table entry with its text and raw bounding box
type Cell struct {
	// Text is the cell content (extracted for predictions, annotated for ground truth)
	Text string `json:"text"`

	// BBox is [x_min, y_min, x_max, y_max]; validated when the cell is matched
	BBox []float64 `json:"bbox"`

	// Frame is the coordinate system BBox is expressed in
	Frame geometry.Frame `json:"-"`

	// RowNums and ColumnNums are grid indices from the detector (predictions only)
	RowNums    []int `json:"row_nums,omitempty"`
	ColumnNums []int `json:"column_nums,omitempty"`
}

// Match pairs one predicted cell with one ground-truth cell
type Match struct {
	Predicted        Cell
	GroundTruth      Cell
	PredictedIndex   int
	GroundTruthIndex int
	IoU              float64
}

// Stats summarizes one matching pass
type Stats struct {
	Predicted          int
	GroundTruth        int
	Matched            int
	InvalidPredicted   int
	InvalidGroundTruth int
}

// Unmatched returns the number of valid predicted cells left without a partner
func (s Stats) Unmatched() int {
	return s.Predicted - s.InvalidPredicted - s.Matched
}
