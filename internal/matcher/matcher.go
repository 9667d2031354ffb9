package matcher

import (
	"sort"

	"github.com/tidwall/rtree"

	"github.com/platinummonkey/tabscore/internal/geometry"
	"github.com/platinummonkey/tabscore/internal/logger"
)

// Option configures a matching pass
type Option func(*options)

type options struct {
	threshold float64
	logger    *logger.Logger
}

// WithThreshold sets the minimum IoU for a match (default 0.5)
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = t
	}
}

// WithLogger sets the logger used to report skipped cells
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// index is an R-tree over the valid ground-truth boxes keyed by cell index
type index struct {
	tree  rtree.RTreeG[int]
	boxes map[int]geometry.BoundingBox
}

func newIndex() *index {
	return &index{boxes: make(map[int]geometry.BoundingBox)}
}

func (ix *index) insert(i int, box geometry.BoundingBox) {
	ix.tree.Insert(box.Min(), box.Max(), i)
	ix.boxes[i] = box
}

// candidates returns indices of boxes overlapping the query, in ascending
// cell order so ties resolve the same way a linear scan would
func (ix *index) candidates(query geometry.BoundingBox) []int {
	var ids []int
	ix.tree.Search(query.Min(), query.Max(), func(_, _ [2]float64, i int) bool {
		ids = append(ids, i)
		return true
	})
	sort.Ints(ids)
	return ids
}

// Greedy greedily assigns each predicted cell, in order, to the unused
// ground-truth cell with the highest IoU, provided it reaches the threshold.
// The result is a partial bijection: no cell on either side appears twice.
func Greedy(predicted, groundTruth []Cell, opts ...Option) []Match {
	matches, _ := GreedyWithStats(predicted, groundTruth, opts...)
	return matches
}

// GreedyWithStats is Greedy plus counters describing skipped and matched cells
func GreedyWithStats(predicted, groundTruth []Cell, opts ...Option) ([]Match, Stats) {
	o := &options{
		threshold: DefaultThreshold,
		logger:    logger.Get(),
	}
	for _, opt := range opts {
		opt(o)
	}

	stats := Stats{
		Predicted:   len(predicted),
		GroundTruth: len(groundTruth),
	}

	// Step 1: index valid ground-truth boxes; invalid ones are never matchable
	ix := newIndex()
	for i, gt := range groundTruth {
		box, err := geometry.Validate(gt.BBox)
		if err != nil {
			o.logger.WithFields("gt_index", i, "bbox", gt.BBox, "error", err).
				Warn("Skipping invalid ground-truth bbox")
			stats.InvalidGroundTruth++
			continue
		}
		ix.insert(i, box)
	}

	matches := make([]Match, 0)
	used := make(map[int]bool)

	// Step 2: greedy assignment in predicted order
	for pi, pred := range predicted {
		predBox, err := geometry.Validate(pred.BBox)
		if err != nil {
			o.logger.WithFields("pred_index", pi, "bbox", pred.BBox, "error", err).
				Warn("Skipping invalid predicted bbox")
			stats.InvalidPredicted++
			continue
		}

		bestIoU := 0.0
		bestID := -1
		for _, gi := range ix.candidates(predBox) {
			if used[gi] {
				continue
			}
			iou := geometry.IoU(predBox, ix.boxes[gi])
			if iou > bestIoU {
				bestIoU = iou
				bestID = gi
			}
		}

		if bestID < 0 || bestIoU < o.threshold {
			continue
		}

		matches = append(matches, Match{
			Predicted:        pred,
			GroundTruth:      groundTruth[bestID],
			PredictedIndex:   pi,
			GroundTruthIndex: bestID,
			IoU:              bestIoU,
		})
		used[bestID] = true
	}

	stats.Matched = len(matches)
	return matches, stats
}
