package teds

import (
	"context"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// TreeEditScorer scores the similarity of two normalized HTML tables in [0, 1]
type TreeEditScorer interface {
	Score(ctx context.Context, predicted, groundTruth string) (float64, error)
}

// Option configures a StructureScorer
type Option func(*StructureScorer)

// WithStructureOnly ignores cell content when true (the default)
func WithStructureOnly(v bool) Option {
	return func(s *StructureScorer) {
		s.structureOnly = v
	}
}

// StructureScorer computes TEDS: one minus the tree edit distance normalized by the
// size of the larger table
type StructureScorer struct {
	structureOnly bool
	content       *metrics.Levenshtein
}

var _ TreeEditScorer = (*StructureScorer)(nil)

// NewStructureScorer creates a structure-only scorer unless configured otherwise
func NewStructureScorer(opts ...Option) *StructureScorer {
	s := &StructureScorer{structureOnly: true, content: metrics.NewLevenshtein()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns 0 when either input has no table, and 1 for two empty tables
func (s *StructureScorer) Score(ctx context.Context, predicted, groundTruth string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if predicted == "" || groundTruth == "" {
		return 0, nil
	}

	pred, err := ParseTree(predicted)
	if err == ErrNoTable {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	gt, err := ParseTree(groundTruth)
	if err == ErrNoTable {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	// The table element itself is not counted
	size := max(pred.Size(), gt.Size()) - 1
	if size == 0 {
		return 1, nil
	}

	dist := Distance(pred, gt, s.rename)
	return max(0, 1-dist/float64(size)), nil
}

func (s *StructureScorer) rename(a, b *Node) float64 {
	if a.Tag != b.Tag || a.Colspan != b.Colspan || a.Rowspan != b.Rowspan {
		return 1
	}
	if s.structureOnly || a.Tag != "td" {
		return 0
	}
	if a.Content == "" && b.Content == "" {
		return 0
	}
	return 1 - strutil.Similarity(a.Content, b.Content, s.content)
}
