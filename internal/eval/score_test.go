package eval

import (
	"math"
	"testing"

	"github.com/platinummonkey/tabscore/internal/logger"
	"github.com/platinummonkey/tabscore/internal/matcher"
)

func matchesWithIoU(ious ...float64) []matcher.Match {
	out := make([]matcher.Match, len(ious))
	for i, v := range ious {
		out[i] = matcher.Match{PredictedIndex: i, GroundTruthIndex: i, IoU: v}
	}
	return out
}

func TestScoreTable(t *testing.T) {
	s := ScoreTable("t", matchesWithIoU(1.0, 0.5), []float64{0.8, 0.6}, matcher.Stats{Predicted: 3, GroundTruth: 2}, logger.NewNop())

	if s.Matches != 2 {
		t.Errorf("Matches = %d, want 2", s.Matches)
	}
	if s.AvgIoU != 0.75 {
		t.Errorf("AvgIoU = %v, want 0.75", s.AvgIoU)
	}
	if math.Abs(s.AvgSimilarity-0.7) > 1e-12 {
		t.Errorf("AvgSimilarity = %v, want 0.7", s.AvgSimilarity)
	}
	if s.Predicted != 3 || s.GroundTruth != 2 {
		t.Errorf("cell counts = %d/%d, want 3/2", s.Predicted, s.GroundTruth)
	}
}

func TestScoreTable_NoMatches(t *testing.T) {
	s := ScoreTable("empty", nil, nil, matcher.Stats{}, logger.NewNop())
	if s.AvgIoU != 0 || s.AvgSimilarity != 0 || s.Matches != 0 {
		t.Errorf("ScoreTable() = %+v, want zeros", s)
	}
}

func TestAggregator_WeightsByMatches(t *testing.T) {
	agg := NewAggregator()
	agg.AddTable(ScoreTable("a", matchesWithIoU(1.0), []float64{1.0}, matcher.Stats{}, nil))
	agg.AddTable(ScoreTable("b", matchesWithIoU(0.5, 0.5), []float64{0.4, 0.4}, matcher.Stats{}, nil))
	agg.AddTable(ScoreTable("c", nil, nil, matcher.Stats{}, nil))

	c := agg.Finalize(logger.NewNop())

	if c.Tables != 3 {
		t.Errorf("Tables = %d, want 3", c.Tables)
	}
	if c.TotalMatches != 3 {
		t.Errorf("TotalMatches = %d, want 3", c.TotalMatches)
	}
	if math.Abs(c.AvgIoU-2.0/3) > 1e-12 {
		t.Errorf("AvgIoU = %v, want %v", c.AvgIoU, 2.0/3)
	}
	if math.Abs(c.AvgSimilarity-0.6) > 1e-12 {
		t.Errorf("AvgSimilarity = %v, want 0.6", c.AvgSimilarity)
	}
}

func TestAggregator_Empty(t *testing.T) {
	c := NewAggregator().Finalize(logger.NewNop())
	if c != (CorpusScore{}) {
		t.Errorf("Finalize() = %+v, want zero value", c)
	}
}

func TestAggregator_TEDS(t *testing.T) {
	agg := NewAggregator()
	agg.AddTEDS(TEDSScore{Name: "a", Score: 1})
	agg.AddTEDS(TEDSScore{Name: "b", Score: 0.5})

	c := agg.Finalize(logger.NewNop())
	if c.TEDSTables != 2 || c.AvgTEDS != 0.75 {
		t.Errorf("TEDS = %d tables avg %v, want 2 tables avg 0.75", c.TEDSTables, c.AvgTEDS)
	}
}

func TestAggregator_MergeMatchesSequential(t *testing.T) {
	scores := []TableScore{
		ScoreTable("a", matchesWithIoU(0.9, 0.7), []float64{0.9, 0.2}, matcher.Stats{}, nil),
		ScoreTable("b", matchesWithIoU(0.6), []float64{0.5}, matcher.Stats{}, nil),
		ScoreTable("c", matchesWithIoU(0.55, 0.8, 1.0), []float64{1, 1, -0.2}, matcher.Stats{}, nil),
	}

	sequential := NewAggregator()
	for _, s := range scores {
		sequential.AddTable(s)
	}
	sequential.AddTEDS(TEDSScore{Score: 0.3})

	left, right := NewAggregator(), NewAggregator()
	left.AddTable(scores[0])
	right.AddTable(scores[1])
	right.AddTable(scores[2])
	right.AddTEDS(TEDSScore{Score: 0.3})

	merged := NewAggregator()
	merged.Merge(left)
	merged.Merge(right)
	merged.Merge(nil)

	want := sequential.Finalize(nil)
	got := merged.Finalize(nil)
	if math.Abs(got.AvgIoU-want.AvgIoU) > 1e-12 || math.Abs(got.AvgSimilarity-want.AvgSimilarity) > 1e-12 ||
		got.TotalMatches != want.TotalMatches || got.Tables != want.Tables || got.AvgTEDS != want.AvgTEDS {
		t.Errorf("merged = %+v, sequential = %+v", got, want)
	}
}
