package eval

import (
	"github.com/platinummonkey/tabscore/internal/logger"
	"github.com/platinummonkey/tabscore/internal/matcher"
)

// TableScore is the cell-matching result for one predicted table
type TableScore struct {
	Name          string  `json:"name" yaml:"name"`
	AvgIoU        float64 `json:"avg_iou" yaml:"avg_iou"`
	AvgSimilarity float64 `json:"avg_similarity" yaml:"avg_similarity"`
	Matches       int     `json:"matches" yaml:"matches"`

	// Predicted and GroundTruth are the cell counts before matching
	Predicted   int `json:"predicted_cells" yaml:"predicted_cells"`
	GroundTruth int `json:"ground_truth_cells" yaml:"ground_truth_cells"`

	sumIoU        float64
	sumSimilarity float64
}

// ScoreTable averages IoU and similarity over the matches of one table.
// similarities[i] belongs to matches[i]. A table without matches scores 0.
func ScoreTable(name string, matches []matcher.Match, similarities []float64, stats matcher.Stats, log *logger.Logger) TableScore {
	s := TableScore{
		Name:        name,
		Matches:     len(matches),
		Predicted:   stats.Predicted,
		GroundTruth: stats.GroundTruth,
	}

	for i, m := range matches {
		s.sumIoU += m.IoU
		if i < len(similarities) {
			s.sumSimilarity += similarities[i]
		}
	}

	if s.Matches == 0 {
		if log != nil {
			log.WithTable(name).Warn("No cells matched; table scores 0")
		}
		return s
	}

	s.AvgIoU = s.sumIoU / float64(s.Matches)
	s.AvgSimilarity = s.sumSimilarity / float64(s.Matches)
	return s
}

// TEDSScore is the structural similarity of one predicted table
type TEDSScore struct {
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
}

// CorpusScore is the final aggregate of a run
type CorpusScore struct {
	AvgIoU        float64 `json:"avg_iou" yaml:"avg_iou"`
	AvgSimilarity float64 `json:"avg_similarity" yaml:"avg_similarity"`
	TotalMatches  int     `json:"total_matches" yaml:"total_matches"`
	Tables        int     `json:"tables" yaml:"tables"`
	AvgTEDS       float64 `json:"avg_teds" yaml:"avg_teds"`
	TEDSTables    int     `json:"teds_tables" yaml:"teds_tables"`
}

// Aggregator accumulates table scores. Corpus averages are weighted by
// match count, so a table with many cells weighs more than a small one.
type Aggregator struct {
	sumIoU        float64
	sumSimilarity float64
	matches       int
	tables        int
	sumTEDS       float64
	tedsTables    int
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AddTable folds in one table's cell scores
func (a *Aggregator) AddTable(s TableScore) {
	a.sumIoU += s.sumIoU
	a.sumSimilarity += s.sumSimilarity
	a.matches += s.Matches
	a.tables++
}

// AddTEDS folds in one table's structural score
func (a *Aggregator) AddTEDS(s TEDSScore) {
	a.sumTEDS += s.Score
	a.tedsTables++
}

// Merge adds the totals of other into a
func (a *Aggregator) Merge(other *Aggregator) {
	if other == nil {
		return
	}
	a.sumIoU += other.sumIoU
	a.sumSimilarity += other.sumSimilarity
	a.matches += other.matches
	a.tables += other.tables
	a.sumTEDS += other.sumTEDS
	a.tedsTables += other.tedsTables
}

// Finalize computes corpus averages. Empty denominators give 0 and a warning.
func (a *Aggregator) Finalize(log *logger.Logger) CorpusScore {
	c := CorpusScore{
		TotalMatches: a.matches,
		Tables:       a.tables,
		TEDSTables:   a.tedsTables,
	}

	if a.matches > 0 {
		c.AvgIoU = a.sumIoU / float64(a.matches)
		c.AvgSimilarity = a.sumSimilarity / float64(a.matches)
	} else if a.tables > 0 && log != nil {
		log.WithFields("tables", a.tables).Warn("No cells matched across the corpus; averages are 0")
	}

	if a.tedsTables > 0 {
		c.AvgTEDS = a.sumTEDS / float64(a.tedsTables)
	}

	if a.tables == 0 && a.tedsTables == 0 && log != nil {
		log.Warn("No tables were scored; averages are 0")
	}

	return c
}
