// Package eval runs the cell-matching and structural evaluations over a
// corpus and aggregates their scores.
package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/tabscore/internal/config"
	"github.com/platinummonkey/tabscore/internal/extract"
	"github.com/platinummonkey/tabscore/internal/logger"
	"github.com/platinummonkey/tabscore/internal/matcher"
	"github.com/platinummonkey/tabscore/internal/similarity"
	"github.com/platinummonkey/tabscore/internal/teds"
)

// SourceOpener opens the text source for a PDF
type SourceOpener func(ctx context.Context, pdfPath string) (extract.TextSource, error)

// Runner coordinates an evaluation run
type Runner struct {
	config     *config.Config
	logger     *logger.Logger
	similarity similarity.TextSimilarity
	sources    SourceOpener
	teds       teds.TreeEditScorer
	resolver   *teds.Resolver
}

// Config holds the collaborators of a Runner
type Config struct {
	Config *config.Config
	Logger *logger.Logger

	// Similarity and Sources are required by RunCells
	Similarity similarity.TextSimilarity
	Sources    SourceOpener

	// TEDS defaults to a structure scorer following Config.StructureOnly
	TEDS teds.TreeEditScorer
}

// New creates a new runner
func New(cfg *Config) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Config == nil {
		return nil, fmt.Errorf("config.Config is required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Get()
	}

	scorer := cfg.TEDS
	if scorer == nil {
		scorer = teds.NewStructureScorer(teds.WithStructureOnly(cfg.Config.StructureOnly))
	}

	return &Runner{
		config:     cfg.Config,
		logger:     log,
		similarity: cfg.Similarity,
		sources:    cfg.Sources,
		teds:       scorer,
		resolver:   teds.NewResolver(cfg.Config.AnnotationRoot, cfg.Config.PredictionRoot),
	}, nil
}

// tableOutcome is the result of scoring one table, kept by input index
type tableOutcome struct {
	name  string
	cells TableScore
	teds  TEDSScore
	err   error
}

// RunCells scores every predicted objects file under the prediction root.
// Table-level failures are recorded in the result; only an unreadable
// prediction directory or a failed health check aborts the run.
func (r *Runner) RunCells(ctx context.Context) (*Result, error) {
	if r.similarity == nil {
		return nil, fmt.Errorf("similarity backend is required")
	}
	if r.sources == nil {
		return nil, fmt.Errorf("text source opener is required")
	}

	if r.config.HealthCheck {
		if err := r.healthCheck(ctx); err != nil {
			return nil, err
		}
	}

	r.logger.WithOperation("cells").Info("Starting cell evaluation")

	files, err := r.listPredictions()
	if err != nil {
		return nil, err
	}
	r.logger.WithFields("count", len(files), "root", r.config.PredictionRoot).Info("Found predicted tables")

	result := NewResult(TrackCells)
	result.Backend = r.similarity.Name()
	result.TotalTables = len(files)

	outcomes := r.fanOut(ctx, len(files), func(ctx context.Context, i int) tableOutcome {
		score, err := r.scoreCells(ctx, files[i])
		return tableOutcome{cells: score, err: err}
	})

	agg := NewAggregator()
	for i, o := range outcomes {
		if o.err != nil {
			r.logger.WithTable(files[i]).WithError(o.err).Error("Table evaluation failed")
			result.AddError(files[i], o.err)
			continue
		}
		result.AddTable(o.cells)
		agg.AddTable(o.cells)
	}

	result.Corpus = agg.Finalize(r.logger)
	result.Duration = time.Since(result.StartTime)

	r.logger.WithFields(
		"run_id", result.RunID,
		"total", result.TotalTables,
		"scored", len(result.Tables),
		"failed", result.FailureCount(),
		"duration", result.Duration,
	).Info("Cell evaluation completed")

	return result, nil
}

// RunTEDS scores every record of the ground-truth JSONL file. Malformed
// lines and unresolvable tables are recorded as failures, never as zeros.
func (r *Runner) RunTEDS(ctx context.Context) (*Result, error) {
	r.logger.WithOperation("teds").Info("Starting structural evaluation")

	records, bad, err := teds.LoadRecords(r.config.GroundTruthJSONL)
	if err != nil {
		return nil, fmt.Errorf("failed to load ground truth: %w", err)
	}

	result := NewResult(TrackTEDS)
	result.TotalTables = len(records) + len(bad)

	for _, lineErr := range bad {
		r.logger.WithError(lineErr).Warn("Skipping malformed ground-truth line")
		result.AddError(lineName(lineErr), lineErr)
	}

	outcomes := r.fanOut(ctx, len(records), func(ctx context.Context, i int) tableOutcome {
		score, err := r.scoreTEDS(ctx, records[i])
		return tableOutcome{name: score.Name, teds: score, err: err}
	})

	agg := NewAggregator()
	for i, o := range outcomes {
		if o.name == "" {
			o.name = recordName(records[i])
		}
		if o.err != nil {
			r.logger.WithTable(o.name).WithError(o.err).Warn("Skipping table")
			result.AddError(o.name, o.err)
			continue
		}
		result.AddTEDS(o.teds)
		agg.AddTEDS(o.teds)
	}

	result.Corpus = agg.Finalize(r.logger)
	result.Duration = time.Since(result.StartTime)

	r.logger.WithFields(
		"run_id", result.RunID,
		"total", result.TotalTables,
		"scored", len(result.TEDS),
		"failed", result.FailureCount(),
		"duration", result.Duration,
	).Info("Structural evaluation completed")

	return result, nil
}

// fanOut runs fn for indices [0, n) on up to Workers goroutines and returns
// the outcomes in index order
func (r *Runner) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) tableOutcome) []tableOutcome {
	outcomes := make([]tableOutcome, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.config.Workers))

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i] = tableOutcome{err: err}
				return nil
			}
			outcomes[i] = fn(gctx, i)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// scoreCells runs the full pipeline for one predicted objects file
func (r *Runner) scoreCells(ctx context.Context, file string) (TableScore, error) {
	log := r.logger.WithTable(file)
	start := time.Now()

	name, err := extract.ParsePredictionName(file)
	if err != nil {
		return TableScore{}, err
	}

	objects, err := extract.LoadPredictions(filepath.Join(r.config.PredictionRoot, file))
	if err != nil {
		return TableScore{}, err
	}

	tables, err := extract.LoadGroundTruth(filepath.Join(r.config.AnnotationRoot, name.GroundTruth))
	if err != nil {
		return TableScore{}, err
	}

	table, err := extract.TableAt(tables, name.TableNumber)
	if err != nil {
		return TableScore{}, err
	}

	source, err := r.sources(ctx, table.PDFPath(r.config.PDFRoot))
	if err != nil {
		return TableScore{}, err
	}
	if c, ok := source.(io.Closer); ok {
		defer c.Close()
	}

	predicted, err := extract.NewPredictedExtractor(source, log).Extract(ctx, objects, table.PDFTableBBox)
	if err != nil {
		return TableScore{}, err
	}

	groundTruth, err := extract.GroundTruthExtractor{}.Extract(tables, name.TableNumber)
	if err != nil {
		return TableScore{}, err
	}

	matches, stats := matcher.GreedyWithStats(predicted, groundTruth,
		matcher.WithThreshold(r.config.IoUThreshold),
		matcher.WithLogger(log),
	)

	pairs := make([]similarity.Pair, len(matches))
	for i, m := range matches {
		pairs[i] = similarity.Pair{A: m.Predicted.Text, B: m.GroundTruth.Text}
	}

	var similarities []float64
	if len(pairs) > 0 {
		similarities, err = r.similarity.ComputeBatch(ctx, pairs)
		if err != nil {
			return TableScore{}, err
		}
	}

	score := ScoreTable(file, matches, similarities, stats, log)

	log.WithFields(
		"matches", score.Matches,
		"unmatched", stats.Unmatched(),
		"avg_iou", score.AvgIoU,
		"avg_similarity", score.AvgSimilarity,
		"duration", time.Since(start),
	).Debug("Table scored")

	return score, nil
}

// scoreTEDS resolves, normalizes and scores one ground-truth record
func (r *Runner) scoreTEDS(ctx context.Context, rec teds.Record) (TEDSScore, error) {
	score := TEDSScore{Name: recordName(rec)}

	path, markup, err := r.resolver.ReadPrediction(rec)
	if err != nil {
		return score, err
	}
	score.Name = filepath.Base(path)

	predicted, err := teds.NormalizePredicted(markup)
	if err != nil {
		return score, fmt.Errorf("normalize %s: %w", score.Name, err)
	}

	value, err := r.teds.Score(ctx, predicted, teds.NormalizeGroundTruth(rec.HTML.Structure.Tokens))
	if err != nil {
		return score, err
	}
	score.Score = value

	r.logger.WithTable(score.Name).WithFields("teds", value).Debug("Table scored")
	return score, nil
}

// listPredictions returns predicted objects file names in sorted order
func (r *Runner) listPredictions() ([]string, error) {
	entries, err := os.ReadDir(r.config.PredictionRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: list predictions: %v", extract.ErrMissingResource, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), r.config.PredictionSuffix) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	return files, nil
}

func (r *Runner) healthCheck(ctx context.Context) error {
	hc, ok := r.similarity.(interface {
		HealthCheck(ctx context.Context) error
	})
	if !ok {
		return nil
	}

	r.logger.WithFields("backend", r.similarity.Name()).Info("Checking similarity backend")
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("similarity backend unavailable: %w", err)
	}
	return nil
}

func recordName(rec teds.Record) string {
	return fmt.Sprintf("%s#%s", rec.Filename, rec.TableIDString())
}

func lineName(err error) string {
	var le *teds.LineError
	if errors.As(err, &le) {
		return fmt.Sprintf("line %d", le.Line)
	}
	return "unknown line"
}
