// Package report renders evaluation results for the console or for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/tabscore/internal/eval"
)

// Format names an output format
type Format string

const (
	// FormatText prints one line per table and the corpus averages
	FormatText Format = "text"

	// FormatJSON prints the full report as indented JSON
	FormatJSON Format = "json"

	// FormatYAML prints the full report as YAML
	FormatYAML Format = "yaml"
)

// Report is the serializable form of an evaluation result
type Report struct {
	RunID    string            `json:"run_id" yaml:"run_id"`
	Track    string            `json:"track" yaml:"track"`
	Backend  string            `json:"backend,omitempty" yaml:"backend,omitempty"`
	Duration string            `json:"duration" yaml:"duration"`
	Tables   []eval.TableScore `json:"tables,omitempty" yaml:"tables,omitempty"`
	TEDS     []eval.TEDSScore  `json:"teds,omitempty" yaml:"teds,omitempty"`
	Failures []Failure         `json:"failures" yaml:"failures"`
	Corpus   eval.CorpusScore  `json:"corpus" yaml:"corpus"`
}

// Failure is a table that could not be scored
type Failure struct {
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error" yaml:"error"`
}

// FromResult converts a result into a report
func FromResult(r *eval.Result) *Report {
	rep := &Report{
		RunID:    r.RunID,
		Track:    string(r.Track),
		Backend:  r.Backend,
		Duration: r.Duration.String(),
		Tables:   r.Tables,
		TEDS:     r.TEDS,
		Failures: make([]Failure, 0, len(r.Failures)),
		Corpus:   r.Corpus,
	}
	for _, f := range r.Failures {
		msg := ""
		if f.Error != nil {
			msg = f.Error.Error()
		}
		rep.Failures = append(rep.Failures, Failure{Name: f.Name, Error: msg})
	}
	return rep
}

// Write renders r to w in the given format
func Write(w io.Writer, r *eval.Result, format Format) error {
	switch format {
	case FormatText, "":
		return writeText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(FromResult(r)); err != nil {
			return fmt.Errorf("failed to encode JSON report: %w", err)
		}
		return nil
	case FormatYAML:
		data, err := yaml.Marshal(FromResult(r))
		if err != nil {
			return fmt.Errorf("failed to encode YAML report: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

func writeText(w io.Writer, r *eval.Result) error {
	ew := &errWriter{w: w}

	switch r.Track {
	case eval.TrackTEDS:
		for _, s := range r.TEDS {
			ew.printf("TEDS: %.4f, Filename: %s\n", s.Score, s.Name)
		}
		ew.printf("\nAverage TEDS Score: %.4f\n", r.Corpus.AvgTEDS)

	default:
		for _, s := range r.Tables {
			ew.printf("Avg IoU: %.2f, Avg Similarity: %.2f, Filename: %s\n", s.AvgIoU, s.AvgSimilarity, s.Name)
		}
		ew.printf("\nOverall Avg IoU: %.2f\n", r.Corpus.AvgIoU)
		ew.printf("Overall Avg Similarity: %.2f\n", r.Corpus.AvgSimilarity)
	}

	return ew.err
}

// errWriter keeps the first write error and skips later writes
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
