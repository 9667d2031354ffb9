package eval

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Track names the kind of evaluation a result belongs to
type Track string

const (
	// TrackCells is IoU matching plus text similarity
	TrackCells Track = "cells"

	// TrackTEDS is tree-edit-distance structural scoring
	TrackTEDS Track = "teds"
)

// Result contains the outcome of one evaluation run
type Result struct {
	RunID     string
	Track     Track
	Backend   string
	StartTime time.Time
	Duration  time.Duration

	// TotalTables counts every table the run attempted
	TotalTables int

	Tables   []TableScore
	TEDS     []TEDSScore
	Failures []TableFailure
	Corpus   CorpusScore
}

// TableFailure records a table that could not be scored
type TableFailure struct {
	Name  string
	Error error
}

// NewResult creates an empty result with a fresh run ID
func NewResult(track Track) *Result {
	return &Result{
		RunID:     uuid.New().String(),
		Track:     track,
		StartTime: time.Now(),
		Tables:    make([]TableScore, 0),
		TEDS:      make([]TEDSScore, 0),
		Failures:  make([]TableFailure, 0),
	}
}

// AddTable records a scored table
func (r *Result) AddTable(s TableScore) {
	r.Tables = append(r.Tables, s)
}

// AddTEDS records a structurally scored table
func (r *Result) AddTEDS(s TEDSScore) {
	r.TEDS = append(r.TEDS, s)
}

// AddError records a failed table
func (r *Result) AddError(name string, err error) {
	r.Failures = append(r.Failures, TableFailure{Name: name, Error: err})
}

// SuccessCount returns the number of scored tables
func (r *Result) SuccessCount() int {
	return len(r.Tables) + len(r.TEDS)
}

// FailureCount returns the number of failed tables
func (r *Result) FailureCount() int {
	return len(r.Failures)
}

// HasFailures returns true if any table failed
func (r *Result) HasFailures() bool {
	return len(r.Failures) > 0
}

// Summary returns a human-readable summary of the run
func (r *Result) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Evaluation Summary (%s):\n", r.Track)
	fmt.Fprintf(&sb, "  Run ID: %s\n", r.RunID)
	fmt.Fprintf(&sb, "  Total Tables: %d\n", r.TotalTables)
	fmt.Fprintf(&sb, "  Scored: %d\n", r.SuccessCount())
	fmt.Fprintf(&sb, "  Failed: %d\n", r.FailureCount())
	fmt.Fprintf(&sb, "  Duration: %v\n", r.Duration)

	if r.HasFailures() {
		sb.WriteString("\nFailures:\n")
		for _, failure := range r.Failures {
			fmt.Fprintf(&sb, "  - %s: %v\n", failure.Name, failure.Error)
		}
	}

	return sb.String()
}

// String returns a string representation of the result
func (r *Result) String() string {
	return r.Summary()
}
