package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPredictionSuffix selects the first detection of each table
const DefaultPredictionSuffix = "_0_objects.json"

var tableNumberPattern = regexp.MustCompile(`table_(\d+)_`)

// PredictionName describes a {basename}_table_{N}_{index}_objects.json file
type PredictionName struct {
	File        string
	TableNumber int
	GroundTruth string
}

// ParsePredictionName extracts the table number and the companion
// ground-truth file name from a predicted objects file name
func ParsePredictionName(name string) (PredictionName, error) {
	m := tableNumberPattern.FindStringSubmatch(name)
	if m == nil {
		return PredictionName{}, fmt.Errorf("%w: no table number in %q", ErrMalformedRecord, name)
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return PredictionName{}, fmt.Errorf("%w: table number in %q: %v", ErrMalformedRecord, name, err)
	}

	return PredictionName{
		File:        name,
		TableNumber: n,
		GroundTruth: GroundTruthName(name),
	}, nil
}

// GroundTruthName replaces everything from the first "table" onward with
// "tables.json"
func GroundTruthName(name string) string {
	i := strings.Index(name, "table")
	if i < 0 {
		return name
	}
	return name[:i] + "tables.json"
}
