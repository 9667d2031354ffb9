package teds

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/platinummonkey/tabscore/internal/extract"
)

// maxLineSize bounds one JSONL record; FinTabNet lines carry full cell lists
const maxLineSize = 64 << 20

// Record is one ground-truth line of the structure JSONL file
type Record struct {
	TableID  json.RawMessage `json:"table_id"`
	Filename string          `json:"filename"`
	HTML     struct {
		Structure struct {
			Tokens []string `json:"tokens"`
		} `json:"structure"`
	} `json:"html"`

	// Line is the 1-based line number in the source file
	Line int `json:"-"`
}

// TableIDString returns the table id as text, whether stored as a number or string
func (r Record) TableIDString() string {
	raw := bytes.TrimSpace(r.TableID)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// LineError reports a JSONL line that could not be decoded
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ReadRecords decodes JSONL records from r in line order. Blank lines are
// ignored; malformed lines are returned as *LineError values alongside the
// records that did decode.
func ReadRecords(r io.Reader) ([]Record, []error, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLineSize)

	var (
		records []Record
		bad     []error
		line    int
	)
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(bytes.ToValidUTF8(data, nil), &rec); err != nil {
			bad = append(bad, &LineError{Line: line, Err: fmt.Errorf("%w: %v", extract.ErrMalformedRecord, err)})
			continue
		}
		rec.Line = line
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, bad, fmt.Errorf("read records: %w", err)
	}

	return records, bad, nil
}

// LoadRecords opens path and reads its JSONL records
func LoadRecords(path string) ([]Record, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", extract.ErrMissingResource, path)
		}
		return nil, nil, fmt.Errorf("%w: open %s: %v", extract.ErrMissingResource, path, err)
	}
	defer f.Close()

	return ReadRecords(f)
}
