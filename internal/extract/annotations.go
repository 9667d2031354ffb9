// Package extract loads predicted and ground-truth table annotations and
// turns them into cells ready for matching.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// PredictedObject is one detected cell in rendered-image space
type PredictedObject struct {
	BBox       []float64 `json:"bbox"`
	ColumnNums []int     `json:"column_nums"`
	RowNums    []int     `json:"row_nums"`
}

// CellAnnotation is one annotated ground-truth cell in PDF space
type CellAnnotation struct {
	Text    string    `json:"json_text_content"`
	PDFBBox []float64 `json:"pdf_bbox"`
}

// TableAnnotation is one ground-truth table record from a *_tables.json file
type TableAnnotation struct {
	PDFFolder          string           `json:"pdf_folder"`
	PDFFileName        string           `json:"pdf_file_name"`
	PDFTableBBox       []float64        `json:"pdf_table_bbox"`
	SourceTableID      json.RawMessage  `json:"fintabnet_source_table_id,omitempty"`
	DocumentTableIndex int              `json:"document_table_index"`
	Cells              []CellAnnotation `json:"cells"`
}

// PDFPath returns the source PDF location under root
func (t TableAnnotation) PDFPath(root string) string {
	return filepath.Join(root, t.PDFFolder, t.PDFFileName)
}

// SourceTableIDString returns the source table id as text, whether it was
// stored as a JSON number or string
func (t TableAnnotation) SourceTableIDString() string {
	raw := bytes.TrimSpace(t.SourceTableID)
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// LoadPredictions reads a predicted objects file
func LoadPredictions(path string) ([]PredictedObject, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var objects []PredictedObject
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("%w: decode predictions %s: %v", ErrMalformedRecord, path, err)
	}

	return objects, nil
}

// LoadGroundTruth reads a ground-truth tables file. Invalid UTF-8 sequences
// are dropped before decoding.
func LoadGroundTruth(path string) ([]TableAnnotation, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var tables []TableAnnotation
	if err := json.Unmarshal(bytes.ToValidUTF8(data, nil), &tables); err != nil {
		return nil, fmt.Errorf("%w: decode ground truth %s: %v", ErrMalformedRecord, path, err)
	}

	return tables, nil
}

// TableAt returns the table with the given index or ErrMissingResource
func TableAt(tables []TableAnnotation, index int) (TableAnnotation, error) {
	if index < 0 || index >= len(tables) {
		return TableAnnotation{}, fmt.Errorf("%w: table %d out of range (%d tables)", ErrMissingResource, index, len(tables))
	}
	return tables[index], nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingResource, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrMissingResource, path, err)
	}
	return data, nil
}
