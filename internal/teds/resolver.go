package teds

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/platinummonkey/tabscore/internal/extract"
)

// Resolver locates the predicted HTML file for a ground-truth record through
// the per-document table annotations
type Resolver struct {
	annotationRoot string
	predictionRoot string

	mu    sync.Mutex
	cache map[string][]extract.TableAnnotation
}

// NewResolver creates a resolver over the annotation and prediction directories
func NewResolver(annotationRoot, predictionRoot string) *Resolver {
	return &Resolver{
		annotationRoot: annotationRoot,
		predictionRoot: predictionRoot,
		cache:          make(map[string][]extract.TableAnnotation),
	}
}

// AnnotationName maps a source PDF name such as "ADS/2007/page_97.pdf" to
// its annotation file name "ADS_2007_page_97_tables.json"
func AnnotationName(pdfFilename string) string {
	name := strings.ReplaceAll(pdfFilename, "/", "_")
	return strings.ReplaceAll(name, ".pdf", "_tables.json")
}

// PredictionName derives the predicted HTML name for the table at index from
// an annotation file name
func PredictionName(annotationName string, index int) string {
	name := strings.ReplaceAll(annotationName, "tables", "table_0_"+strconv.Itoa(index))
	return strings.ReplaceAll(name, ".json", ".html")
}

// Resolve returns the predicted HTML path for rec. A missing annotation
// file, a record without a table id or an unknown table id yields
// ErrMissingResource.
func (r *Resolver) Resolve(rec Record) (string, error) {
	annName := AnnotationName(rec.Filename)

	tables, err := r.annotations(annName)
	if err != nil {
		return "", err
	}

	id := rec.TableIDString()
	if id == "" || id == "null" {
		return "", fmt.Errorf("%w: record for %s has no table_id", extract.ErrMissingResource, rec.Filename)
	}
	for _, t := range tables {
		if t.SourceTableIDString() == id {
			return filepath.Join(r.predictionRoot, PredictionName(annName, t.DocumentTableIndex)), nil
		}
	}

	return "", fmt.Errorf("%w: no annotation for table_id %s in %s", extract.ErrMissingResource, id, annName)
}

// ReadPrediction resolves rec and returns the predicted markup
func (r *Resolver) ReadPrediction(rec Record) (string, string, error) {
	path, err := r.Resolve(rec)
	if err != nil {
		return "", "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return path, "", fmt.Errorf("%w: read prediction %s: %v", extract.ErrMissingResource, path, err)
	}
	return path, string(data), nil
}

func (r *Resolver) annotations(name string) ([]extract.TableAnnotation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tables, ok := r.cache[name]; ok {
		return tables, nil
	}

	tables, err := extract.LoadGroundTruth(filepath.Join(r.annotationRoot, name))
	if err != nil {
		return nil, err
	}
	r.cache[name] = tables
	return tables, nil
}
