package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildCLI compiles cmd/tabscore into a temporary directory
func buildCLI(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "tabscore-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../cmd/tabscore")
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\nOutput: %s", err, output)
	}
	return binaryPath
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// tedsCorpus writes one resolvable table, one table without a prediction
// and a malformed line, and returns the annotation, prediction and JSONL paths
func tedsCorpus(t *testing.T) (annRoot, predRoot, jsonl string) {
	t.Helper()

	root := t.TempDir()
	annRoot = filepath.Join(root, "annotations")
	predRoot = filepath.Join(root, "html")
	jsonl = filepath.Join(root, "gt.jsonl")

	writeFile(t, filepath.Join(annRoot, "AAPL_2012_page_40_tables.json"), `[
		{"pdf_folder": "AAPL/2012", "pdf_file_name": "page_40.pdf", "fintabnet_source_table_id": 7, "document_table_index": 0},
		{"pdf_folder": "AAPL/2012", "pdf_file_name": "page_40.pdf", "fintabnet_source_table_id": 8, "document_table_index": 1}
	]`)
	writeFile(t, filepath.Join(predRoot, "AAPL_2012_page_40_table_0_0.html"),
		`<html><body><table><thead><th>Item</th><th>2012</th></thead><tr><td>Revenue</td><td>156,508</td></tr></table></body></html>`)

	tokens := `["<table>", "<tr>", "<td>", "</td>", "<td>", "</td>", "</tr>", "<tr>", "<td>", "</td>", "<td>", "</td>", "</tr>", "</table>"]`
	writeFile(t, jsonl, strings.Join([]string{
		`{"table_id": 7, "filename": "AAPL/2012/page_40.pdf", "html": {"structure": {"tokens": ` + tokens + `}}}`,
		`{"table_id": 8, "filename": "AAPL/2012/page_40.pdf", "html": {"structure": {"tokens": ` + tokens + `}}}`,
		`not json`,
	}, "\n"))

	return annRoot, predRoot, jsonl
}
