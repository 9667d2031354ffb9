package integration

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestCLIBuild tests that the CLI binary can be built
func TestCLIBuild(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI build test in short mode")
	}

	binaryPath := buildCLI(t)

	info, err := os.Stat(binaryPath)
	if err != nil {
		t.Fatalf("Failed to stat binary: %v", err)
	}
	if info.Mode()&0111 == 0 {
		t.Error("Binary should be executable")
	}
}

// TestCLIVersion tests the version command
func TestCLIVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI test in short mode")
	}

	output, err := exec.Command(buildCLI(t), "version").CombinedOutput()
	if err != nil {
		t.Fatalf("Version command failed: %v\nOutput: %s", err, output)
	}

	if !strings.Contains(string(output), "tabscore version") {
		t.Errorf("Version output should contain 'tabscore version'\nOutput: %s", output)
	}
}

// TestCLIHelp tests the help command and flag
func TestCLIHelp(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI test in short mode")
	}

	binaryPath := buildCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"help command", []string{"help"}},
		{"help flag", []string{"--help"}},
		{"cells help", []string{"cells", "--help"}},
		{"teds help", []string{"teds", "--help"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, _ := exec.Command(binaryPath, tt.args...).CombinedOutput()

			outputStr := string(output)
			if !strings.Contains(outputStr, "Usage:") && !strings.Contains(outputStr, "Available Commands") {
				t.Errorf("Help output should contain usage information\nOutput: %s", outputStr)
			}
		})
	}
}

// TestCLIFlags tests that command flags are recognized
func TestCLIFlags(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI test in short mode")
	}

	binaryPath := buildCLI(t)

	tests := []struct {
		name  string
		flags []string
	}{
		{"roots", []string{"cells", "--pdf-root", ".", "--annotation-root", ".", "--prediction-root", ".", "--help"}},
		{"threshold", []string{"cells", "--iou-threshold", "0.7", "--help"}},
		{"license", []string{"cells", "--unidoc-license-key", "key", "--help"}},
		{"ocr", []string{"cells", "--text-source", "ocr", "--ocr-languages", "eng+deu", "--ocr-dpi", "200", "--help"}},
		{"similarity", []string{"cells", "--similarity-provider", "openai", "--similarity-model", "text-embedding-3-small", "--help"}},
		{"workers", []string{"teds", "--workers", "4", "--help"}},
		{"structure", []string{"teds", "--gt-jsonl", "gt.jsonl", "--structure-only=false", "--help"}},
		{"report", []string{"teds", "--report-format", "json", "--log-format", "json", "--help"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, _ := exec.Command(binaryPath, tt.flags...).CombinedOutput()

			if strings.Contains(string(output), "unknown flag") {
				t.Errorf("Flag should be recognized\nOutput: %s", output)
			}
		})
	}
}

// TestCLITEDS runs the structural track end to end
func TestCLITEDS(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI test in short mode")
	}

	binaryPath := buildCLI(t)
	annRoot, predRoot, jsonl := tedsCorpus(t)

	cmd := exec.Command(binaryPath, "teds",
		"--gt-jsonl", jsonl,
		"--annotation-root", annRoot,
		"--prediction-root", predRoot,
		"--log-level", "error",
	)
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())

	output, err := cmd.Output()
	if err != nil {
		t.Fatalf("teds command failed: %v\nOutput: %s", err, output)
	}

	want := "TEDS: 1.0000, Filename: AAPL_2012_page_40_table_0_0.html\n\nAverage TEDS Score: 1.0000\n"
	if string(output) != want {
		t.Errorf("stdout = %q, want %q", output, want)
	}
}

// TestCLITEDS_JSONReport checks that failures appear in the JSON report
func TestCLITEDS_JSONReport(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI test in short mode")
	}

	binaryPath := buildCLI(t)
	annRoot, predRoot, jsonl := tedsCorpus(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, configPath, "annotation-root: "+annRoot+"\nprediction-root: "+predRoot+"\nreport-format: json\nlog-level: error\n")

	cmd := exec.Command(binaryPath, "--config", configPath, "teds", "--gt-jsonl", jsonl)
	output, err := cmd.Output()
	if err != nil {
		t.Fatalf("teds command failed: %v\nOutput: %s", err, output)
	}

	var rep struct {
		Track    string `json:"track"`
		Failures []struct {
			Name string `json:"name"`
		} `json:"failures"`
		Corpus struct {
			AvgTEDS    float64 `json:"avg_teds"`
			TEDSTables int     `json:"teds_tables"`
		} `json:"corpus"`
	}
	if err := json.Unmarshal(output, &rep); err != nil {
		t.Fatalf("report is not JSON: %v\nOutput: %s", err, output)
	}

	if rep.Track != "teds" {
		t.Errorf("track = %q, want teds", rep.Track)
	}
	if len(rep.Failures) != 2 {
		t.Errorf("failures = %d, want 2", len(rep.Failures))
	}
	if rep.Corpus.TEDSTables != 1 || rep.Corpus.AvgTEDS != 1 {
		t.Errorf("corpus = %+v", rep.Corpus)
	}
}

// TestCLITEDS_RequiresGroundTruth tests that a missing --gt-jsonl is an error
func TestCLITEDS_RequiresGroundTruth(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI test in short mode")
	}

	cmd := exec.Command(buildCLI(t), "teds")
	cmd.Env = append(os.Environ(), "HOME="+t.TempDir())
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure without --gt-jsonl\nOutput: %s", output)
	}
	if !strings.Contains(string(output), "--gt-jsonl is required") {
		t.Errorf("unexpected output: %s", output)
	}
}

// TestCLICells_RequiresLicense checks that the PDF text source fails before
// scoring when no UniDoc key is configured
func TestCLICells_RequiresLicense(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI test in short mode")
	}

	binaryPath := buildCLI(t)
	cmd := exec.Command(binaryPath, "cells", "--text-source", "pdf", "--prediction-root", t.TempDir())
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(),
		"HOME="+t.TempDir(),
		"UNIDOC_LICENSE_API_KEY=",
		"TABSCORE_UNIDOC_LICENSE_KEY=",
	)

	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure without a license key\nOutput: %s", output)
	}
	if !strings.Contains(string(output), "UNIDOC_LICENSE_API_KEY") {
		t.Errorf("unexpected output: %s", output)
	}
}

// TestCLIInvalidCommand tests error handling for invalid commands
func TestCLIInvalidCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI test in short mode")
	}

	output, _ := exec.Command(buildCLI(t), "invalid-command").CombinedOutput()

	outputStr := string(output)
	if !strings.Contains(outputStr, "unknown command") && !strings.Contains(outputStr, "Error") {
		t.Errorf("Should show error for invalid command\nOutput: %s", outputStr)
	}
}
