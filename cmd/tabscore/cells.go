package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/tabscore/internal/config"
	"github.com/platinummonkey/tabscore/internal/eval"
	"github.com/platinummonkey/tabscore/internal/extract"
	"github.com/platinummonkey/tabscore/internal/logger"
	"github.com/platinummonkey/tabscore/internal/ocr"
	"github.com/platinummonkey/tabscore/internal/pdftext"
	"github.com/platinummonkey/tabscore/internal/report"
	"github.com/platinummonkey/tabscore/internal/similarity"
)

// cellsCmd represents the cells command
var cellsCmd = &cobra.Command{
	Use:   "cells",
	Short: "Score predicted cells by IoU and text similarity",
	Long: `Score every predicted objects file under the prediction root.

For each file this command:
1. Loads the predicted cells and the matching ground-truth table
2. Maps predicted boxes from image space into PDF space
3. Reads the text of every cell from the PDF (or OCR of the page)
4. Greedily matches predicted to ground-truth cells by IoU
5. Compares the text of matched cells with the similarity backend

Reading the PDF text layer needs a UniDoc license key, taken from
--unidoc-license-key or UNIDOC_LICENSE_API_KEY (a .env file works too).

Tables that cannot be scored are reported as failures and left out of
the averages.

Examples:
  # Score with a local Ollama embedding model
  tabscore cells --pdf-root pdfs --annotation-root annotations --prediction-root out

  # Use OpenAI embeddings and four workers, report as JSON
  tabscore cells --similarity-provider openai --workers 4 --report-format json

  # Read cell text with Tesseract instead of the PDF text layer
  tabscore cells --text-source ocr --ocr-languages eng`,
	RunE: runCells,
}

func init() {
	rootCmd.AddCommand(cellsCmd)

	flags := cellsCmd.Flags()
	flags.String("prediction-suffix", "_0_objects.json", "suffix of predicted objects files")
	flags.Float64("iou-threshold", 0.5, "minimum IoU for a cell match")
	flags.String("text-source", "pdf", "where cell text comes from (pdf, ocr)")
	flags.String("unidoc-license-key", "", "UniDoc metered API key for reading the PDF text layer")
	flags.String("ocr-languages", "eng", "Tesseract languages, joined by +")
	flags.Int("ocr-dpi", 300, "page render resolution for OCR")
	flags.String("similarity-provider", "ollama", "similarity backend (ollama, openai, google, onnx, anthropic)")
	flags.String("similarity-model", "", "model name (default depends on provider)")
	flags.String("similarity-endpoint", "", "override the backend API host (default depends on provider)")
	flags.Bool("health-check", false, "check the similarity backend before scoring")

	bindFlags(cellsCmd, "prediction-suffix", "iou-threshold", "text-source", "unidoc-license-key", "ocr-languages", "ocr-dpi",
		"similarity-provider", "similarity-model", "similarity-endpoint", "health-check")
}

func runCells(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if err := cfg.RequirePDFLicense(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	scorer, err := similarity.New(ctx, cfg.SimilarityOptions(), log)
	if err != nil {
		return fmt.Errorf("failed to create similarity backend: %w", err)
	}
	if c, ok := scorer.(io.Closer); ok {
		defer c.Close()
	}

	runner, err := eval.New(&eval.Config{
		Config:     cfg,
		Logger:     log,
		Similarity: scorer,
		Sources:    sourceOpener(cfg, log),
	})
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	result, err := runner.RunCells(ctx)
	if err != nil {
		return fmt.Errorf("cell evaluation failed: %w", err)
	}

	return writeReport(cfg, log, result)
}

// sourceOpener returns the text source for the configured mode
func sourceOpener(cfg *config.Config, log *logger.Logger) eval.SourceOpener {
	if cfg.TextSource == config.TextSourceOCR {
		ocrCfg := &ocr.Config{
			Logger:    log,
			Languages: cfg.OCRLanguageList(),
			DPI:       cfg.OCRDPI,
		}
		return func(ctx context.Context, path string) (extract.TextSource, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			src, err := ocr.Open(path, 1, ocrCfg)
			if err != nil {
				return nil, err
			}
			return src, nil
		}
	}

	pdfCfg := &pdftext.Config{Logger: log}
	return func(ctx context.Context, path string) (extract.TextSource, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := pdftext.Open(path, pdfCfg)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

// writeReport prints the result to stdout and logs the failure count
func writeReport(cfg *config.Config, log *logger.Logger, result *eval.Result) error {
	if err := report.Write(os.Stdout, result, report.Format(cfg.ReportFormat)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if result.HasFailures() {
		log.WithFields("failed", result.FailureCount(), "scored", result.SuccessCount()).
			Warn("Some tables could not be scored")
	}
	return nil
}
