package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/tabscore/internal/eval"
)

// tedsCmd represents the teds command
var tedsCmd = &cobra.Command{
	Use:   "teds",
	Short: "Score predicted table HTML by tree edit distance",
	Long: `Score predicted table HTML against ground-truth structure tokens.

Each line of the ground-truth JSONL file names a source PDF, a table id
and the structure tokens of the table. The predicted HTML file is found
through the annotation file of that PDF.

By default only structure is compared; --structure-only=false also
charges for differing cell text.

Examples:
  tabscore teds --gt-jsonl FinTabNet_1.0.0_table_test.jsonl \
    --annotation-root annotations --prediction-root html`,
	RunE: runTEDS,
}

func init() {
	rootCmd.AddCommand(tedsCmd)

	flags := tedsCmd.Flags()
	flags.String("gt-jsonl", "", "ground-truth JSONL file (required)")
	flags.Bool("structure-only", true, "ignore cell text when comparing")

	bindFlags(tedsCmd, "gt-jsonl", "structure-only")
}

func runTEDS(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	if cfg.GroundTruthJSONL == "" {
		return fmt.Errorf("--gt-jsonl is required")
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	runner, err := eval.New(&eval.Config{
		Config: cfg,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	result, err := runner.RunTEDS(ctx)
	if err != nil {
		return fmt.Errorf("structural evaluation failed: %w", err)
	}

	return writeReport(cfg, log, result)
}
