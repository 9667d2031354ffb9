package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/platinummonkey/tabscore/internal/config"
	"github.com/platinummonkey/tabscore/internal/logger"
	"github.com/platinummonkey/tabscore/internal/pdftext"
)

var (
	cfgFile string

	// v collects flag values; config.LoadWith layers env vars and the
	// config file underneath them
	v = viper.New()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tabscore",
	Short: "Score table extraction output against ground truth",
	Long: `tabscore evaluates table-extraction results against annotated ground truth.

Tracks:
  - cells: match predicted cells to ground-truth cells by IoU and compare
    their text with an embedding or judge model
  - teds:  compare predicted table HTML with ground-truth structure tokens
    using tree edit distance

Configuration is read from flags, TABSCORE_* environment variables,
a .env file in the working directory and $HOME/.tabscore.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tabscore.yaml)")
	flags.String("pdf-root", ".", "directory holding the source PDFs")
	flags.String("annotation-root", ".", "directory holding ground-truth annotation JSON files")
	flags.String("prediction-root", ".", "directory holding predicted objects or HTML files")
	flags.Int("workers", 1, "number of tables scored concurrently")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("log-file", "", "also append logs to this file")
	flags.String("report-format", "text", "report format (text, json, yaml)")

	bindFlags(rootCmd, "pdf-root", "annotation-root", "prediction-root", "workers",
		"log-level", "log-format", "log-file", "report-format")
}

// bindFlags binds flags of cmd to the viper keys of the same name
func bindFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		_ = v.BindPFlag(name, f)
	}
}

// setup loads .env, the configuration and the logger
func setup() (*config.Config, *logger.Logger, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	cfg, err := config.LoadWith(v, cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Init(&logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: cfg.LogFile,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.UnidocLicenseKey != "" {
		if err := pdftext.SetLicense(cfg.UnidocLicenseKey); err != nil {
			return nil, nil, err
		}
	}

	log := logger.Get()
	log.Debugf("Configuration: %s", cfg)
	if used := v.ConfigFileUsed(); used != "" {
		logger.WithFields("path", used).Info("Using config file")
	}

	return cfg, log, nil
}
