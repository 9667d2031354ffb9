// Package config provides configuration management for the tabscore evaluator.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/platinummonkey/tabscore/internal/similarity"
)

// Text source names
const (
	TextSourcePDF = "pdf"
	TextSourceOCR = "ocr"
)

// Report format names
const (
	ReportText = "text"
	ReportJSON = "json"
	ReportYAML = "yaml"
)

// Config holds all configuration settings for an evaluation run.
// Configuration precedence: CLI flags > Environment variables > Config file > Defaults
type Config struct {
	// PDFRoot is the directory holding source PDFs (annotation pdf_folder is relative to it)
	PDFRoot string

	// AnnotationRoot holds the ground-truth *_tables.json files
	AnnotationRoot string

	// PredictionRoot holds predicted objects files (cells) or predicted HTML (teds)
	PredictionRoot string

	// PredictionSuffix selects predicted objects files by name
	PredictionSuffix string

	// GroundTruthJSONL is the structure ground-truth file for the teds command
	GroundTruthJSONL string

	// IoUThreshold is the minimum IoU for a cell match
	IoUThreshold float64

	// Workers is the number of tables scored concurrently
	Workers int

	// LogLevel controls logging verbosity (debug, info, warn, error)
	LogLevel string

	// LogFormat is console or json
	LogFormat string

	// LogFile optionally duplicates log output to a file
	LogFile string

	// ReportFormat is text, json or yaml
	ReportFormat string

	// TextSource reads predicted cell text from the PDF text layer or with OCR
	TextSource string

	// OCRLanguages specifies Tesseract languages (e.g., "eng", "eng+fra")
	OCRLanguages string

	// OCRDPI is the page rendering resolution for OCR
	OCRDPI int

	// StructureOnly ignores cell content in TEDS
	StructureOnly bool

	// HealthCheck checks the similarity backend before scoring
	HealthCheck bool

	// UnidocLicenseKey is the UniDoc metered API key needed to read the PDF
	// text layer. Falls back to UNIDOC_LICENSE_API_KEY.
	UnidocLicenseKey string

	// Similarity configures the text similarity backend
	Similarity SimilarityConfig
}

// SimilarityConfig holds configuration for the similarity backend
type SimilarityConfig struct {
	// Provider is the backend to use (ollama, openai, google, onnx, anthropic)
	Provider string

	// Model is the embedding or judge model (empty selects the provider default)
	Model string

	// Endpoint is the API endpoint (Ollama, or an OpenAI-compatible base URL).
	// Empty selects the provider default.
	Endpoint string

	// APIKey is the API key for cloud providers, populated from:
	// 1. macOS Keychain (if UseKeychain is true)
	// 2. Environment variables:
	//    - OPENAI_API_KEY for OpenAI
	//    - ANTHROPIC_API_KEY for Anthropic
	//    - GOOGLE_API_KEY for Google
	APIKey string

	// MaxRetries is the maximum number of retry attempts for API calls
	MaxRetries int

	// BatchSize is the number of texts per embedding request
	BatchSize int

	// EmptyPlaceholder replaces empty cell text before embedding
	EmptyPlaceholder string

	// Temperature is used by the judge backend
	Temperature float64

	// ONNXModel, ONNXVocab and ONNXLibrary configure the local backend
	ONNXModel   string
	ONNXVocab   string
	ONNXLibrary string

	// UseKeychain enables macOS Keychain lookup for API keys (macOS only)
	UseKeychain bool

	// KeychainServicePrefix is the prefix for keychain service names
	// Service names will be: {prefix}-{provider} (e.g., "tabscore-openai")
	KeychainServicePrefix string
}

// Load reads configuration from multiple sources and returns a Config instance.
// Sources are checked in this order: CLI flags > env vars > config file > defaults
func Load(configFile string) (*Config, error) {
	return LoadWith(viper.New(), configFile)
}

// LoadWith reads configuration into v, which may already carry bound flags
func LoadWith(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
			v.SetConfigName(".tabscore")
			v.SetConfigType("yaml")
		}
	}

	// Config file not found is OK - env vars and defaults still apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("TABSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	config := &Config{
		PDFRoot:          v.GetString("pdf-root"),
		AnnotationRoot:   v.GetString("annotation-root"),
		PredictionRoot:   v.GetString("prediction-root"),
		PredictionSuffix: v.GetString("prediction-suffix"),
		GroundTruthJSONL: v.GetString("gt-jsonl"),
		IoUThreshold:     v.GetFloat64("iou-threshold"),
		Workers:          v.GetInt("workers"),
		LogLevel:         v.GetString("log-level"),
		LogFormat:        v.GetString("log-format"),
		LogFile:          v.GetString("log-file"),
		ReportFormat:     v.GetString("report-format"),
		TextSource:       v.GetString("text-source"),
		OCRLanguages:     v.GetString("ocr-languages"),
		OCRDPI:           v.GetInt("ocr-dpi"),
		StructureOnly:    v.GetBool("structure-only"),
		HealthCheck:      v.GetBool("health-check"),
		UnidocLicenseKey: v.GetString("unidoc-license-key"),
		Similarity: SimilarityConfig{
			Provider:              v.GetString("similarity-provider"),
			Model:                 v.GetString("similarity-model"),
			Endpoint:              v.GetString("similarity-endpoint"),
			MaxRetries:            v.GetInt("similarity-max-retries"),
			BatchSize:             v.GetInt("similarity-batch-size"),
			EmptyPlaceholder:      v.GetString("similarity-empty-placeholder"),
			Temperature:           v.GetFloat64("similarity-temperature"),
			ONNXModel:             v.GetString("onnx-model"),
			ONNXVocab:             v.GetString("onnx-vocab"),
			ONNXLibrary:           v.GetString("onnx-library"),
			UseKeychain:           v.GetBool("use-keychain"),
			KeychainServicePrefix: v.GetString("keychain-service-prefix"),
		},
	}

	if config.UnidocLicenseKey == "" {
		config.UnidocLicenseKey = os.Getenv("UNIDOC_LICENSE_API_KEY")
	}

	config.Similarity.APIKey = loadAPIKeyForProvider(config.Similarity.Provider, config.Similarity.UseKeychain, config.Similarity.KeychainServicePrefix)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("pdf-root", ".")
	v.SetDefault("annotation-root", ".")
	v.SetDefault("prediction-root", ".")
	v.SetDefault("prediction-suffix", "_0_objects.json")
	v.SetDefault("gt-jsonl", "")
	v.SetDefault("iou-threshold", 0.5)
	v.SetDefault("workers", 1)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "console")
	v.SetDefault("log-file", "")
	v.SetDefault("report-format", ReportText)
	v.SetDefault("text-source", TextSourcePDF)
	v.SetDefault("ocr-languages", "eng")
	v.SetDefault("ocr-dpi", 300)
	v.SetDefault("structure-only", true)
	v.SetDefault("health-check", false)
	v.SetDefault("unidoc-license-key", "")

	// Local Ollama embeddings by default
	v.SetDefault("similarity-provider", string(similarity.ProviderOllama))
	v.SetDefault("similarity-model", "")
	v.SetDefault("similarity-endpoint", "")
	v.SetDefault("similarity-max-retries", 3)
	v.SetDefault("similarity-batch-size", similarity.DefaultBatchSize)
	v.SetDefault("similarity-empty-placeholder", similarity.DefaultPlaceholder)
	v.SetDefault("similarity-temperature", 0.0)
	v.SetDefault("onnx-model", "")
	v.SetDefault("onnx-vocab", "")
	v.SetDefault("onnx-library", "")
	v.SetDefault("use-keychain", false)
	v.SetDefault("keychain-service-prefix", "tabscore")
}

// Validate checks that the configuration is valid and internally consistent
func (c *Config) Validate() error {
	if c.IoUThreshold < 0 || c.IoUThreshold > 1 {
		return fmt.Errorf("iou-threshold must be between 0.0 and 1.0, got %f", c.IoUThreshold)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	if c.PredictionSuffix == "" {
		return fmt.Errorf("prediction-suffix cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log-level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log-format %q, must be one of: console, json", c.LogFormat)
	}

	switch strings.ToLower(c.ReportFormat) {
	case ReportText, ReportJSON, ReportYAML:
		c.ReportFormat = strings.ToLower(c.ReportFormat)
	default:
		return fmt.Errorf("invalid report-format %q, must be one of: text, json, yaml", c.ReportFormat)
	}

	switch strings.ToLower(c.TextSource) {
	case TextSourcePDF:
	case TextSourceOCR:
		if c.OCRLanguages == "" {
			return fmt.Errorf("ocr-languages cannot be empty when text-source is ocr")
		}
		if c.OCRDPI <= 0 {
			return fmt.Errorf("ocr-dpi must be positive, got %d", c.OCRDPI)
		}
	default:
		return fmt.Errorf("invalid text-source %q, must be one of: pdf, ocr", c.TextSource)
	}
	c.TextSource = strings.ToLower(c.TextSource)

	if err := c.validateSimilarityConfig(); err != nil {
		return fmt.Errorf("invalid similarity configuration: %w", err)
	}

	return nil
}

// validateSimilarityConfig validates the similarity backend configuration.
// Missing API keys are reported when the backend is created, so the teds
// command runs without them.
func (c *Config) validateSimilarityConfig() error {
	validProviders := map[string]bool{
		string(similarity.ProviderOllama):    true,
		string(similarity.ProviderOpenAI):    true,
		string(similarity.ProviderGoogle):    true,
		string(similarity.ProviderONNX):      true,
		string(similarity.ProviderAnthropic): true,
	}
	if !validProviders[strings.ToLower(c.Similarity.Provider)] {
		return fmt.Errorf("invalid similarity-provider %q, must be one of: ollama, openai, google, onnx, anthropic", c.Similarity.Provider)
	}
	c.Similarity.Provider = strings.ToLower(c.Similarity.Provider)

	if c.Similarity.Temperature < 0.0 || c.Similarity.Temperature > 1.0 {
		return fmt.Errorf("similarity-temperature must be between 0.0 and 1.0, got %f", c.Similarity.Temperature)
	}

	if c.Similarity.MaxRetries < 0 {
		return fmt.Errorf("similarity-max-retries must be non-negative, got %d", c.Similarity.MaxRetries)
	}

	if c.Similarity.BatchSize < 1 {
		return fmt.Errorf("similarity-batch-size must be at least 1, got %d", c.Similarity.BatchSize)
	}

	return nil
}

// RequirePDFLicense reports an error when cell text is read from the PDF
// text layer without a UniDoc license key, which unipdf refuses to extract
func (c *Config) RequirePDFLicense() error {
	if c.TextSource == TextSourcePDF && c.UnidocLicenseKey == "" {
		return fmt.Errorf("text-source pdf needs a UniDoc license: set unidoc-license-key or UNIDOC_LICENSE_API_KEY, or use text-source ocr")
	}
	return nil
}

// SimilarityOptions converts the similarity settings for the backend factory
func (c *Config) SimilarityOptions() *similarity.Config {
	return &similarity.Config{
		Provider:      similarity.ProviderType(c.Similarity.Provider),
		Model:         c.Similarity.Model,
		Endpoint:      c.Similarity.Endpoint,
		APIKey:        c.Similarity.APIKey,
		MaxRetries:    c.Similarity.MaxRetries,
		BatchSize:     c.Similarity.BatchSize,
		Placeholder:   c.Similarity.EmptyPlaceholder,
		Temperature:   c.Similarity.Temperature,
		ONNXModelPath: c.Similarity.ONNXModel,
		VocabPath:     c.Similarity.ONNXVocab,
		LibraryPath:   c.Similarity.ONNXLibrary,
	}
}

// OCRLanguageList splits OCRLanguages on "+" and ","
func (c *Config) OCRLanguageList() []string {
	fields := strings.FieldsFunc(c.OCRLanguages, func(r rune) bool {
		return r == '+' || r == ','
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// loadAPIKeyForProvider loads the appropriate API key from keychain or environment variables
func loadAPIKeyForProvider(provider string, useKeychain bool, keychainPrefix string) string {
	if useKeychain {
		if key := loadFromKeychain(provider, keychainPrefix); key != "" {
			return key
		}
	}

	switch similarity.ProviderType(strings.ToLower(provider)) {
	case similarity.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case similarity.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case similarity.ProviderGoogle:
		return os.Getenv("GOOGLE_API_KEY")
	default:
		// Ollama and ONNX run locally
		return ""
	}
}

// loadFromKeychain attempts to retrieve an API key from macOS Keychain.
// Returns empty string if not found or on non-macOS platforms.
func loadFromKeychain(provider, prefix string) string {
	if runtime.GOOS != "darwin" {
		return ""
	}

	serviceName := fmt.Sprintf("%s-%s", prefix, strings.ToLower(provider))

	// security find-generic-password -s "service-name" -w
	cmd := exec.Command("security", "find-generic-password", "-s", serviceName, "-w")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(output))
}

// String returns a string representation of the configuration (with sensitive data redacted)
func (c *Config) String() string {

	return fmt.Sprintf(`Configuration:
  PDFRoot: %s
  AnnotationRoot: %s
  PredictionRoot: %s
  PredictionSuffix: %s
  GroundTruthJSONL: %s
  IoUThreshold: %.2f
  Workers: %d
  LogLevel: %s
  ReportFormat: %s
  TextSource: %s
  OCRLanguages: %s
  StructureOnly: %t
  UnidocLicenseKey: %s
  Similarity:
    Provider: %s
    Model: %s
    Endpoint: %s
    APIKey: %s
    MaxRetries: %d
    BatchSize: %d`,
		c.PDFRoot,
		c.AnnotationRoot,
		c.PredictionRoot,
		c.PredictionSuffix,
		c.GroundTruthJSONL,
		c.IoUThreshold,
		c.Workers,
		c.LogLevel,
		c.ReportFormat,
		c.TextSource,
		c.OCRLanguages,
		c.StructureOnly,
		redact(c.UnidocLicenseKey),
		c.Similarity.Provider,
		c.Similarity.Model,
		c.Similarity.Endpoint,
		redact(c.Similarity.APIKey),
		c.Similarity.MaxRetries,
		c.Similarity.BatchSize,
	)
}

// redact keeps the last four characters of long secrets
func redact(secret string) string {
	switch {
	case secret == "":
		return "not set"
	case len(secret) > 8:
		return "***" + secret[len(secret)-4:]
	default:
		return "***"
	}
}
