package similarity

import (
	"context"
	"fmt"

	"github.com/platinummonkey/tabscore/internal/logger"
)

// New creates the TextSimilarity backend named by cfg.Provider
func New(ctx context.Context, cfg *Config, log *logger.Logger) (TextSimilarity, error) {
	if log == nil {
		log = logger.Get()
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Provider == ProviderAnthropic {
		var opts []JudgeOption
		if cfg.Endpoint != "" {
			opts = append(opts, WithJudgeBaseURL(cfg.Endpoint))
		}
		opts = append(opts, WithJudgePlaceholder(cfg.Placeholder))
		return NewJudgeScorer(cfg.APIKey, modelOrDefault(cfg), cfg.Temperature, cfg.MaxRetries, log, opts...), nil
	}

	embedder, err := NewEmbedder(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return NewEmbeddingScorer(embedder,
		WithBatchSize(cfg.BatchSize),
		WithPlaceholder(cfg.Placeholder),
		WithLogger(log),
	), nil
}

// NewEmbedder creates an embedding backend
func NewEmbedder(ctx context.Context, cfg *Config, log *logger.Logger) (Embedder, error) {
	if log == nil {
		log = logger.Get()
	}
	model := modelOrDefault(cfg)

	switch cfg.Provider {
	case ProviderOllama:
		return NewOllamaEmbedder(cfg.Endpoint, model, cfg.MaxRetries, log), nil

	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY environment variable)")
		}
		return NewOpenAIEmbedder(cfg.APIKey, cfg.Endpoint, model, cfg.MaxRetries, log), nil

	case ProviderGoogle:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("google API key is required (set GOOGLE_API_KEY environment variable)")
		}
		e, err := NewGoogleEmbedder(ctx, cfg.APIKey, model, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google embedder: %w", err)
		}
		return e, nil

	case ProviderONNX:
		return NewONNXEmbedder(cfg.ONNXModelPath, cfg.VocabPath, cfg.LibraryPath, cfg.MaxSequenceLength, log)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: ollama, openai, google, onnx)", cfg.Provider)
	}
}

// ValidateConfig checks that the provider configuration is complete
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("similarity config is nil")
	}

	switch cfg.Provider {
	case ProviderOllama:
		// endpoint falls back to the local default
	case ProviderOpenAI, ProviderGoogle, ProviderAnthropic:
		if cfg.APIKey == "" {
			return fmt.Errorf("API key is required for %s provider", cfg.Provider)
		}
	case ProviderONNX:
		if cfg.ONNXModelPath == "" {
			return fmt.Errorf("onnx model path is required for onnx provider")
		}
		if cfg.VocabPath == "" {
			return fmt.Errorf("vocab path is required for onnx provider")
		}
	default:
		return fmt.Errorf("invalid provider: %s", cfg.Provider)
	}

	if cfg.Temperature < 0.0 || cfg.Temperature > 1.0 {
		return fmt.Errorf("temperature must be between 0.0 and 1.0, got %f", cfg.Temperature)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max retries must be non-negative, got %d", cfg.MaxRetries)
	}
	if cfg.BatchSize < 0 {
		return fmt.Errorf("batch size must be non-negative, got %d", cfg.BatchSize)
	}

	return nil
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider ProviderType) string {
	switch provider {
	case ProviderOllama:
		return "nomic-embed-text"
	case ProviderOpenAI:
		return "text-embedding-3-small"
	case ProviderGoogle:
		return "text-embedding-004"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	default:
		return ""
	}
}

func modelOrDefault(cfg *Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return DefaultModel(cfg.Provider)
}
