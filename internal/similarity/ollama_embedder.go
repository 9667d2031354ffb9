package similarity

import (
	"context"
	"fmt"

	"github.com/platinummonkey/tabscore/internal/logger"
	"github.com/platinummonkey/tabscore/internal/ollama"
)

// OllamaEmbedder embeds texts through a local Ollama instance
type OllamaEmbedder struct {
	client *ollama.Client
	model  string
	logger *logger.Logger
}

// NewOllamaEmbedder creates an embedder for the given endpoint and model
func NewOllamaEmbedder(endpoint, model string, maxRetries int, log *logger.Logger) *OllamaEmbedder {
	if log == nil {
		log = logger.Get()
	}

	opts := []ollama.ClientOption{ollama.WithLogger(log), ollama.WithMaxRetries(maxRetries)}
	if endpoint != "" {
		opts = append(opts, ollama.WithEndpoint(endpoint))
	}

	return &OllamaEmbedder{
		client: ollama.NewClient(opts...),
		model:  model,
		logger: log,
	}
}

// Embed returns one vector per text
func (o *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	o.logger.WithFields("model", o.model, "provider", "ollama", "texts", len(texts)).Debug("Embedding with Ollama")
	return o.client.Embed(ctx, o.model, texts)
}

// HealthCheck verifies Ollama is reachable and the model is installed
func (o *OllamaEmbedder) HealthCheck(ctx context.Context) error {
	if err := o.client.HealthCheck(ctx); err != nil {
		return err
	}

	ok, err := o.client.HasModel(ctx, o.model)
	if err != nil {
		return fmt.Errorf("list ollama models: %w", err)
	}
	if !ok {
		return fmt.Errorf("ollama model %q is not installed (run: ollama pull %s)", o.model, o.model)
	}
	return nil
}

// Name returns the provider name
func (o *OllamaEmbedder) Name() string {
	return string(ProviderOllama)
}
