package similarity

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/platinummonkey/tabscore/internal/logger"
)

// GoogleEmbedder embeds texts with the Gemini embeddings API
type GoogleEmbedder struct {
	client *genai.Client
	model  string
	logger *logger.Logger
}

// NewGoogleEmbedder creates a Gemini embedding client
func NewGoogleEmbedder(ctx context.Context, apiKey, model string, log *logger.Logger) (*GoogleEmbedder, error) {
	if log == nil {
		log = logger.Get()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GoogleEmbedder{
		client: client,
		model:  model,
		logger: log,
	}, nil
}

// Embed returns one vector per text
func (g *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	g.logger.WithFields("model", g.model, "provider", "google", "texts", len(texts)).Debug("Embedding with Gemini")

	em := g.client.EmbeddingModel(g.model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch = batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("gemini returned no embedding for input %d", i)
		}
		vectors[i] = e.Values
	}

	return vectors, nil
}

// Name returns the provider name
func (g *GoogleEmbedder) Name() string {
	return string(ProviderGoogle)
}

// Close closes the Gemini client
func (g *GoogleEmbedder) Close() error {
	return g.client.Close()
}
