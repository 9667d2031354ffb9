package similarity

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/platinummonkey/tabscore/internal/logger"
)

// OpenAIEmbedder embeds texts with the OpenAI embeddings API
type OpenAIEmbedder struct {
	client openai.Client
	model  string
	logger *logger.Logger
}

// NewOpenAIEmbedder creates an embedder. A non-empty baseURL targets an
// OpenAI-compatible server.
func NewOpenAIEmbedder(apiKey, baseURL, model string, maxRetries int, log *logger.Logger) *OpenAIEmbedder {
	if log == nil {
		log = logger.Get()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(maxRetries),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIEmbedder{
		client: openai.NewClient(opts...),
		model:  model,
		logger: log,
	}
}

// Embed returns one vector per text, ordered by the response index
func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	o.logger.WithFields("model", o.model, "provider", "openai", "texts", len(texts)).Debug("Embedding with OpenAI")

	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(o.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("openai returned embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = toFloat32(d.Embedding)
	}

	return vectors, nil
}

// Name returns the provider name
func (o *OpenAIEmbedder) Name() string {
	return string(ProviderOpenAI)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
