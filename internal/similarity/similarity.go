// Package similarity scores how close two cell texts are in meaning.
package similarity

import (
	"context"
	"errors"
)

// ErrExternalService marks a failure of an embedding or judge backend
var ErrExternalService = errors.New("external service failure")

const (
	// DefaultPlaceholder stands in for empty or whitespace-only text
	DefaultPlaceholder = "[EMPTY]"

	// DefaultBatchSize is the number of texts sent per embedding request
	DefaultBatchSize = 32
)

// Pair is two texts to compare
type Pair struct {
	A string
	B string
}

// TextSimilarity scores text pairs. Embedding backends return cosine
// similarity in [-1, 1]; judge backends return a score in [0, 1].
type TextSimilarity interface {
	Compute(ctx context.Context, a, b string) (float64, error)
	ComputeBatch(ctx context.Context, pairs []Pair) ([]float64, error)
	Name() string
}

// Embedder turns texts into vectors, one per input, in input order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// ProviderType names a similarity backend
type ProviderType string

const (
	// ProviderOllama embeds with a local Ollama instance
	ProviderOllama ProviderType = "ollama"

	// ProviderOpenAI embeds with the OpenAI embeddings API
	ProviderOpenAI ProviderType = "openai"

	// ProviderGoogle embeds with the Gemini embeddings API
	ProviderGoogle ProviderType = "google"

	// ProviderONNX embeds with a local BERT model through ONNX Runtime
	ProviderONNX ProviderType = "onnx"

	// ProviderAnthropic asks Claude to judge similarity directly
	ProviderAnthropic ProviderType = "anthropic"
)

// Config holds settings shared by all backends
type Config struct {
	// Provider selects the backend (ollama, openai, google, onnx, anthropic)
	Provider ProviderType

	// Model is the embedding or judge model name
	Model string

	// Endpoint overrides the provider API host (Ollama, an OpenAI-compatible
	// server or the Anthropic API). Empty selects the provider default.
	Endpoint string

	// APIKey is the API key for cloud providers (read from env vars)
	APIKey string

	// MaxRetries is the maximum number of retry attempts
	MaxRetries int

	// BatchSize is the number of texts per embedding request
	BatchSize int

	// Placeholder replaces empty text before embedding
	Placeholder string

	// Temperature is used by the judge backend
	Temperature float64

	// ONNXModelPath, VocabPath and LibraryPath configure the local backend
	ONNXModelPath string
	VocabPath     string
	LibraryPath   string

	// MaxSequenceLength truncates local model input (default 512)
	MaxSequenceLength int
}
