package similarity

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/platinummonkey/tabscore/internal/logger"
)

// EmbeddingScorer computes cosine similarity between embedded texts
type EmbeddingScorer struct {
	embedder    Embedder
	batchSize   int
	placeholder string
	logger      *logger.Logger
}

// ScorerOption configures an EmbeddingScorer
type ScorerOption func(*EmbeddingScorer)

// WithBatchSize sets the number of texts per embedding call
func WithBatchSize(n int) ScorerOption {
	return func(s *EmbeddingScorer) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithPlaceholder sets the text embedded in place of empty text
func WithPlaceholder(p string) ScorerOption {
	return func(s *EmbeddingScorer) {
		if p != "" {
			s.placeholder = p
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *logger.Logger) ScorerOption {
	return func(s *EmbeddingScorer) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewEmbeddingScorer wraps an embedder
func NewEmbeddingScorer(e Embedder, opts ...ScorerOption) *EmbeddingScorer {
	s := &EmbeddingScorer{
		embedder:    e,
		batchSize:   DefaultBatchSize,
		placeholder: DefaultPlaceholder,
		logger:      logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the backing embedder name
func (s *EmbeddingScorer) Name() string {
	return s.embedder.Name()
}

// Compute returns the cosine similarity of a and b
func (s *EmbeddingScorer) Compute(ctx context.Context, a, b string) (float64, error) {
	scores, err := s.ComputeBatch(ctx, []Pair{{A: a, B: b}})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// ComputeBatch scores every pair. Each distinct text is embedded once.
func (s *EmbeddingScorer) ComputeBatch(ctx context.Context, pairs []Pair) ([]float64, error) {
	scores := make([]float64, len(pairs))
	if len(pairs) == 0 {
		return scores, nil
	}

	index := make(map[string]int)
	var texts []string
	keys := make([][2]int, len(pairs))

	add := func(text string) int {
		text = s.prepare(text)
		if i, ok := index[text]; ok {
			return i
		}
		index[text] = len(texts)
		texts = append(texts, text)
		return len(texts) - 1
	}

	for i, p := range pairs {
		keys[i] = [2]int{add(p.A), add(p.B)}
	}

	vectors, err := s.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	for i, k := range keys {
		scores[i] = Cosine(vectors[k[0]], vectors[k[1]])
	}

	s.logger.WithFields("pairs", len(pairs), "texts", len(texts), "provider", s.embedder.Name()).
		Debug("Scored text pairs")
	return scores, nil
}

// Close releases the embedder if it holds resources
func (s *EmbeddingScorer) Close() error {
	if c, ok := s.embedder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// HealthCheck checks the embedder when it supports it
func (s *EmbeddingScorer) HealthCheck(ctx context.Context) error {
	hc, ok := s.embedder.(interface {
		HealthCheck(ctx context.Context) error
	})
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%w: %s health check: %w", ErrExternalService, s.embedder.Name(), err)
	}
	return nil
}

func (s *EmbeddingScorer) prepare(text string) string {
	if strings.TrimSpace(text) == "" {
		return s.placeholder
	}
	return text
}

func (s *EmbeddingScorer) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))

		batch, err := s.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %s embed: %w", ErrExternalService, s.embedder.Name(), err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: %s returned %d vectors for %d texts",
				ErrExternalService, s.embedder.Name(), len(batch), end-start)
		}

		vectors = append(vectors, batch...)
	}

	return vectors, nil
}
