package rag

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns text into vectors. Documents and queries are embedded
// separately because some providers tune vectors for each side.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// embedding service provider
type EmbeddingProvider string

const (
	EmbeddingGemini EmbeddingProvider = "gemini"
	EmbeddingOpenAI EmbeddingProvider = "openai"
)

const DefaultBatchSize = 50

type EmbedderOptions struct {
	Model     string
	BaseURL   string
	BatchSize int // texts per API request (default 50)
}

func (o EmbedderOptions) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

// ParseEmbeddingProvider maps a user supplied name to a provider.
func ParseEmbeddingProvider(s string) (EmbeddingProvider, error) {
	switch p := EmbeddingProvider(strings.ToLower(strings.TrimSpace(s))); p {
	case EmbeddingGemini, EmbeddingOpenAI:
		return p, nil
	case "":
		return EmbeddingGemini, nil
	default:
		return "", fmt.Errorf("unsupported embedding provider: %s", s)
	}
}

// creates Embedder based on provider
func NewEmbedder(
	ctx context.Context,
	provider EmbeddingProvider,
	apiKey string,
	opts EmbedderOptions,
) (Embedder, error) {
	switch provider {
	case EmbeddingGemini:
		return NewGeminiEmbedder(ctx, apiKey, opts)
	case EmbeddingOpenAI:
		return NewOpenAIEmbedder(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// embedBatches calls fn once per batch and stitches the results back into
// input order.
func embedBatches(
	ctx context.Context,
	texts []string,
	batchSize int,
	fn func(ctx context.Context, batch []string) ([][]float32, error),
) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := fn(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", i, end, err)
		}
		if len(vectors) != end-i {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-i, len(vectors))
		}
		out = append(out, vectors...)
	}
	return out, nil
}
