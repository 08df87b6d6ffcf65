// Package embed turns text into fixed-dimension vectors via a Genkit
// embedder.
//
// The same Service instance is used at indexing time and at query time so
// both sides of a similarity comparison come from the same model. Every
// returned vector is length-checked against the configured dimension; a
// model swap that changes dimensionality fails loudly here instead of
// producing silently meaningless similarity scores downstream.
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
)

var (
	// ErrEmptyText indicates an attempt to embed empty or missing text.
	ErrEmptyText = errors.New("cannot embed empty text")

	// ErrNoEmbedding indicates the provider returned no embedding.
	ErrNoEmbedding = errors.New("no embedding returned")

	// ErrDimensionMismatch indicates the provider returned a vector of
	// unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Service generates embeddings through a Genkit ai.Embedder.
// Service is safe for concurrent use by multiple goroutines.
type Service struct {
	embedder  ai.Embedder
	dimension int
	logger    *slog.Logger
}

// New creates a Service. dimension is the expected vector length; every
// embedding is validated against it. A nil logger falls back to
// slog.Default().
func New(embedder ai.Embedder, dimension int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{embedder: embedder, dimension: dimension, logger: logger}
}

// Text embeds a single string.
func (s *Service) Text(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText(text, nil)},
	})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, ErrNoEmbedding
	}

	vec := resp.Embeddings[0].Embedding
	if len(vec) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), s.dimension)
	}
	return vec, nil
}

// Batch embeds texts in a single provider request, preserving order.
// All texts must be non-empty.
func (s *Service) Batch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, 0, len(texts))
	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("text %d: %w", i, ErrEmptyText)
		}
		docs = append(docs, ai.DocumentFromText(text, nil))
	}

	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{Input: docs})
	if err != nil {
		return nil, fmt.Errorf("embed batch failed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrNoEmbedding, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, 0, len(texts))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) != s.dimension {
			return nil, fmt.Errorf("text %d: %w: got %d, want %d", i, ErrDimensionMismatch, len(emb.Embedding), s.dimension)
		}
		vectors = append(vectors, emb.Embedding)
	}

	s.logger.Debug("embedded batch", "texts", len(texts), "dimension", s.dimension)
	return vectors, nil
}
