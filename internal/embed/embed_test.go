package embed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

const testDimension = 4

// mockEmbedder is a simple mock implementation of ai.Embedder for testing
type mockEmbedder struct {
	dimension int
	err       error
	calls     int
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(_ api.Registry) {
	// No-op for testing
}

func (m *mockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	embeddings := make([]*ai.Embedding, len(req.Input))
	for i := range req.Input {
		vec := make([]float32, m.dimension)
		for j := range vec {
			vec[j] = float32(i + j)
		}
		embeddings[i] = &ai.Embedding{Embedding: vec}
	}
	return &ai.EmbedResponse{Embeddings: embeddings}, nil
}

// emptyEmbedder returns no embeddings regardless of input
type emptyEmbedder struct{}

func (e *emptyEmbedder) Name() string          { return "empty-embedder" }
func (e *emptyEmbedder) Register(_ api.Registry) {}
func (e *emptyEmbedder) Embed(_ context.Context, _ *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	return &ai.EmbedResponse{Embeddings: []*ai.Embedding{}}, nil
}

func TestText(t *testing.T) {
	svc := New(&mockEmbedder{dimension: testDimension}, testDimension, nil)

	vec, err := svc.Text(context.Background(), "ginger for nausea")
	if err != nil {
		t.Fatalf("Text() error: %v", err)
	}
	if len(vec) != testDimension {
		t.Errorf("Text() dimension = %d, want %d", len(vec), testDimension)
	}
}

func TestText_Empty(t *testing.T) {
	svc := New(&mockEmbedder{dimension: testDimension}, testDimension, nil)

	if _, err := svc.Text(context.Background(), ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Text(\"\") = %v, want ErrEmptyText", err)
	}
}

func TestText_NoEmbedding(t *testing.T) {
	svc := New(&emptyEmbedder{}, testDimension, nil)

	if _, err := svc.Text(context.Background(), "query"); !errors.Is(err, ErrNoEmbedding) {
		t.Errorf("Text() = %v, want ErrNoEmbedding", err)
	}
}

func TestText_DimensionMismatch(t *testing.T) {
	// Provider returns 768-dim vectors, service expects testDimension
	svc := New(&mockEmbedder{dimension: 768}, testDimension, nil)

	_, err := svc.Text(context.Background(), "query")
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Text() = %v, want ErrDimensionMismatch", err)
	}
}

func TestText_ProviderError(t *testing.T) {
	providerErr := fmt.Errorf("model not loaded")
	svc := New(&mockEmbedder{err: providerErr}, testDimension, nil)

	if _, err := svc.Text(context.Background(), "query"); !errors.Is(err, providerErr) {
		t.Errorf("Text() = %v, want wrapped provider error", err)
	}
}

func TestBatch(t *testing.T) {
	mock := &mockEmbedder{dimension: testDimension}
	svc := New(mock, testDimension, nil)

	texts := []string{"first chunk", "second chunk", "third chunk"}
	vectors, err := svc.Batch(context.Background(), texts)
	if err != nil {
		t.Fatalf("Batch() error: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("Batch() = %d vectors, want %d", len(vectors), len(texts))
	}
	// Order preserved: mock encodes input position in the first component
	for i, vec := range vectors {
		if vec[0] != float32(i) {
			t.Errorf("vector %d out of order: first component = %f", i, vec[0])
		}
	}
	if mock.calls != 1 {
		t.Errorf("Batch() made %d provider calls, want 1", mock.calls)
	}
}

func TestBatch_Empty(t *testing.T) {
	svc := New(&mockEmbedder{dimension: testDimension}, testDimension, nil)

	vectors, err := svc.Batch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Batch(nil) error: %v", err)
	}
	if vectors != nil {
		t.Errorf("Batch(nil) = %v, want nil", vectors)
	}
}

func TestBatch_EmptyText(t *testing.T) {
	svc := New(&mockEmbedder{dimension: testDimension}, testDimension, nil)

	_, err := svc.Batch(context.Background(), []string{"ok", ""})
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("Batch() = %v, want ErrEmptyText", err)
	}
}

func TestBatch_CountMismatch(t *testing.T) {
	svc := New(&emptyEmbedder{}, testDimension, nil)

	_, err := svc.Batch(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrNoEmbedding) {
		t.Errorf("Batch() = %v, want ErrNoEmbedding", err)
	}
}
