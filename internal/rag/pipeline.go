// Package rag wires query answering end to end: embed the question, search
// the vector index, compose the Aira prompt from the retrieved passages, and
// generate the answer.
//
// Each query moves through an explicit state machine (see State); failures
// carry the stage they happened in so callers can log precisely without
// inspecting error text. One query maps to exactly one embedding call, one
// search, and one generation call.
package rag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/anirudhbannikoppa/elderwell/internal/index"
)

// Per-stage bounds for the two provider calls. The vector search carries
// its own timeout in the index store, so all three blocking stages are
// independently bounded and a hung provider surfaces as a stage failure
// instead of stalling the request.
const (
	embedTimeout    = 30 * time.Second
	generateTimeout = 60 * time.Second
)

// Embedder generates a query embedding.
type Embedder interface {
	Text(ctx context.Context, text string) ([]float32, error)
}

// Searcher finds the nearest indexed passages for an embedding.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]index.Match, error)
}

// TextGenerator produces an answer from a system prompt and a question.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, question string) (string, error)
}

// Source attributes part of an answer to an indexed passage.
type Source struct {
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
}

// Answer is the result of a completed pipeline run.
type Answer struct {
	Text     string
	Sources  []Source
	Duration time.Duration
}

// Pipeline orchestrates one query through embed, retrieve, compose and
// generate. Pipeline holds no per-query state and is safe for concurrent
// use; every call gets its own state progression on the stack.
type Pipeline struct {
	embedder  Embedder
	searcher  Searcher
	generator TextGenerator
	topK      int
	logger    *slog.Logger

	// Stage timeouts, overridable in tests.
	embedTimeout    time.Duration
	generateTimeout time.Duration
}

// NewPipeline creates a Pipeline. topK is the number of passages retrieved
// per query. A nil logger falls back to slog.Default().
func NewPipeline(embedder Embedder, searcher Searcher, generator TextGenerator, topK int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		embedder:        embedder,
		searcher:        searcher,
		generator:       generator,
		topK:            topK,
		logger:          logger,
		embedTimeout:    embedTimeout,
		generateTimeout: generateTimeout,
	}
}

// Answer runs the full pipeline for one query. Errors are PipelineError
// values naming the stage that failed; the query itself is never echoed
// into error messages.
func (p *Pipeline) Answer(ctx context.Context, query string) (*Answer, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, failed(StateReceived, ErrEmptyQuery)
	}

	// Cancellation is checked before each stage; a client that has gone
	// away should not consume an embedding or generation call.
	if err := ctx.Err(); err != nil {
		return nil, failed(StateEmbedding, err)
	}
	embedCtx, cancelEmbed := context.WithTimeout(ctx, p.embedTimeout)
	embedding, err := p.embedder.Text(embedCtx, query)
	cancelEmbed()
	if err != nil {
		return nil, failed(StateEmbedding, err)
	}
	p.logger.Debug("query embedded", "dimension", len(embedding))

	if err := ctx.Err(); err != nil {
		return nil, failed(StateRetrieving, err)
	}
	matches, err := p.searcher.Search(ctx, embedding, p.topK)
	if err != nil {
		return nil, failed(StateRetrieving, err)
	}
	p.logger.Debug("passages retrieved", "count", len(matches), "top_k", p.topK)

	// Composing is pure string work; an empty match set still produces a
	// valid prompt and the persona handles "I'm not sure" on its own.
	passages := make([]string, 0, len(matches))
	sources := make([]Source, 0, len(matches))
	for _, m := range matches {
		passages = append(passages, m.Text)
		sources = append(sources, Source{Source: m.Source, Similarity: m.Similarity})
	}
	systemPrompt := composeSystemPrompt(passages)

	if err := ctx.Err(); err != nil {
		return nil, failed(StateGenerating, err)
	}
	genCtx, cancelGen := context.WithTimeout(ctx, p.generateTimeout)
	text, err := p.generator.Generate(genCtx, systemPrompt, query)
	cancelGen()
	if err != nil {
		return nil, failed(StateGenerating, err)
	}

	elapsed := time.Since(start)
	p.logger.Info("query answered",
		"passages", len(matches),
		"answer_length", len(text),
		"duration", elapsed)

	return &Answer{
		Text:     text,
		Sources:  sources,
		Duration: elapsed,
	}, nil
}
