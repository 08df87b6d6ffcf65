package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anirudhbannikoppa/elderwell/internal/document"
	"github.com/anirudhbannikoppa/elderwell/internal/index"
)

// Splitter breaks document text into chunks.
type Splitter interface {
	Split(text string) []string
}

// BatchEmbedder embeds a set of chunks in one provider request.
type BatchEmbedder interface {
	Batch(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexWriter persists embedded chunks.
type IndexWriter interface {
	AddBatch(ctx context.Context, entries []index.Entry) (int, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
}

// Loader produces documents from a data directory.
type Loader interface {
	Load(dir string) ([]document.Document, []document.Skip, error)
}

// IndexResult summarizes an indexing run.
type IndexResult struct {
	Documents int
	Chunks    int
	Skipped   int
	Duration  time.Duration
}

// Indexer runs the offline ingestion job: load documents, chunk them, embed
// the chunks and write them to the vector index. Re-running over the same
// directory appends duplicate entries; with replace set, each document's
// previous chunks are deleted before its new ones are written.
type Indexer struct {
	loader   Loader
	splitter Splitter
	embedder BatchEmbedder
	writer   IndexWriter
	replace  bool
	logger   *slog.Logger
}

// NewIndexer creates an Indexer. A nil logger falls back to slog.Default().
func NewIndexer(loader Loader, splitter Splitter, embedder BatchEmbedder, writer IndexWriter, replace bool, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		loader:   loader,
		splitter: splitter,
		embedder: embedder,
		writer:   writer,
		replace:  replace,
		logger:   logger,
	}
}

// Run indexes every supported document under dir. Unreadable files were
// already skipped by the loader; embedding or storage failures abort the
// run since a partially embedded document would be silently unsearchable.
func (ix *Indexer) Run(ctx context.Context, dir string) (*IndexResult, error) {
	start := time.Now()

	docs, skipped, err := ix.loader.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}

	result := &IndexResult{Skipped: len(skipped)}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("indexing cancelled: %w", err)
		}

		chunks := ix.splitter.Split(doc.Text)
		if len(chunks) == 0 {
			continue
		}

		vectors, err := ix.embedder.Batch(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("embedding %q: %w", doc.Source, err)
		}

		if ix.replace {
			if _, err := ix.writer.DeleteBySource(ctx, doc.Source); err != nil {
				return nil, fmt.Errorf("clearing old chunks for %q: %w", doc.Source, err)
			}
		}

		entries := make([]index.Entry, 0, len(chunks))
		for i, chunk := range chunks {
			entries = append(entries, index.Entry{
				Text:      chunk,
				Source:    doc.Source,
				Embedding: vectors[i],
			})
		}
		if _, err := ix.writer.AddBatch(ctx, entries); err != nil {
			return nil, fmt.Errorf("storing chunks for %q: %w", doc.Source, err)
		}

		ix.logger.Debug("indexed document", "source", doc.Source, "chunks", len(chunks))
		result.Documents++
		result.Chunks += len(chunks)
	}

	result.Duration = time.Since(start)
	ix.logger.Info("indexing complete",
		"documents", result.Documents,
		"chunks", result.Chunks,
		"skipped", result.Skipped,
		"duration", result.Duration)
	return result, nil
}
