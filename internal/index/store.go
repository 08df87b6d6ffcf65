// Package index stores and searches vector-embedded passages in PostgreSQL
// with the pgvector extension.
//
// Each entry is one chunk of source text with its embedding. Search is
// cosine-similarity nearest neighbour via the pgvector <=> operator; the
// hnsw index on the embedding column keeps it sub-linear.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// VectorDimension is the dimensionality of stored embeddings. It mirrors the
// vector(384) column declaration in the passages migration; the configured
// embedder must produce vectors of exactly this length.
const VectorDimension = 384

// searchTimeout bounds vector search queries so a slow index scan cannot
// block a chat request indefinitely.
const searchTimeout = 10 * time.Second

// ErrDimensionMismatch indicates an embedding whose length does not match
// the index schema.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Entry is one indexed passage: a chunk of source text with its embedding.
type Entry struct {
	ID        string
	Text      string
	Source    string
	Embedding []float32
}

// Match is a search hit. Similarity is cosine similarity in [-1, 1];
// higher is closer.
type Match struct {
	ID         string
	Text       string
	Source     string
	Similarity float64
}

// DB is the subset of pgxpool.Pool the store needs.
// Defined here so tests can substitute a fake without a running database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages passage entries in the passages table.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore creates a Store backed by db. A nil logger falls back to
// slog.Default().
func NewStore(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Add inserts an entry. An empty ID gets a fresh UUID; entries with the same
// text coexist as duplicates, there is no content-level dedup.
// Returns ErrDimensionMismatch if the embedding length does not match the
// schema.
func (s *Store) Add(ctx context.Context, e Entry) (string, error) {
	if len(e.Embedding) != VectorDimension {
		return "", fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(e.Embedding), VectorDimension)
	}

	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}

	vec := pgvector.NewVector(e.Embedding)
	_, err := s.db.Exec(ctx,
		`INSERT INTO passages (id, content, source, embedding) VALUES ($1, $2, $3, $4)`,
		id, e.Text, e.Source, vec)
	if err != nil {
		return "", fmt.Errorf("insert passage: %w", err)
	}

	s.logger.Debug("added passage", "id", id, "source", e.Source, "content_length", len(e.Text))
	return id, nil
}

// AddBatch inserts entries one by one, stopping at the first failure.
// Returns the number of entries inserted.
func (s *Store) AddBatch(ctx context.Context, entries []Entry) (int, error) {
	for i, e := range entries {
		if _, err := s.Add(ctx, e); err != nil {
			return i, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return len(entries), nil
}

// Search returns the topK entries nearest to the query embedding, ordered by
// descending cosine similarity. Fewer than topK stored entries yield fewer
// matches; an empty index yields an empty slice.
func (s *Store) Search(ctx context.Context, embedding []float32, topK int) ([]Match, error) {
	if len(embedding) != VectorDimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(embedding), VectorDimension)
	}
	if topK < 1 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	// <=> is cosine distance; similarity = 1 - distance. Ordering by the
	// raw operator lets the hnsw index drive the scan.
	vec := pgvector.NewVector(embedding)
	rows, err := s.db.Query(queryCtx,
		`SELECT id, content, source, 1 - (embedding <=> $1) AS similarity
		 FROM passages
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search timeout: %w", err)
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, topK)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Text, &m.Source, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	return matches, nil
}

// Count returns the total number of indexed passages.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM passages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count passages: %w", err)
	}
	return count, nil
}

// DeleteBySource removes every passage indexed from the given source.
// Used to re-index a changed document without duplicating its chunks.
func (s *Store) DeleteBySource(ctx context.Context, source string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM passages WHERE source = $1`, source)
	if err != nil {
		return 0, fmt.Errorf("delete passages for %q: %w", source, err)
	}

	s.logger.Debug("deleted passages", "source", source, "count", tag.RowsAffected())
	return tag.RowsAffected(), nil
}
