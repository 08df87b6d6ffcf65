// Package app provides application initialization and dependency wiring.
//
// App is the container built at startup: Genkit with the configured
// provider plugins, the PostgreSQL connection pool (migrated on startup),
// the embedding service, the vector index store, and the answering
// pipeline. Both the serve and index commands run through Setup so they
// share identical configuration and stack.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anirudhbannikoppa/elderwell/internal/chunker"
	"github.com/anirudhbannikoppa/elderwell/internal/config"
	"github.com/anirudhbannikoppa/elderwell/internal/document"
	"github.com/anirudhbannikoppa/elderwell/internal/embed"
	"github.com/anirudhbannikoppa/elderwell/internal/index"
	"github.com/anirudhbannikoppa/elderwell/internal/rag"
)

// App holds all initialized application components.
type App struct {
	Config   *config.Config
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool
	Embed    *embed.Service
	Index    *index.Store
	Pipeline *rag.Pipeline

	logger      *slog.Logger
	otelCleanup func()
	dbCleanup   func()
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	if a.logger == nil {
		return slog.Default()
	}
	return a.logger
}

// NewIndexer builds the offline ingestion job from the app's components.
// With replace set, each document's previous chunks are removed before
// its new ones are stored.
func (a *App) NewIndexer(replace bool) (*rag.Indexer, error) {
	splitter, err := chunker.New(a.Config.ChunkSize, a.Config.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	loader := document.NewLoader(a.Logger())
	return rag.NewIndexer(loader, splitter, a.Embed, a.Index, replace, a.Logger()), nil
}

// Close releases all application resources in reverse initialization order.
// Safe to call more than once.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
		a.otelCleanup = nil
	}
	return nil
}
