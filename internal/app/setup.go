package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/anirudhbannikoppa/elderwell/db"
	"github.com/anirudhbannikoppa/elderwell/internal/config"
	"github.com/anirudhbannikoppa/elderwell/internal/embed"
	"github.com/anirudhbannikoppa/elderwell/internal/index"
	"github.com/anirudhbannikoppa/elderwell/internal/rag"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx)

	pool, dbCleanup, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.EmbedderProvider)
	}
	a.Embedder = embedder

	a.Embed = embed.New(embedder, cfg.EmbedderDimension, logger)
	a.Index = index.NewStore(pool, logger)

	generator := rag.NewGenerator(g, cfg.FullModelName())
	a.Pipeline = rag.NewPipeline(a.Embed, a.Index, generator, cfg.TopK, logger)

	return a, nil
}

// provideOtelShutdown sets up OTLP trace export before Genkit initialization.
// Must be called before provideGenkit to ensure the TracerProvider is ready.
//
// Traces go to a local OTLP collector (localhost:4318 unless
// OTEL_EXPORTER_OTLP_ENDPOINT overrides it); the collector handles
// authentication and forwarding. Export failures disable tracing without
// affecting the application.
func provideOtelShutdown(ctx context.Context) func() {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:4318"
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // localhost doesn't need TLS
	)
	if err != nil {
		slog.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	// Register BatchSpanProcessor with Genkit's TracerProvider.
	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	slog.Debug("trace export enabled", "endpoint", endpoint)

	shutdown := tracing.TracerProvider().Shutdown

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with plugins for the configured
// generation and embedding providers. The two can differ (the default pairs
// openai generation with ollama embeddings), so plugins are collected from
// the union of both.
func provideGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	var plugins []api.Plugin
	var ollamaPlugin *ollama.Ollama

	needs := func(provider string) bool {
		return cfg.Provider == provider || cfg.EmbedderProvider == provider
	}

	if needs(config.ProviderOllama) {
		ollamaPlugin = &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		plugins = append(plugins, ollamaPlugin)
	}
	if needs(config.ProviderOpenAI) {
		plugins = append(plugins, &openai.OpenAI{})
	}
	if needs(config.ProviderGemini) {
		plugins = append(plugins, &googlegenai.GoogleAI{})
	}

	g := genkit.Init(ctx, genkit.WithPlugins(plugins...))
	if g == nil {
		return nil, errors.New("initializing genkit")
	}

	// Ollama requires explicit registration (no auto-discovery)
	if ollamaPlugin != nil {
		if cfg.Provider == config.ProviderOllama {
			ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
				Name: cfg.ModelName,
				Type: "chat",
			}, nil)
		}
		if cfg.EmbedderProvider == config.ProviderOllama {
			ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		}
	}

	slog.Info("initialized Genkit",
		"provider", cfg.Provider,
		"model", cfg.ModelName,
		"embedder_provider", cfg.EmbedderProvider,
		"embedder_model", cfg.EmbedderModel)
	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider plugin.
// Each provider registers embedders differently:
//   - ollama: registered in provideGenkit, keyed by server address
//   - openai: auto-registered in Init(), looked up by model name
//   - gemini: GoogleAIEmbedder(g, modelName)
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.EmbedderProvider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default: // gemini
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideDBPool creates a PostgreSQL connection pool and runs migrations.
// Pool is configured with sensible defaults for connection management.
func provideDBPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func(), error) {
	connURL := cfg.PostgresURL()
	if err := db.Migrate(logger, connURL); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	cleanup := func() {
		pool.Close()
	}

	return pool, cleanup, nil
}
