package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"

	"github.com/anirudhbannikoppa/elderwell/internal/index"
)

// validProviders are the supported AI providers for generation and embedding.
var validProviders = []string{ProviderOpenAI, ProviderGemini, ProviderOllama}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	// 0. Check for nil config (defensive programming)
	if c == nil {
		return ErrConfigNil
	}

	// 1. Provider validation
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidProvider, c.Provider, validProviders)
	}
	if !slices.Contains(validProviders, c.EmbedderProvider) {
		return fmt.Errorf("%w: embedder_provider %q is not valid, must be one of: %v",
			ErrInvalidProvider, c.EmbedderProvider, validProviders)
	}

	// 2. API key validation, based on the selected providers.
	// Keys are read by the Genkit plugins directly; we only check presence
	// here so a misconfigured deployment fails at startup, not per request.
	if c.Provider == ProviderOpenAI || c.EmbedderProvider == ProviderOpenAI {
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required for provider %q",
				ErrMissingAPIKey, ProviderOpenAI)
		}
	}
	if c.Provider == ProviderGemini || c.EmbedderProvider == ProviderGemini {
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required for provider %q\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey, ProviderGemini)
		}
	}

	// 3. Model configuration validation
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// The embedding column is declared as vector(384) in the schema; a
	// different dimension cannot be inserted or searched against, so drift
	// between config and schema aborts startup.
	if c.EmbedderDimension != index.VectorDimension {
		return fmt.Errorf("%w: embedder_dimension is %d, index schema requires %d",
			ErrInvalidDimension, c.EmbedderDimension, index.VectorDimension)
	}

	// 4. Pipeline validation
	if c.ChunkSize < 1 || c.ChunkSize > 10000 {
		return fmt.Errorf("%w: must be between 1 and 10,000, got %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: must be non-negative and smaller than chunk_size (%d), got %d",
			ErrInvalidChunkOverlap, c.ChunkSize, c.ChunkOverlap)
	}
	if c.TopK <= 0 || c.TopK > 10 {
		return fmt.Errorf("%w: must be between 1 and 10, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("%w: rate_limit_rps must be positive, got %g", ErrInvalidRateLimit, c.RateLimitRPS)
	}
	if c.RateLimitBurst < 1 {
		return fmt.Errorf("%w: rate_limit_burst must be at least 1, got %d", ErrInvalidRateLimit, c.RateLimitBurst)
	}

	// 5. Ollama host validation (only when an Ollama provider is in use)
	if c.Provider == ProviderOllama || c.EmbedderProvider == ProviderOllama {
		u, err := url.Parse(c.OllamaHost)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q must be an absolute URL like http://localhost:11434",
				ErrInvalidOllamaHost, c.OllamaHost)
		}
	}

	// 6. PostgreSQL configuration validation
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set in config.yaml or DATABASE_URL",
			ErrInvalidPostgresPassword)
	}

	// Warn on the default dev password but don't block, the user might be in dev
	if c.PostgresPassword == "elderwell_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}

	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// 7. PostgreSQL SSL mode validation
	// Modern SSL modes only - exclude deprecated allow/prefer (MITM vulnerable)
	// Reference: https://www.postgresql.org/docs/current/libpq-ssl.html
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if c.PostgresSSLMode == "" {
		return fmt.Errorf("%w: postgres_ssl_mode is empty (should have default from setDefaults)",
			ErrInvalidPostgresSSLMode)
	}

	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v\n"+
			"Note: 'allow' and 'prefer' modes are deprecated (vulnerable to MITM attacks)",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}
