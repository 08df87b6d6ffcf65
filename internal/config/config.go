// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.elderwell/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Generation: provider and chat model for answer generation
//   - Embedding: provider, model, and vector dimension (same model is used
//     for indexing and query embedding — mixing models breaks similarity)
//   - Pipeline: chunk size/overlap and retrieval top-k
//   - Storage: PostgreSQL + pgvector connection (see storage.go)
//   - Serve: CORS origins, proxy trust, and per-IP rate limits
//
// Validation runs eagerly at load time (fail fast): missing credentials, an
// overlap that is not smaller than the chunk size, or a vector dimension
// that drifts from the index schema all abort startup.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the generation model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidDimension indicates the configured embedding dimension does
	// not match the vector index schema.
	ErrInvalidDimension = errors.New("embedding dimension does not match index schema")

	// ErrInvalidChunkSize indicates the chunk size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates the chunk overlap is not smaller than
	// the chunk size.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidRateLimit indicates the per-IP rate limit settings are out
	// of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Provider identifiers used in Config.Provider and Config.EmbedderProvider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

const (
	// DefaultEmbedderModel is the default sentence-embedding model served by
	// Ollama. all-minilm is the Ollama build of all-MiniLM-L6-v2 and outputs
	// 384-dimensional vectors, matching the passages table schema.
	DefaultEmbedderModel = "all-minilm"

	// DefaultEmbedderDimension is the output dimensionality of the default
	// embedder. Must equal index.VectorDimension; see Validate.
	DefaultEmbedderDimension = 384

	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 500

	// DefaultChunkOverlap is the shared boundary between consecutive chunks.
	DefaultChunkOverlap = 20

	// DefaultTopK is the number of passages retrieved per query.
	DefaultTopK = 3
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields, update MarshalJSON.
type Config struct {
	// Generation provider and model
	Provider  string `mapstructure:"provider" json:"provider"`       // "openai" (default), "gemini", "ollama"
	ModelName string `mapstructure:"model_name" json:"model_name"`   // e.g. "gpt-4o-mini", "gemini-2.5-flash"

	// Embedding provider and model (same model for index and query time)
	EmbedderProvider  string `mapstructure:"embedder_provider" json:"embedder_provider"`
	EmbedderModel     string `mapstructure:"embedder_model" json:"embedder_model"`
	EmbedderDimension int    `mapstructure:"embedder_dimension" json:"embedder_dimension"`

	// Retrieval pipeline tuning
	ChunkSize    int `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	TopK         int `mapstructure:"top_k" json:"top_k"`

	// Ollama configuration (used when either provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Serve configuration
	CORSOrigins    []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy     bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps" json:"rate_limit_rps"`     // token refill per IP per second
	RateLimitBurst int      `mapstructure:"rate_limit_burst" json:"rate_limit_burst"` // initial/maximum tokens per IP
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".elderwell")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings when set
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Generation defaults (gpt-4o-mini is the model the corpus answers were
	// tuned against)
	viper.SetDefault("provider", ProviderOpenAI)
	viper.SetDefault("model_name", "gpt-4o-mini")

	// Embedding defaults
	viper.SetDefault("embedder_provider", ProviderOllama)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("embedder_dimension", DefaultEmbedderDimension)

	// Pipeline defaults
	viper.SetDefault("chunk_size", DefaultChunkSize)
	viper.SetDefault("chunk_overlap", DefaultChunkOverlap)
	viper.SetDefault("top_k", DefaultTopK)

	// Ollama defaults
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "elderwell")
	viper.SetDefault("postgres_password", "elderwell_dev_password")
	viper.SetDefault("postgres_db_name", "elderwell")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// CORS defaults (React dev server)
	viper.SetDefault("cors_origins", []string{"http://localhost:5173"})

	// Proxy trust (default: false — safe for direct exposure)
	viper.SetDefault("trust_proxy", false)

	// Per-IP rate limiting
	viper.SetDefault("rate_limit_rps", 1.0)
	viper.SetDefault("rate_limit_burst", 60)
}

// configKeys lists every recognized key; each binds to an ELDERWELL_<KEY>
// environment override. Register new keys here and in setDefaults.
var configKeys = []string{
	"provider",
	"model_name",
	"embedder_provider",
	"embedder_model",
	"embedder_dimension",
	"chunk_size",
	"chunk_overlap",
	"top_k",
	"ollama_host",
	"postgres_host",
	"postgres_port",
	"postgres_user",
	"postgres_password",
	"postgres_db_name",
	"postgres_ssl_mode",
	"cors_origins",
	"trust_proxy",
	"rate_limit_rps",
	"rate_limit_burst",
}

// bindEnvVariables binds environment overrides for every config key.
// API keys (OPENAI_API_KEY, GEMINI_API_KEY) are read directly by the Genkit
// provider plugins, not via Viper; Validate checks their presence based on
// the selected providers. DATABASE_URL is handled in parseDatabaseURL and
// wins over the individual postgres_* overrides.
func bindEnvVariables() {
	for _, key := range configKeys {
		envVar := "ELDERWELL_" + strings.ToUpper(key)
		if err := viper.BindEnv(key, envVar); err != nil {
			// Hardcoded strings can't fail to bind; a panic here is a
			// bug, not a runtime error.
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 characters
// or fewer are fully masked to prevent substring matching; longer secrets
// keep the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "openai/gpt-4o-mini", "googleai/gemini-2.5-flash", "ollama/llama3.2".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	case ProviderGemini:
		return "googleai/" + c.ModelName
	default:
		return ProviderOpenAI + "/" + c.ModelName
	}
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
