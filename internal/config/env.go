package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
type EnvConfig struct {
	// DBURL is the cart database connection URL.
	// Env: DB_URL (default: sqlite:///:memory:)
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// CatalogPath is the path to the static catalog dataset file.
	// Env: CATALOG_PATH
	CatalogPath string `envconfig:"CATALOG_PATH"`

	// PhraseParallelism limits concurrent phrase resolution per request.
	// Env: PHRASE_PARALLELISM (default: 4)
	PhraseParallelism int `envconfig:"PHRASE_PARALLELISM" default:"4"`

	// RemovalMinSimilarity is the similarity floor for cart removals.
	// Zero (default) disables the floor and the closest entry is always
	// removed.
	// Env: REMOVAL_MIN_SIMILARITY (default: 0)
	RemovalMinSimilarity float64 `envconfig:"REMOVAL_MIN_SIMILARITY" default:"0"`

	// EmbeddingEndpoint configures the embedding AI service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// ChatEndpoint configures the intent-extraction AI service.
	ChatEndpoint EndpointEnv `envconfig:"CHAT_ENDPOINT"`
}

// EndpointEnv holds environment configuration for an AI endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g., text-embedding-3-small).
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxInputChars is the maximum length per embedded text.
	// Env: *_MAX_INPUT_CHARS (default: 8000)
	MaxInputChars int `envconfig:"MAX_INPUT_CHARS" default:"8000"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix. For
// example, prefix "INTENTCART" would require INTENTCART_DB_URL instead of
// DB_URL.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.DBURL != "" {
		cfg = cfg.Apply(WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.CatalogPath != "" {
		cfg = cfg.Apply(WithCatalogPath(e.CatalogPath))
	}
	if e.PhraseParallelism > 0 {
		cfg = cfg.Apply(WithPhraseParallelism(e.PhraseParallelism))
	}
	if e.RemovalMinSimilarity > 0 {
		cfg = cfg.Apply(WithRemovalMinSimilarity(e.RemovalMinSimilarity))
	}

	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = cfg.Apply(WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}
	if e.ChatEndpoint.IsConfigured() {
		cfg = cfg.Apply(WithChatEndpoint(e.ChatEndpoint.ToEndpoint()))
	}

	return cfg
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithTimeout(time.Duration(e.Timeout * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(time.Duration(e.InitialDelay * float64(time.Second))),
		WithBackoffFactor(e.BackoffFactor),
		WithMaxInputChars(e.MaxInputChars),
	}

	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}

	return NewEndpointWithOptions(opts...)
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	if s == "json" || s == "JSON" {
		return LogFormatJSON
	}
	return LogFormatPretty
}
