// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultLogLevel              = "INFO"
	DefaultDBURL                 = "sqlite:///:memory:"
	DefaultPhraseParallelism     = 4
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEndpointMaxInputChars = 8000
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures an AI service endpoint (embedding or chat).
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxInputChars int
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
		maxInputChars: DefaultEndpointMaxInputChars,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxInputChars returns the maximum input length per embedded text.
func (e Endpoint) MaxInputChars() int { return e.maxInputChars }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxInputChars sets the maximum input length per embedded text.
func WithMaxInputChars(n int) EndpointOption {
	return func(e *Endpoint) { e.maxInputChars = n }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	dbURL                string
	logLevel             string
	logFormat            LogFormat
	catalogPath          string
	phraseParallelism    int
	removalMinSimilarity float64
	embeddingEndpoint    *Endpoint
	chatEndpoint         *Endpoint
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		dbURL:             DefaultDBURL,
		logLevel:          DefaultLogLevel,
		logFormat:         LogFormatPretty,
		phraseParallelism: DefaultPhraseParallelism,
	}
}

// DBURL returns the cart database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// CatalogPath returns the path to the static catalog dataset file.
func (c AppConfig) CatalogPath() string { return c.catalogPath }

// PhraseParallelism returns the per-request concurrency limit for phrase
// resolution.
func (c AppConfig) PhraseParallelism() int { return c.phraseParallelism }

// RemovalMinSimilarity returns the similarity floor for cart removals.
// Zero disables the floor: the closest cart entry is always removed.
func (c AppConfig) RemovalMinSimilarity() float64 { return c.removalMinSimilarity }

// EmbeddingEndpoint returns the embedding endpoint config.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// ChatEndpoint returns the chat (intent extraction) endpoint config.
func (c AppConfig) ChatEndpoint() *Endpoint { return c.chatEndpoint }

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithDBURL sets the cart database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithCatalogPath sets the catalog dataset path.
func WithCatalogPath(path string) AppConfigOption {
	return func(c *AppConfig) { c.catalogPath = path }
}

// WithPhraseParallelism sets the per-request phrase concurrency limit.
func WithPhraseParallelism(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.phraseParallelism = n
		}
	}
}

// WithRemovalMinSimilarity sets the removal similarity floor.
func WithRemovalMinSimilarity(s float64) AppConfigOption {
	return func(c *AppConfig) {
		if s >= 0 {
			c.removalMinSimilarity = s
		}
	}
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithChatEndpoint sets the chat endpoint.
func WithChatEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.chatEndpoint = &e }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// LogAttrs returns slog attributes for logging the configuration. API keys
// are never included.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("db_url", c.maskedDBURL()),
		slog.String("log_level", c.logLevel),
		slog.String("catalog_path", c.catalogPath),
		slog.Int("phrase_parallelism", c.phraseParallelism),
		slog.Float64("removal_min_similarity", c.removalMinSimilarity),
		slog.String("embedding_model", endpointModel(c.embeddingEndpoint)),
		slog.String("chat_model", endpointModel(c.chatEndpoint)),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if len(c.dbURL) >= 7 && c.dbURL[:7] == "sqlite:" {
		return c.dbURL
	}
	return "postgres://***@***"
}

func endpointModel(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.Model()
}

// String implements fmt.Stringer, masking sensitive values.
func (c AppConfig) String() string {
	return fmt.Sprintf("AppConfig{db=%s level=%s}", c.maskedDBURL(), c.logLevel)
}
