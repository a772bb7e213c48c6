package intentcart

import (
	"github.com/intentcart/intentcart/domain/catalog"
	"github.com/intentcart/intentcart/infrastructure/provider"
	"github.com/intentcart/intentcart/internal/config"
	"github.com/intentcart/intentcart/internal/log"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	dbURL                string
	catalogPath          string
	products             []catalog.Product
	textProvider         provider.TextGenerator
	embeddingProvider    provider.Embedder
	embedder             catalog.Embedder
	logger               *log.Logger
	phraseParallelism    int
	removalMinSimilarity float64
	closers              []interface{ Close() error }
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dbURL:             config.DefaultDBURL,
		phraseParallelism: config.DefaultPhraseParallelism,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the cart database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.dbURL = "sqlite:///" + path
	}
}

// WithPostgres configures PostgreSQL as the cart database.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.dbURL = dsn
	}
}

// WithDatabaseURL sets the cart database URL directly
// (sqlite:///path or postgres://...).
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		if url != "" {
			c.dbURL = url
		}
	}
}

// WithCatalogFile loads the product catalog from a file
// (.yaml/.yml or .jsonl/.ndjson).
func WithCatalogFile(path string) Option {
	return func(c *clientConfig) {
		c.catalogPath = path
	}
}

// WithProducts supplies the product catalog directly.
func WithProducts(products []catalog.Product) Option {
	return func(c *clientConfig) {
		cp := make([]catalog.Product, len(products))
		copy(cp, products)
		c.products = cp
	}
}

// WithOpenAI sets OpenAI as the AI provider (text + embeddings).
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		p := provider.NewOpenAIProvider(apiKey)
		c.textProvider = p
		c.embeddingProvider = p
		c.closers = append(c.closers, p)
	}
}

// WithEndpoints configures separate chat and embedding endpoints for any
// OpenAI-compatible API. Either endpoint may be nil.
func WithEndpoints(chat, embedding *config.Endpoint) Option {
	return func(c *clientConfig) {
		p := provider.NewOpenAIProviderFromEndpoints(chat, embedding)
		if p.SupportsTextGeneration() {
			c.textProvider = p
		}
		if p.SupportsEmbedding() {
			c.embeddingProvider = p
		}
		c.closers = append(c.closers, p)
	}
}

// WithTextGenerator sets a custom text generation provider.
func WithTextGenerator(p provider.TextGenerator) Option {
	return func(c *clientConfig) {
		c.textProvider = p
	}
}

// WithEmbeddingProvider sets a custom embedding provider.
func WithEmbeddingProvider(p provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = p
	}
}

// WithEmbedder sets a domain-level embedder directly, bypassing the
// provider layer. Mostly useful for tests and local models.
func WithEmbedder(e catalog.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithPhraseParallelism bounds concurrent phrase resolution per query.
func WithPhraseParallelism(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.phraseParallelism = n
		}
	}
}

// WithRemovalMinSimilarity sets a similarity floor for cart removals.
// Zero (the default) disables the floor and the closest entry is always
// removed.
func WithRemovalMinSimilarity(s float64) Option {
	return func(c *clientConfig) {
		if s >= 0 && s <= 1 {
			c.removalMinSimilarity = s
		}
	}
}
