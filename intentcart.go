// Package intentcart provides a library that resolves free-text shopping
// queries into cart mutations.
//
// A query like "add a toothpaste and a water bottle" is run through an
// LLM to extract the intent and product phrases, each phrase is matched
// against a fixed product catalog by embedding similarity, and the user's
// cart is updated accordingly. Removal phrases are matched against the
// cart's current contents instead of the catalog.
//
// Basic usage:
//
//	client, err := intentcart.New(ctx,
//	    intentcart.WithSQLite(".intentcart/cart.db"),
//	    intentcart.WithCatalogFile("catalog.yaml"),
//	    intentcart.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Query(ctx, "user-1", "add a toothpaste")
//	for _, match := range resp.Matches() {
//	    fmt.Println(match.ProductName(), match.Status())
//	}
package intentcart

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/intentcart/intentcart/application/service"
	"github.com/intentcart/intentcart/domain/cart"
	"github.com/intentcart/intentcart/domain/query"
	"github.com/intentcart/intentcart/infrastructure/dataset"
	"github.com/intentcart/intentcart/infrastructure/extractor"
	"github.com/intentcart/intentcart/infrastructure/index"
	"github.com/intentcart/intentcart/infrastructure/persistence"
	"github.com/intentcart/intentcart/infrastructure/provider"
	"github.com/intentcart/intentcart/internal/config"
	"github.com/intentcart/intentcart/internal/database"
	"github.com/intentcart/intentcart/internal/log"
)

// Construction errors.
var (
	// ErrNoCatalog indicates no product catalog was configured.
	ErrNoCatalog = errors.New("intentcart: no product catalog configured")

	// ErrNoEmbedder indicates no embedding provider was configured.
	ErrNoEmbedder = errors.New("intentcart: no embedding provider configured")

	// ErrNoTextGenerator indicates no text generation provider was configured.
	ErrNoTextGenerator = errors.New("intentcart: no text generation provider configured")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("intentcart: client is closed")
)

// Client is the main entry point for the intentcart library. It owns the
// catalog index, the cart store, and the query pipeline.
type Client struct {
	queries *service.Query
	cart    cart.Store
	index   *index.Catalog

	db      database.Database
	closers []interface{ Close() error }
	logger  *log.Logger
	closed  atomic.Bool
}

// New creates a new Client with the given options. The catalog is
// embedded and indexed during construction, so the first query pays no
// warm-up cost.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.Default()
	}

	products := cfg.products
	if len(products) == 0 && cfg.catalogPath != "" {
		loaded, err := dataset.Load(cfg.catalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		products = loaded
	}
	if len(products) == 0 {
		return nil, ErrNoCatalog
	}

	embedder := cfg.embedder
	if embedder == nil {
		if cfg.embeddingProvider == nil {
			return nil, ErrNoEmbedder
		}
		embedder = provider.NewTextEmbedder(cfg.embeddingProvider)
	}
	if cfg.textProvider == nil {
		return nil, ErrNoTextGenerator
	}

	db, err := database.NewDatabase(ctx, cfg.dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store, err := persistence.NewCartStore(ctx, db, logger)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("cart store: %w", err), errClose)
	}

	idx, err := index.Build(ctx, products, embedder, logger)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("build catalog index: %w", err), errClose)
	}

	queries := service.NewQuery(
		extractor.New(cfg.textProvider, logger),
		idx,
		embedder,
		store,
		cfg.removalMinSimilarity,
		service.WithPhraseParallelism(cfg.phraseParallelism),
		service.WithLogger(logger),
	)

	return &Client{
		queries: queries,
		cart:    store,
		index:   idx,
		db:      db,
		closers: cfg.closers,
		logger:  logger,
	}, nil
}

// NewFromConfig creates a Client from application configuration, typically
// loaded via config.LoadConfig. Explicit options override the config.
func NewFromConfig(ctx context.Context, cfg config.AppConfig, opts ...Option) (*Client, error) {
	base := []Option{
		WithDatabaseURL(cfg.DBURL()),
		WithPhraseParallelism(cfg.PhraseParallelism()),
		WithRemovalMinSimilarity(cfg.RemovalMinSimilarity()),
		WithLogger(log.NewLogger(cfg)),
	}
	if cfg.CatalogPath() != "" {
		base = append(base, WithCatalogFile(cfg.CatalogPath()))
	}
	if cfg.ChatEndpoint() != nil || cfg.EmbeddingEndpoint() != nil {
		base = append(base, WithEndpoints(cfg.ChatEndpoint(), cfg.EmbeddingEndpoint()))
	}
	return New(ctx, append(base, opts...)...)
}

// Query processes one free-text shopping query for the given user. Each
// call is tagged with a fresh request ID for log correlation.
func (c *Client) Query(ctx context.Context, userID, text string) (query.Response, error) {
	if c.closed.Load() {
		return query.Response{}, ErrClientClosed
	}

	ctx = log.WithRequestID(ctx, uuid.NewString())
	ctx = log.WithUserID(ctx, userID)

	c.logger.InfoContext(ctx, "processing query", "query", text)
	return c.queries.Run(ctx, userID, text)
}

// Cart returns the user's cart entries in insertion order.
func (c *Client) Cart(ctx context.Context, userID string) ([]cart.Entry, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	return c.cart.List(ctx, userID)
}

// CatalogSize returns the number of products in the index.
func (c *Client) CatalogSize() int {
	return c.index.Size()
}

// Close releases the database connection and any provider resources.
// Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
