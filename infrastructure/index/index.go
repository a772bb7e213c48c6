// Package index provides an in-memory vector index over the product
// catalog. The catalog is fixed at build time and searched with cosine
// similarity.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/intentcart/intentcart/domain/catalog"
	"github.com/intentcart/intentcart/internal/log"
)

// Common errors.
var (
	// ErrEmptyCatalog indicates the index was built with no products.
	ErrEmptyCatalog = errors.New("catalog contains no products")

	// ErrEmptyIndex indicates a search against an index with no usable vectors.
	ErrEmptyIndex = errors.New("index contains no vectors")
)

// embedBatchSize bounds the number of texts per embedding request during
// the build.
const embedBatchSize = 64

// Catalog is an in-memory vector index over a fixed product catalog.
// Build embeds every product once; lookups never touch the embedding
// service except to embed the query phrase itself.
type Catalog struct {
	products []catalog.Product
	embedder catalog.Embedder
	logger   *log.Logger
}

// Build creates a Catalog index from the given products. Products that
// already carry an embedding are kept as-is; the rest are embedded in
// batches from their descriptive text.
func Build(ctx context.Context, products []catalog.Product, embedder catalog.Embedder, logger *log.Logger) (*Catalog, error) {
	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}
	if logger == nil {
		logger = log.Default()
	}

	indexed := make([]catalog.Product, len(products))
	copy(indexed, products)

	var (
		pending      []int
		pendingTexts []string
	)
	for i, p := range indexed {
		if !p.HasEmbedding() {
			pending = append(pending, i)
			pendingTexts = append(pendingTexts, p.DescriptiveText())
		}
	}

	for start := 0; start < len(pending); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pending) {
			end = len(pending)
		}

		vectors, err := embedder.Embed(ctx, pendingTexts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed catalog batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embed catalog batch %d-%d: expected %d vectors, got %d", start, end, end-start, len(vectors))
		}

		for j, vec := range vectors {
			i := pending[start+j]
			indexed[i] = indexed[i].WithEmbedding(vec)
		}
	}

	logger.InfoContext(ctx, "catalog index built",
		"products", len(indexed),
		"embedded", len(pending),
	)

	return &Catalog{
		products: indexed,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Size returns the number of products in the index.
func (c *Catalog) Size() int {
	return len(c.products)
}

// Products returns the indexed products.
func (c *Catalog) Products() []catalog.Product {
	cp := make([]catalog.Product, len(c.products))
	copy(cp, c.products)
	return cp
}

// Search returns the k products closest to the query vector, sorted by
// cosine similarity descending. Catalog order breaks ties.
func (c *Catalog) Search(vector []float64, k int) []catalog.Match {
	if k <= 0 {
		return []catalog.Match{}
	}

	matches := make([]catalog.Match, 0, len(c.products))
	for _, p := range c.products {
		score := catalog.CosineSimilarity(vector, p.Embedding())
		matches = append(matches, catalog.NewMatch(p, score))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score() > matches[j].Score()
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}

// ResolveBest embeds the phrase and returns the single closest product.
func (c *Catalog) ResolveBest(ctx context.Context, phrase string) (catalog.Match, error) {
	vectors, err := c.embedder.Embed(ctx, []string{phrase})
	if err != nil {
		return catalog.Match{}, fmt.Errorf("embed phrase: %w", err)
	}
	if len(vectors) != 1 {
		return catalog.Match{}, fmt.Errorf("embed phrase: expected 1 vector, got %d", len(vectors))
	}

	matches := c.Search(vectors[0], 1)
	if len(matches) == 0 {
		return catalog.Match{}, ErrEmptyIndex
	}

	c.logger.DebugContext(ctx, "phrase resolved",
		"phrase", phrase,
		"product_id", matches[0].Product().ID(),
		"score", matches[0].Score(),
	)

	return matches[0], nil
}

var _ catalog.Index = (*Catalog)(nil)
