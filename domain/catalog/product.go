// Package catalog defines the fixed universe of purchasable products and the
// lookup contract used to resolve free-text product mentions against it.
package catalog

import "context"

// Product is an immutable catalog entry. The descriptive text is the
// concatenation of all textual attributes used for similarity matching and is
// fixed at build time; products are never mutated during request handling.
type Product struct {
	id              string
	name            string
	descriptiveText string
	embedding       []float64
}

// NewProduct creates a Product without an embedding. The catalog index
// computes embeddings for such products when it is built.
func NewProduct(id, name, descriptiveText string) Product {
	return Product{
		id:              id,
		name:            name,
		descriptiveText: descriptiveText,
	}
}

// WithEmbedding returns a copy of the product carrying a precomputed
// embedding vector.
func (p Product) WithEmbedding(embedding []float64) Product {
	cp := make([]float64, len(embedding))
	copy(cp, embedding)
	p.embedding = cp
	return p
}

// ID returns the unique product identifier.
func (p Product) ID() string { return p.id }

// Name returns the product name.
func (p Product) Name() string { return p.name }

// DescriptiveText returns the combined matching text.
func (p Product) DescriptiveText() string { return p.descriptiveText }

// Embedding returns a copy of the embedding vector, or nil if the product has
// not been embedded yet.
func (p Product) Embedding() []float64 {
	if p.embedding == nil {
		return nil
	}
	cp := make([]float64, len(p.embedding))
	copy(cp, p.embedding)
	return cp
}

// HasEmbedding reports whether the product carries a precomputed embedding.
func (p Product) HasEmbedding() bool { return len(p.embedding) > 0 }

// Match is the result of a similarity search: a candidate product and its
// similarity score. Scores are used only for top-k selection and are never
// persisted.
type Match struct {
	product Product
	score   float64
}

// NewMatch creates a new Match.
func NewMatch(product Product, score float64) Match {
	return Match{product: product, score: score}
}

// Product returns the matched product.
func (m Match) Product() Product { return m.product }

// Score returns the cosine similarity of the match.
func (m Match) Score() float64 { return m.score }

// Index is a read-only nearest-neighbor view over the full catalog. There is
// no mutation API: the catalog is built once at startup and ingestion is an
// external concern.
type Index interface {
	// Search returns up to k products ordered by descending cosine
	// similarity to the query vector. Ties keep catalog order.
	Search(vector []float64, k int) []Match

	// ResolveBest embeds the phrase and returns the single nearest product.
	ResolveBest(ctx context.Context, phrase string) (Match, error)

	// Size returns the number of indexed products.
	Size() int
}

// Embedder converts text into fixed-dimension vectors for similarity
// comparison. Implementations must be deterministic for a fixed model
// version and must return one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
