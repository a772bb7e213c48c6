package service

import (
	"context"
	"fmt"

	"github.com/intentcart/intentcart/domain/cart"
	"github.com/intentcart/intentcart/domain/catalog"
	"github.com/intentcart/intentcart/internal/log"
)

// RemovalKind classifies the outcome of a removal attempt.
type RemovalKind string

// RemovalKind values.
const (
	// RemovalDone indicates the closest entry was deleted.
	RemovalDone RemovalKind = "removed"

	// RemovalCartEmpty indicates the user's cart had no entries.
	RemovalCartEmpty RemovalKind = "cart_empty"

	// RemovalNoMatch indicates no entry scored above the similarity floor,
	// or the chosen entry vanished before the delete landed.
	RemovalNoMatch RemovalKind = "no_match"
)

// Removal is the result of resolving one removal phrase.
type Removal struct {
	kind  RemovalKind
	entry cart.Entry
	score float64
}

// Kind returns the removal outcome.
func (r Removal) Kind() RemovalKind { return r.kind }

// Entry returns the removed entry. Only meaningful when Kind is RemovalDone.
func (r Removal) Entry() cart.Entry { return r.entry }

// Score returns the similarity between the phrase and the chosen entry.
func (r Removal) Score() float64 { return r.score }

// Remover resolves free-text removal phrases against the user's current
// cart contents. Unlike adds, which search the catalog, removal matching
// only ever considers what is actually in the cart.
type Remover struct {
	store         cart.Store
	embedder      catalog.Embedder
	minSimilarity float64
	logger        *log.Logger
}

// NewRemover creates a Remover. A minSimilarity of zero disables the
// floor, so the closest entry is always removed.
func NewRemover(store cart.Store, embedder catalog.Embedder, minSimilarity float64, logger *log.Logger) *Remover {
	if logger == nil {
		logger = log.Default()
	}
	return &Remover{
		store:         store,
		embedder:      embedder,
		minSimilarity: minSimilarity,
		logger:        logger,
	}
}

// Resolve embeds the phrase and every cart entry's match text in a single
// batch, picks the entry with the highest cosine similarity, and deletes
// it. The earliest-added entry wins ties.
func (r *Remover) Resolve(ctx context.Context, userID, phrase string) (Removal, error) {
	entries, err := r.store.List(ctx, userID)
	if err != nil {
		return Removal{}, fmt.Errorf("list cart: %w", err)
	}
	if len(entries) == 0 {
		return Removal{kind: RemovalCartEmpty}, nil
	}

	texts := make([]string, 0, len(entries)+1)
	texts = append(texts, phrase)
	for _, entry := range entries {
		texts = append(texts, entry.MatchText())
	}

	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return Removal{}, fmt.Errorf("embed removal candidates: %w", err)
	}
	if len(vectors) != len(texts) {
		return Removal{}, fmt.Errorf("embed removal candidates: expected %d vectors, got %d", len(texts), len(vectors))
	}

	phraseVec := vectors[0]
	bestIdx := -1
	bestScore := 0.0
	for i := range entries {
		score := catalog.CosineSimilarity(phraseVec, vectors[i+1])
		if bestIdx < 0 || score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	best := entries[bestIdx]
	if r.minSimilarity > 0 && bestScore < r.minSimilarity {
		r.logger.DebugContext(ctx, "removal below similarity floor",
			"phrase", phrase,
			"closest", best.ProductName(),
			"score", bestScore,
			"floor", r.minSimilarity,
		)
		return Removal{kind: RemovalNoMatch, score: bestScore}, nil
	}

	outcome, err := r.store.Remove(ctx, userID, best.ProductID())
	if err != nil {
		return Removal{}, fmt.Errorf("remove cart entry: %w", err)
	}
	if outcome == cart.OutcomeNotFound {
		// The entry was deleted between List and Remove.
		return Removal{kind: RemovalNoMatch, score: bestScore}, nil
	}

	r.logger.InfoContext(ctx, "cart entry removed by phrase",
		"phrase", phrase,
		"product_id", best.ProductID(),
		"score", bestScore,
	)

	return Removal{kind: RemovalDone, entry: best, score: bestScore}, nil
}
