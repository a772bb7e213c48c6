// Package service provides application layer services that orchestrate
// intent extraction, catalog resolution, and cart mutation.
package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/intentcart/intentcart/domain/cart"
	"github.com/intentcart/intentcart/domain/catalog"
	"github.com/intentcart/intentcart/domain/query"
	"github.com/intentcart/intentcart/internal/config"
	"github.com/intentcart/intentcart/internal/log"
)

// Extractor extracts intent and product mentions from a user query.
type Extractor interface {
	Extract(ctx context.Context, userQuery string) (query.Extraction, error)
}

// Query resolves free-text shopping queries into cart mutations. One call
// to Run handles the full pipeline: extraction, per-phrase catalog or
// cart resolution, and the mutation itself.
type Query struct {
	extractor   Extractor
	index       catalog.Index
	store       cart.Store
	remover     *Remover
	parallelism int
	logger      *log.Logger
}

// QueryOption configures a Query service.
type QueryOption func(*Query)

// WithPhraseParallelism bounds concurrent phrase resolution per request.
func WithPhraseParallelism(n int) QueryOption {
	return func(q *Query) {
		if n > 0 {
			q.parallelism = n
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *log.Logger) QueryOption {
	return func(q *Query) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// NewQuery creates a Query service. The embedder is used for removal
// matching against cart contents; adds resolve through the index.
func NewQuery(extractor Extractor, index catalog.Index, embedder catalog.Embedder, store cart.Store, removalMinSimilarity float64, opts ...QueryOption) *Query {
	q := &Query{
		extractor:   extractor,
		index:       index,
		store:       store,
		parallelism: config.DefaultPhraseParallelism,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.remover = NewRemover(store, embedder, removalMinSimilarity, q.logger)
	return q
}

// Run processes one user query end to end and returns the structured
// response. Failures of individual phrases are recorded in the response;
// only request-level failures (extraction, cart listing) become errors.
func (q *Query) Run(ctx context.Context, userID, text string) (query.Response, error) {
	if strings.TrimSpace(userID) == "" {
		return query.Response{}, ErrMissingUser
	}
	if strings.TrimSpace(text) == "" {
		return query.Response{}, ErrEmptyQuery
	}

	extraction, err := q.extractor.Extract(ctx, text)
	if err != nil {
		return query.Response{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	resp := query.NewResponse(text, extraction)

	switch extraction.Intent() {
	case query.IntentShow:
		return q.show(ctx, userID, resp)
	case query.IntentAdd:
		return q.add(ctx, userID, extraction, resp)
	case query.IntentRemove:
		return q.remove(ctx, userID, extraction, resp)
	default:
		q.logger.InfoContext(ctx, "query intent not recognized",
			"raw_intent", extraction.RawIntent(),
			"malformed", extraction.Malformed(),
		)
		return resp.WithNote("could not determine what to do with this query; cart unchanged"), nil
	}
}

func (q *Query) show(ctx context.Context, userID string, resp query.Response) (query.Response, error) {
	entries, err := q.store.List(ctx, userID)
	if err != nil {
		return query.Response{}, fmt.Errorf("list cart: %w", err)
	}
	return resp.WithCart(entries), nil
}

// add resolves each mention against the catalog concurrently and inserts
// the winners. Results keep mention order regardless of completion order,
// and one phrase failing never aborts the others.
func (q *Query) add(ctx context.Context, userID string, extraction query.Extraction, resp query.Response) (query.Response, error) {
	mentions := extraction.Mentions()
	if len(mentions) == 0 {
		return resp.WithNote("no products identified in the query"), nil
	}

	matches := make([]query.PhraseMatch, len(mentions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.parallelism)
	for i, mention := range mentions {
		i, mention := i, mention
		g.Go(func() error {
			matches[i] = q.addOne(gctx, userID, extraction.IntentLabel(), mention)
			return nil
		})
	}
	// Goroutines never return errors; failures land in the match slice.
	_ = g.Wait()

	return resp.WithMatches(matches), nil
}

// addOne resolves a single mention. The intent label is prepended to the
// phrase before embedding so retrieval sees the full shopping context.
func (q *Query) addOne(ctx context.Context, userID, intentLabel string, mention query.Mention) query.PhraseMatch {
	searchText := intentLabel + " " + mention.String()

	match, err := q.index.ResolveBest(ctx, searchText)
	if err != nil {
		q.logger.WarnContext(ctx, "phrase resolution failed",
			"phrase", mention.String(),
			"error", err,
		)
		return query.NewPhraseFailure(mention, err.Error())
	}

	product := match.Product()
	outcome, err := q.store.Add(ctx, cart.NewEntry(userID, product.ID(), product.Name(), product.DescriptiveText()))
	if err != nil {
		q.logger.WarnContext(ctx, "cart add failed",
			"phrase", mention.String(),
			"product_id", product.ID(),
			"error", err,
		)
		return query.NewPhraseFailure(mention, err.Error())
	}

	status := query.StatusAdded
	if outcome == cart.OutcomeAlreadyPresent {
		status = query.StatusAlreadyInCart
	}
	return query.NewPhraseMatch(mention, product.ID(), product.Name(), status, match.Score())
}

// remove resolves mentions against the cart one at a time. Sequential on
// purpose: each removal changes the candidate set the next one sees.
func (q *Query) remove(ctx context.Context, userID string, extraction query.Extraction, resp query.Response) (query.Response, error) {
	mentions := extraction.Mentions()
	if len(mentions) == 0 {
		return resp.WithNote("no products identified in the query"), nil
	}

	matches := make([]query.PhraseMatch, len(mentions))
	for i, mention := range mentions {
		matches[i] = q.removeOne(ctx, userID, mention)
	}

	return resp.WithMatches(matches), nil
}

func (q *Query) removeOne(ctx context.Context, userID string, mention query.Mention) query.PhraseMatch {
	removal, err := q.remover.Resolve(ctx, userID, mention.String())
	if err != nil {
		q.logger.WarnContext(ctx, "removal resolution failed",
			"phrase", mention.String(),
			"error", err,
		)
		return query.NewPhraseFailure(mention, err.Error())
	}

	switch removal.Kind() {
	case RemovalDone:
		entry := removal.Entry()
		return query.NewPhraseMatch(mention, entry.ProductID(), entry.ProductName(), query.StatusRemoved, removal.Score())
	case RemovalCartEmpty:
		return query.NewPhraseStatus(mention, query.StatusCartEmpty, 0)
	default:
		return query.NewPhraseStatus(mention, query.StatusNoMatch, removal.Score())
	}
}
