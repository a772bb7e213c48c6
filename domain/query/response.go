package query

import "github.com/intentcart/intentcart/domain/cart"

// MatchStatus describes the per-phrase outcome of resolution.
type MatchStatus string

// MatchStatus values.
const (
	StatusAdded         MatchStatus = "added"
	StatusAlreadyInCart MatchStatus = "already_in_cart"
	StatusRemoved       MatchStatus = "removed"
	StatusCartEmpty     MatchStatus = "cart_empty"
	StatusNoMatch       MatchStatus = "no_match"
	StatusFailed        MatchStatus = "failed"
)

// PhraseMatch is the resolution result for one product mention: the matched
// product (if any), the mutation status, and the similarity score used for
// selection. Failure carries a human-readable reason when status is
// StatusFailed; other phrases in the same request are unaffected.
type PhraseMatch struct {
	phrase      Mention
	productID   string
	productName string
	status      MatchStatus
	score       float64
	failure     string
}

// NewPhraseMatch creates a PhraseMatch for a resolved product.
func NewPhraseMatch(phrase Mention, productID, productName string, status MatchStatus, score float64) PhraseMatch {
	return PhraseMatch{
		phrase:      phrase,
		productID:   productID,
		productName: productName,
		status:      status,
		score:       score,
	}
}

// NewPhraseFailure creates a PhraseMatch recording a per-phrase failure.
func NewPhraseFailure(phrase Mention, reason string) PhraseMatch {
	return PhraseMatch{
		phrase:  phrase,
		status:  StatusFailed,
		failure: reason,
	}
}

// NewPhraseStatus creates a PhraseMatch carrying only a status, for outcomes
// with no matched product (empty cart, below-floor match).
func NewPhraseStatus(phrase Mention, status MatchStatus, score float64) PhraseMatch {
	return PhraseMatch{
		phrase: phrase,
		status: status,
		score:  score,
	}
}

// Phrase returns the originating mention.
func (m PhraseMatch) Phrase() Mention { return m.phrase }

// ProductID returns the matched product's identifier, or empty.
func (m PhraseMatch) ProductID() string { return m.productID }

// ProductName returns the matched product's name, or empty.
func (m PhraseMatch) ProductName() string { return m.productName }

// Status returns the resolution status.
func (m PhraseMatch) Status() MatchStatus { return m.status }

// Score returns the similarity score used for top-1 selection.
func (m PhraseMatch) Score() float64 { return m.score }

// Failure returns the failure reason when Status is StatusFailed.
func (m PhraseMatch) Failure() string { return m.failure }

// Response is the normalized result of one query: the original text, the
// extraction, the per-phrase matches, and the full cart listing for SHOW
// queries only.
type Response struct {
	query    string
	intent   Intent
	mentions []Mention
	matches  []PhraseMatch
	cart     []cart.Entry
	showCart bool
	note     string
}

// NewResponse creates a Response from the original query text and its
// extraction.
func NewResponse(queryText string, extraction Extraction) Response {
	return Response{
		query:    queryText,
		intent:   extraction.Intent(),
		mentions: extraction.Mentions(),
	}
}

// WithMatches returns a copy carrying per-phrase matches.
func (r Response) WithMatches(matches []PhraseMatch) Response {
	cp := make([]PhraseMatch, len(matches))
	copy(cp, matches)
	r.matches = cp
	return r
}

// WithCart returns a copy carrying the full cart listing. Only SHOW
// responses carry one.
func (r Response) WithCart(entries []cart.Entry) Response {
	cp := make([]cart.Entry, len(entries))
	copy(cp, entries)
	r.cart = cp
	r.showCart = true
	return r
}

// WithNote returns a copy carrying an informational note, e.g. for an
// unrecognized intent.
func (r Response) WithNote(note string) Response {
	r.note = note
	return r
}

// Query returns the original query text.
func (r Response) Query() string { return r.query }

// Intent returns the extracted intent.
func (r Response) Intent() Intent { return r.intent }

// Mentions returns the extracted product mentions.
func (r Response) Mentions() []Mention {
	cp := make([]Mention, len(r.mentions))
	copy(cp, r.mentions)
	return cp
}

// Matches returns the per-phrase resolution results.
func (r Response) Matches() []PhraseMatch {
	cp := make([]PhraseMatch, len(r.matches))
	copy(cp, r.matches)
	return cp
}

// Cart returns the cart listing and whether one is present. Only SHOW
// responses carry a listing; an empty cart is a present, empty slice.
func (r Response) Cart() ([]cart.Entry, bool) {
	if !r.showCart {
		return nil, false
	}
	cp := make([]cart.Entry, len(r.cart))
	copy(cp, r.cart)
	return cp, true
}

// Note returns the informational note, or empty.
func (r Response) Note() string { return r.note }
