// Package cart defines per-user cart state and the store contract that owns
// it. The store is the only component permitted to mutate cart entries.
package cart

import "context"

// Entry is one row of a user's cart: the (userID, productID) pair plus a
// snapshot of the product's name and descriptive text copied at add time.
// The snapshot is deliberate: removal matching runs against what the user
// added, not against whatever the catalog says later.
type Entry struct {
	userID          string
	productID       string
	productName     string
	descriptiveText string
}

// NewEntry creates a new Entry.
func NewEntry(userID, productID, productName, descriptiveText string) Entry {
	return Entry{
		userID:          userID,
		productID:       productID,
		productName:     productName,
		descriptiveText: descriptiveText,
	}
}

// UserID returns the owning user's identifier.
func (e Entry) UserID() string { return e.userID }

// ProductID returns the product identifier.
func (e Entry) ProductID() string { return e.productID }

// ProductName returns the product name snapshot.
func (e Entry) ProductName() string { return e.productName }

// DescriptiveText returns the descriptive text snapshot.
func (e Entry) DescriptiveText() string { return e.descriptiveText }

// MatchText returns the string embedded for removal matching:
// "{name} - {descriptive text}".
func (e Entry) MatchText() string {
	return e.productName + " - " + e.descriptiveText
}

// Outcome describes the effect of a store mutation.
type Outcome string

// Outcome values.
const (
	// OutcomeAdded indicates the entry was inserted.
	OutcomeAdded Outcome = "added"

	// OutcomeAlreadyPresent indicates the (user, product) key already
	// existed. This is informational, not an error.
	OutcomeAlreadyPresent Outcome = "already_present"

	// OutcomeRemoved indicates the entry was deleted.
	OutcomeRemoved Outcome = "removed"

	// OutcomeNotFound indicates no entry matched the key.
	OutcomeNotFound Outcome = "not_found"
)

// Store persists cart entries keyed exactly on (userID, productID). The store
// performs no fuzzy matching; phrase-to-entry resolution happens one layer
// above it.
type Store interface {
	// Add inserts the entry. Re-adding an existing (user, product) key is a
	// no-op reporting OutcomeAlreadyPresent; it never errors and never
	// duplicates.
	Add(ctx context.Context, entry Entry) (Outcome, error)

	// List returns the user's entries in insertion order. A user with no
	// history yields an empty slice, not an error.
	List(ctx context.Context, userID string) ([]Entry, error)

	// Remove deletes the entry for the exact key, reporting OutcomeRemoved
	// or OutcomeNotFound.
	Remove(ctx context.Context, userID, productID string) (Outcome, error)
}
