// Package query defines the structured form of a free-text shopping query:
// the intent, the product mentions extracted from it, and the normalized
// response assembled after resolution.
package query

import "strings"

// Intent is the closed action class derived from a query. Anything the
// extractor emits outside the closed set maps to IntentUnknown; the engine
// never defaults to ADD.
type Intent string

// Intent values.
const (
	IntentAdd     Intent = "ADD"
	IntentRemove  Intent = "REMOVE"
	IntentShow    Intent = "SHOW"
	IntentUnknown Intent = "UNKNOWN"
)

// Model-facing intent labels. These are the literal strings the prompt
// template instructs the model to choose from.
const (
	LabelAdd    = "add the products"
	LabelRemove = "remove the product"
	LabelShow   = "show the products"
)

// ParseIntent maps a raw intent label from the model to an Intent. Matching
// is case-insensitive and tolerates enclosing brace/bracket/quote
// punctuation and singular/plural drift in the label. Unrecognized labels
// yield IntentUnknown.
func ParseIntent(raw string) Intent {
	label := strings.ToLower(strings.Trim(strings.TrimSpace(raw), "{}[]\"' \t"))
	switch label {
	case LabelAdd, "add the product":
		return IntentAdd
	case LabelRemove, "remove the products":
		return IntentRemove
	case LabelShow, "show the product", "show the cart":
		return IntentShow
	default:
		return IntentUnknown
	}
}

// Label returns the canonical model-facing label for the intent, or an empty
// string for IntentUnknown.
func (i Intent) Label() string {
	switch i {
	case IntentAdd:
		return LabelAdd
	case IntentRemove:
		return LabelRemove
	case IntentShow:
		return LabelShow
	default:
		return ""
	}
}

// Recognized reports whether the intent is in the closed set.
func (i Intent) Recognized() bool {
	return i == IntentAdd || i == IntentRemove || i == IntentShow
}
