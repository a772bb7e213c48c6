package query

// Mention is an unresolved free-text reference to a product, extracted from
// the query but not yet matched to a catalog product or cart entry.
type Mention string

// String returns the mention text.
func (m Mention) String() string { return string(m) }

// Extraction is the structured output of the intent extractor: the parsed
// intent, the raw intent label as the model emitted it, and the ordered
// product mentions. Malformed reports that the model response did not
// follow the expected two-line format.
type Extraction struct {
	intent    Intent
	rawIntent string
	mentions  []Mention
	malformed bool
}

// NewExtraction creates a new Extraction.
func NewExtraction(intent Intent, rawIntent string, mentions []Mention) Extraction {
	cp := make([]Mention, len(mentions))
	copy(cp, mentions)
	return Extraction{
		intent:    intent,
		rawIntent: rawIntent,
		mentions:  cp,
	}
}

// AsMalformed returns a copy flagged as malformed. Whatever intent and
// mentions were parseable are kept.
func (e Extraction) AsMalformed() Extraction {
	e.malformed = true
	return e
}

// Intent returns the parsed intent.
func (e Extraction) Intent() Intent { return e.intent }

// RawIntent returns the intent label exactly as the model emitted it.
func (e Extraction) RawIntent() string { return e.rawIntent }

// IntentLabel returns the raw intent label the model emitted, falling back
// to the canonical label for the parsed intent. Catalog retrieval prepends
// this label to each phrase so the search is intent-aware.
func (e Extraction) IntentLabel() string {
	if e.rawIntent != "" {
		return e.rawIntent
	}
	return e.intent.Label()
}

// Mentions returns the ordered product mentions.
func (e Extraction) Mentions() []Mention {
	cp := make([]Mention, len(e.mentions))
	copy(cp, e.mentions)
	return cp
}

// Malformed reports whether the model response did not follow the
// expected format.
func (e Extraction) Malformed() bool { return e.malformed }
