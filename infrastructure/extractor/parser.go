package extractor

import (
	"encoding/json"
	"strings"

	"github.com/intentcart/intentcart/domain/query"
)

// parseModelOutput parses the expected two-line model response:
//
//	Intent: {add the products}
//	Products: ["toothpaste", "1kg horlicks pack"]
//
// Lines are matched case-insensitively and may appear in any order.
// Extra lines (markdown fences, commentary) are ignored.
func parseModelOutput(text string) query.Extraction {
	var (
		rawIntent   string
		intentFound bool
		mentions    []query.Mention
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, "intent:"):
			value := strings.TrimSpace(line[len("intent:"):])
			rawIntent = strings.Trim(value, "{}")
			intentFound = true
		case strings.HasPrefix(lower, "products:"):
			value := strings.TrimSpace(line[len("products:"):])
			mentions = parseProductList(value)
		}
	}

	intent := query.ParseIntent(rawIntent)
	extraction := query.NewExtraction(intent, rawIntent, mentions)

	if !intentFound {
		return extraction.AsMalformed()
	}
	return extraction
}

// parseProductList parses a bracketed product list. The happy path is a
// JSON string array; single-quoted arrays are normalized first, and a
// bracketed value that still fails is split on commas. A value that is
// not a bracketed list at all is a parse failure and yields no mentions,
// so model prose never turns into a product phrase.
func parseProductList(value string) []query.Mention {
	value = strings.TrimSpace(value)
	if value == "" || value == "[]" {
		return nil
	}

	if items, ok := parseJSONArray(value); ok {
		return toMentions(items)
	}

	normalized := strings.ReplaceAll(value, "'", `"`)
	if items, ok := parseJSONArray(normalized); ok {
		return toMentions(items)
	}

	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return nil
	}

	// Last resort: strip brackets and split on commas.
	stripped := strings.Trim(value, "[]")
	parts := strings.Split(stripped, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		items = append(items, strings.Trim(strings.TrimSpace(p), `"'`))
	}
	return toMentions(items)
}

func parseJSONArray(value string) ([]string, bool) {
	var items []string
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil, false
	}
	return items, true
}

func toMentions(items []string) []query.Mention {
	mentions := make([]query.Mention, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		mentions = append(mentions, query.Mention(item))
	}
	if len(mentions) == 0 {
		return nil
	}
	return mentions
}
