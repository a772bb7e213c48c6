// Package extractor turns free-text shopping queries into structured
// intent and product mentions using a text generation model.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/intentcart/intentcart/domain/query"
	"github.com/intentcart/intentcart/infrastructure/provider"
	"github.com/intentcart/intentcart/internal/log"
)

const promptTemplate = `You are an assistant for a shopping app. Your task is to:
1. Identify the user's intent from one of these: ["add the products", "remove the product", "show the products"]
2. Extract and list the products mentioned in the query as a list of strings.

Respond strictly in the following format (JSON-like):
Intent: {<intent>}
Products: [<product1>, <product2>, ..., <productN>]

Example Input: "I want a toothpaste, a 1kg horlicks pack and a nail paint of blue color"
Output:
Intent: {add the products}
Products: ["toothpaste", "1kg horlicks pack", "nail paint of blue color"]

Now process the following input:
"%s"`

// extractionTemperature keeps the model close to the prescribed output
// format.
const extractionTemperature = 0.2

// Extractor extracts intent and product mentions from user queries.
type Extractor struct {
	generator provider.TextGenerator
	logger    *log.Logger
}

// New creates a new Extractor.
func New(generator provider.TextGenerator, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{generator: generator, logger: logger}
}

// Extract sends the user query to the model and parses the two-line
// response. A response that does not follow the format yields a
// malformed extraction rather than an error, so callers can degrade to
// an unknown intent.
func (e *Extractor) Extract(ctx context.Context, userQuery string) (query.Extraction, error) {
	prompt := fmt.Sprintf(promptTemplate, userQuery)

	req := provider.NewChatCompletionRequest([]provider.Message{
		provider.UserMessage(prompt),
	}).WithTemperature(extractionTemperature)

	resp, err := e.generator.ChatCompletion(ctx, req)
	if err != nil {
		return query.Extraction{}, fmt.Errorf("extract intent: %w", err)
	}

	extraction := parseModelOutput(resp.Content())

	e.logger.DebugContext(ctx, "intent extracted",
		"intent", string(extraction.Intent()),
		"mentions", len(extraction.Mentions()),
		"malformed", extraction.Malformed(),
	)

	if extraction.Malformed() {
		e.logger.WarnContext(ctx, "model output did not follow the expected format",
			"output", strings.TrimSpace(resp.Content()),
		)
	}

	return extraction, nil
}
