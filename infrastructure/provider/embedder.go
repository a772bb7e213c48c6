package provider

import (
	"context"
	"fmt"

	"github.com/intentcart/intentcart/domain/catalog"
)

// TextEmbedder adapts a provider Embedder to the catalog's batch
// embedding interface.
type TextEmbedder struct {
	embedder Embedder
}

// NewTextEmbedder creates a new TextEmbedder.
func NewTextEmbedder(embedder Embedder) *TextEmbedder {
	return &TextEmbedder{embedder: embedder}
}

// Embed generates one vector per input text, in input order.
func (t *TextEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	resp, err := t.embedder.Embed(ctx, NewEmbeddingRequest(texts))
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	return resp.Embeddings(), nil
}

var _ catalog.Embedder = (*TextEmbedder)(nil)
