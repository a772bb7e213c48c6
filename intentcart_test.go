package intentcart_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentcart/intentcart"
	"github.com/intentcart/intentcart/domain/catalog"
	"github.com/intentcart/intentcart/domain/query"
	"github.com/intentcart/intentcart/infrastructure/provider"
)

// keywordEmbedder maps each text to keyword occurrence counts, so cosine
// similarity reflects which products a phrase mentions. Deterministic and
// offline.
type keywordEmbedder struct{}

var embedderKeywords = []string{"toothpaste", "water", "bottle", "horlicks"}

func (keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		lowered := strings.ToLower(text)
		vec := make([]float64, len(embedderKeywords))
		for d, keyword := range embedderKeywords {
			vec[d] = float64(strings.Count(lowered, keyword))
		}
		out[i] = vec
	}
	return out, nil
}

var _ catalog.Embedder = keywordEmbedder{}

// scriptedGenerator answers the extraction prompt based on the user query
// embedded in it.
type scriptedGenerator struct {
	responses map[string]string
}

func (g *scriptedGenerator) ChatCompletion(_ context.Context, req provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	prompt := req.Messages()[0].Content()
	for needle, response := range g.responses {
		if strings.Contains(prompt, needle) {
			return provider.NewChatCompletionResponse(response, "stop", provider.NewUsage(0, 0, 0)), nil
		}
	}
	return provider.NewChatCompletionResponse("Intent: {unknown}\nProducts: []", "stop", provider.NewUsage(0, 0, 0)), nil
}

var _ provider.TextGenerator = (*scriptedGenerator)(nil)

func testCatalog() []catalog.Product {
	return []catalog.Product{
		catalog.NewProduct("p-tp", "Colgate Toothpaste", "About Product: colgate mint toothpaste for daily dental care"),
		catalog.NewProduct("p-wb", "Steel Water Bottle", "About Product: insulated steel water bottle keeps drinks cold"),
		catalog.NewProduct("p-hl", "Horlicks 1kg", "About Product: horlicks malted drink mix one kilogram pack"),
	}
}

func newTestClient(t *testing.T) *intentcart.Client {
	t.Helper()

	generator := &scriptedGenerator{responses: map[string]string{
		"i want a toothpaste and a water bottle": "Intent: {add the products}\nProducts: [\"toothpaste\", \"water bottle\"]",
		"add a toothpaste":                       "Intent: {add the products}\nProducts: [\"toothpaste\"]",
		"remove the toothpaste":                  "Intent: {remove the product}\nProducts: [\"toothpaste\"]",
		"show my cart":                           "Intent: {show the products}\nProducts: []",
	}}

	client, err := intentcart.New(context.Background(),
		intentcart.WithSQLite(t.TempDir()+"/cart.db"),
		intentcart.WithProducts(testCatalog()),
		intentcart.WithEmbedder(keywordEmbedder{}),
		intentcart.WithTextGenerator(generator),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_AddShowRemove(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	resp, err := client.Query(ctx, "u1", "i want a toothpaste and a water bottle")
	require.NoError(t, err)

	matches := resp.Matches()
	require.Len(t, matches, 2)
	assert.Equal(t, "p-tp", matches[0].ProductID())
	assert.Equal(t, query.StatusAdded, matches[0].Status())
	assert.Equal(t, "p-wb", matches[1].ProductID())

	resp, err = client.Query(ctx, "u1", "show my cart")
	require.NoError(t, err)
	entries, ok := resp.Cart()
	require.True(t, ok)
	require.Len(t, entries, 2)
	ids := []string{entries[0].ProductID(), entries[1].ProductID()}
	assert.ElementsMatch(t, []string{"p-tp", "p-wb"}, ids, "concurrent adds land in either order")

	resp, err = client.Query(ctx, "u1", "remove the toothpaste")
	require.NoError(t, err)
	matches = resp.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, query.StatusRemoved, matches[0].Status())
	assert.Equal(t, "p-tp", matches[0].ProductID())

	entries, err = client.Cart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "p-wb", entries[0].ProductID())
}

func TestClient_DuplicateAdd(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Query(ctx, "u1", "add a toothpaste")
	require.NoError(t, err)

	resp, err := client.Query(ctx, "u1", "add a toothpaste")
	require.NoError(t, err)

	matches := resp.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, query.StatusAlreadyInCart, matches[0].Status())

	entries, err := client.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClient_UnknownIntent(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Query(context.Background(), "u1", "what is the weather today")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Note())
	assert.Empty(t, resp.Matches())
}

func TestClient_CartsAreIsolated(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.Query(ctx, "u1", "add a toothpaste")
	require.NoError(t, err)

	entries, err := client.Cart(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClient_CatalogSize(t *testing.T) {
	client := newTestClient(t)
	assert.Equal(t, 3, client.CatalogSize())
}

func TestClient_Close(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close(), "Close is idempotent")

	_, err := client.Query(context.Background(), "u1", "add a toothpaste")
	assert.ErrorIs(t, err, intentcart.ErrClientClosed)

	_, err = client.Cart(context.Background(), "u1")
	assert.ErrorIs(t, err, intentcart.ErrClientClosed)
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := intentcart.New(ctx,
		intentcart.WithEmbedder(keywordEmbedder{}),
		intentcart.WithTextGenerator(&scriptedGenerator{}),
	)
	assert.ErrorIs(t, err, intentcart.ErrNoCatalog)

	_, err = intentcart.New(ctx,
		intentcart.WithProducts(testCatalog()),
		intentcart.WithTextGenerator(&scriptedGenerator{}),
	)
	assert.ErrorIs(t, err, intentcart.ErrNoEmbedder)

	_, err = intentcart.New(ctx,
		intentcart.WithProducts(testCatalog()),
		intentcart.WithEmbedder(keywordEmbedder{}),
	)
	assert.ErrorIs(t, err, intentcart.ErrNoTextGenerator)
}
