package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentcart/intentcart/domain/query"
	"github.com/intentcart/intentcart/infrastructure/provider"
)

// fakeGenerator is a TextGenerator test double that records the last
// request and replies with a canned response.
type fakeGenerator struct {
	response string
	err      error
	lastReq  provider.ChatCompletionRequest
}

func (f *fakeGenerator) ChatCompletion(_ context.Context, req provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return provider.ChatCompletionResponse{}, f.err
	}
	return provider.NewChatCompletionResponse(f.response, "stop", provider.NewUsage(10, 5, 15)), nil
}

var _ provider.TextGenerator = (*fakeGenerator)(nil)

func TestExtractor_Extract(t *testing.T) {
	gen := &fakeGenerator{
		response: "Intent: {add the products}\nProducts: [\"milk\", \"brown bread\"]",
	}
	extractor := New(gen, nil)

	extraction, err := extractor.Extract(context.Background(), "add milk and brown bread")
	require.NoError(t, err)

	assert.Equal(t, query.IntentAdd, extraction.Intent())
	assert.Equal(t, []query.Mention{"milk", "brown bread"}, extraction.Mentions())
	assert.False(t, extraction.Malformed())
}

func TestExtractor_PromptContainsQuery(t *testing.T) {
	gen := &fakeGenerator{response: "Intent: {show the products}\nProducts: []"}
	extractor := New(gen, nil)

	_, err := extractor.Extract(context.Background(), "what is in my cart")
	require.NoError(t, err)

	messages := gen.lastReq.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Role())
	assert.Contains(t, messages[0].Content(), `"what is in my cart"`)
	assert.Contains(t, messages[0].Content(), "add the products")
	assert.True(t, strings.Contains(messages[0].Content(), "Respond strictly"))
	assert.InDelta(t, extractionTemperature, gen.lastReq.Temperature(), 0.001)
}

func TestExtractor_MalformedResponse(t *testing.T) {
	gen := &fakeGenerator{response: "Sure! I'd be happy to help with that."}
	extractor := New(gen, nil)

	extraction, err := extractor.Extract(context.Background(), "add milk")
	require.NoError(t, err)

	assert.True(t, extraction.Malformed())
	assert.Equal(t, query.IntentUnknown, extraction.Intent())
}

func TestExtractor_GeneratorError(t *testing.T) {
	cause := errors.New("rate limited")
	extractor := New(&fakeGenerator{err: cause}, nil)

	_, err := extractor.Extract(context.Background(), "add milk")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}
