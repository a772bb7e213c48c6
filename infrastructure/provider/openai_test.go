package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intentcart/intentcart/internal/config"
)

// fakeEmbeddingServer returns an httptest.Server that mimics the OpenAI
// embeddings endpoint. It returns deterministic 3-dimensional vectors and
// tracks how many requests it received via the counter.
func fakeEmbeddingServer(t *testing.T, counter *atomic.Int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)

		var body struct {
			Input interface{} `json:"input"`
			Model string      `json:"model"`
		}
		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		// Input can be a single string or []string.
		var texts []string
		switch v := body.Input.(type) {
		case string:
			texts = []string{v}
		case []interface{}:
			for _, item := range v {
				texts = append(texts, item.(string))
			}
		}

		data := make([]map[string]interface{}, len(texts))
		for i := range texts {
			data[i] = map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{0.1, 0.2, float64(i)},
			}
		}

		resp := map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage": map[string]int{
				"prompt_tokens": len(texts) * 4,
				"total_tokens":  len(texts) * 4,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

// fakeChatServer mimics the OpenAI chat completions endpoint, always
// replying with the given content.
func fakeChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]string{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{
				"prompt_tokens":     10,
				"completion_tokens": 5,
				"total_tokens":      15,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func embeddingEndpoint(baseURL string) config.Endpoint {
	return config.NewEndpointWithOptions(
		config.WithAPIKey("test-key"),
		config.WithModel("test-embedding-model"),
		config.WithBaseURL(baseURL),
		config.WithInitialDelay(time.Millisecond),
	)
}

func chatEndpoint(baseURL string) config.Endpoint {
	return config.NewEndpointWithOptions(
		config.WithAPIKey("test-key"),
		config.WithModel("test-chat-model"),
		config.WithBaseURL(baseURL),
		config.WithInitialDelay(time.Millisecond),
	)
}

func TestOpenAIProvider_EmbedEmpty(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	endpoint := embeddingEndpoint(srv.URL)
	p := NewOpenAIProviderFromEndpoints(nil, &endpoint)

	resp, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{}))
	require.NoError(t, err)
	require.Empty(t, resp.Embeddings())
	require.Equal(t, int64(0), counter.Load(), "no HTTP request for empty input")
}

func TestOpenAIProvider_EmbedBatch(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	endpoint := embeddingEndpoint(srv.URL)
	p := NewOpenAIProviderFromEndpoints(nil, &endpoint)

	resp, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"milk", "bread", "eggs"}))
	require.NoError(t, err)
	require.Len(t, resp.Embeddings(), 3)
	assert.Equal(t, int64(1), counter.Load(), "batch should be a single HTTP request")
	assert.Equal(t, []float64{0.1, 0.2, 2}, resp.Embeddings()[2])
	assert.Equal(t, 12, resp.Usage().TotalTokens())
}

func TestOpenAIProvider_EmbedValidation(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	endpoint := config.NewEndpointWithOptions(
		config.WithAPIKey("test-key"),
		config.WithModel("test-embedding-model"),
		config.WithBaseURL(srv.URL),
		config.WithMaxInputChars(10),
	)
	p := NewOpenAIProviderFromEndpoints(nil, &endpoint)

	_, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"milk", ""}))
	require.ErrorIs(t, err, ErrEmptyText)

	_, err = p.Embed(context.Background(), NewEmbeddingRequest([]string{"a very long product phrase"}))
	require.ErrorIs(t, err, ErrTextTooLong)

	assert.Equal(t, int64(0), counter.Load(), "invalid input should never reach the API")
}

func TestOpenAIProvider_EmbedRetriesOnServerError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
			return
		}
		resp := map[string]interface{}{
			"object": "list",
			"data": []map[string]interface{}{
				{"object": "embedding", "index": 0, "embedding": []float64{1, 0, 0}},
			},
			"usage": map[string]int{"prompt_tokens": 4, "total_tokens": 4},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	endpoint := embeddingEndpoint(srv.URL)
	p := NewOpenAIProviderFromEndpoints(nil, &endpoint)

	resp, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"milk"}))
	require.NoError(t, err)
	require.Len(t, resp.Embeddings(), 1)
	assert.Equal(t, int64(2), calls.Load())
}

func TestOpenAIProvider_ChatCompletion(t *testing.T) {
	srv := fakeChatServer(t, "Intent: {add the products}\nProducts: [\"milk\"]")
	defer srv.Close()

	endpoint := chatEndpoint(srv.URL)
	p := NewOpenAIProviderFromEndpoints(&endpoint, nil)

	resp, err := p.ChatCompletion(context.Background(), NewChatCompletionRequest([]Message{
		UserMessage("add milk to my cart"),
	}))
	require.NoError(t, err)
	assert.Contains(t, resp.Content(), "add the products")
	assert.Equal(t, "stop", resp.FinishReason())
	assert.Equal(t, 15, resp.Usage().TotalTokens())
}

func TestOpenAIProvider_UnsupportedOperations(t *testing.T) {
	srv := fakeChatServer(t, "irrelevant")
	defer srv.Close()

	chat := chatEndpoint(srv.URL)
	p := NewOpenAIProviderFromEndpoints(&chat, nil)

	assert.True(t, p.SupportsTextGeneration())
	assert.False(t, p.SupportsEmbedding())

	_, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"milk"}))
	require.ErrorIs(t, err, ErrUnsupportedOperation)

	embedding := embeddingEndpoint(srv.URL)
	p = NewOpenAIProviderFromEndpoints(nil, &embedding)

	_, err = p.ChatCompletion(context.Background(), NewChatCompletionRequest(nil))
	require.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestOpenAIProvider_Close(t *testing.T) {
	p := NewOpenAIProvider("test-api-key")
	require.NoError(t, p.Close())
}

func TestTextEmbedder(t *testing.T) {
	var counter atomic.Int64
	srv := fakeEmbeddingServer(t, &counter)
	defer srv.Close()

	endpoint := embeddingEndpoint(srv.URL)
	embedder := NewTextEmbedder(NewOpenAIProviderFromEndpoints(nil, &endpoint))

	vectors, err := embedder.Embed(context.Background(), []string{"milk", "bread"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{0.1, 0.2, 0}, vectors[0])

	vectors, err = embedder.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}
