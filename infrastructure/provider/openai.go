package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/intentcart/intentcart/internal/config"
)

// OpenAIProvider implements text generation and embedding against any
// OpenAI-compatible API. Chat and embedding may point at different
// endpoints and models.
type OpenAIProvider struct {
	chatClient        *openai.Client
	embeddingClient   *openai.Client
	chatModel         string
	embeddingModel    string
	maxRetries        int
	initialDelay      time.Duration
	backoffFactor     float64
	maxInputChars     int
	supportsText      bool
	supportsEmbedding bool
}

// NewOpenAIProvider creates a provider with a single API key and default
// models for both capabilities.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(apiKey)
	return &OpenAIProvider{
		chatClient:        client,
		embeddingClient:   client,
		chatModel:         openai.GPT4oMini,
		embeddingModel:    string(openai.SmallEmbedding3),
		maxRetries:        config.DefaultEndpointMaxRetries,
		initialDelay:      config.DefaultEndpointInitialDelay,
		backoffFactor:     config.DefaultEndpointBackoffFactor,
		maxInputChars:     config.DefaultEndpointMaxInputChars,
		supportsText:      true,
		supportsEmbedding: true,
	}
}

// NewOpenAIProviderFromEndpoints creates a provider from separate chat and
// embedding endpoint configurations. Either endpoint may be nil, in which
// case the corresponding capability is disabled.
func NewOpenAIProviderFromEndpoints(chat, embedding *config.Endpoint) *OpenAIProvider {
	p := &OpenAIProvider{
		maxRetries:    config.DefaultEndpointMaxRetries,
		initialDelay:  config.DefaultEndpointInitialDelay,
		backoffFactor: config.DefaultEndpointBackoffFactor,
		maxInputChars: config.DefaultEndpointMaxInputChars,
	}

	if chat != nil && chat.IsConfigured() {
		p.chatClient = newClientFromEndpoint(*chat)
		p.chatModel = chat.Model()
		p.supportsText = true
		p.applyRetrySettings(*chat)
	}
	if embedding != nil && embedding.IsConfigured() {
		p.embeddingClient = newClientFromEndpoint(*embedding)
		p.embeddingModel = embedding.Model()
		p.supportsEmbedding = true
		p.applyRetrySettings(*embedding)
		if embedding.MaxInputChars() > 0 {
			p.maxInputChars = embedding.MaxInputChars()
		}
	}

	return p
}

func newClientFromEndpoint(endpoint config.Endpoint) *openai.Client {
	cfg := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		cfg.BaseURL = endpoint.BaseURL()
	}
	if endpoint.Timeout() > 0 {
		cfg.HTTPClient = &http.Client{Timeout: endpoint.Timeout()}
	}
	return openai.NewClientWithConfig(cfg)
}

func (p *OpenAIProvider) applyRetrySettings(endpoint config.Endpoint) {
	if endpoint.MaxRetries() > 0 {
		p.maxRetries = endpoint.MaxRetries()
	}
	if endpoint.InitialDelay() > 0 {
		p.initialDelay = endpoint.InitialDelay()
	}
	if endpoint.BackoffFactor() > 0 {
		p.backoffFactor = endpoint.BackoffFactor()
	}
}

// SupportsTextGeneration returns true if a chat endpoint is configured.
func (p *OpenAIProvider) SupportsTextGeneration() bool {
	return p.supportsText
}

// SupportsEmbedding returns true if an embedding endpoint is configured.
func (p *OpenAIProvider) SupportsEmbedding() bool {
	return p.supportsEmbedding
}

// Close is a no-op for the OpenAI provider.
func (p *OpenAIProvider) Close() error {
	return nil
}

// ChatCompletion generates a chat completion.
func (p *OpenAIProvider) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	if !p.supportsText {
		return ChatCompletionResponse{}, ErrUnsupportedOperation
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages()))
	for i, m := range req.Messages() {
		messages[i] = openai.ChatCompletionMessage{
			Role:    m.Role(),
			Content: m.Content(),
		}
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:    p.chatModel,
		Messages: messages,
	}
	if req.MaxTokens() > 0 {
		openaiReq.MaxTokens = req.MaxTokens()
	}
	if req.Temperature() > 0 {
		openaiReq.Temperature = float32(req.Temperature())
	}

	var resp openai.ChatCompletionResponse
	err := p.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.chatClient.CreateChatCompletion(ctx, openaiReq)
		return callErr
	})
	if err != nil {
		return ChatCompletionResponse{}, p.wrapError("chat_completion", err)
	}

	if len(resp.Choices) == 0 {
		return ChatCompletionResponse{}, NewProviderError(
			"chat_completion", 0, "no choices in response", nil,
		)
	}

	usage := NewUsage(
		resp.Usage.PromptTokens,
		resp.Usage.CompletionTokens,
		resp.Usage.TotalTokens,
	)

	return NewChatCompletionResponse(
		resp.Choices[0].Message.Content,
		string(resp.Choices[0].FinishReason),
		usage,
	), nil
}

// Embed generates embeddings for the given texts. Every text must be
// non-empty and within the configured length limit.
func (p *OpenAIProvider) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	if !p.supportsEmbedding {
		return EmbeddingResponse{}, ErrUnsupportedOperation
	}

	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0, 0)), nil
	}

	for i, text := range texts {
		if text == "" {
			return EmbeddingResponse{}, fmt.Errorf("text %d: %w", i, ErrEmptyText)
		}
		if p.maxInputChars > 0 && len(text) > p.maxInputChars {
			return EmbeddingResponse{}, fmt.Errorf("text %d is %d chars: %w", i, len(text), ErrTextTooLong)
		}
	}

	openaiReq := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.embeddingModel),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	err := p.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.embeddingClient.CreateEmbeddings(ctx, openaiReq)
		return callErr
	})
	if err != nil {
		return EmbeddingResponse{}, p.wrapError("embedding", err)
	}

	if len(resp.Data) != len(texts) {
		return EmbeddingResponse{}, NewProviderError(
			"embedding", 0,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
			nil,
		)
	}

	embeddings := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			embeddings[i][j] = float64(v)
		}
	}

	usage := NewUsage(resp.Usage.PromptTokens, 0, resp.Usage.TotalTokens)

	return NewEmbeddingResponse(embeddings, usage), nil
}

// withRetry executes the function with exponential backoff retry.
func (p *OpenAIProvider) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// isRetryable determines if an error should be retried.
func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// Network errors are retryable
		return true
	}

	return false
}

// wrapError wraps an OpenAI error into a ProviderError.
func (p *OpenAIProvider) wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(operation, 0, err.Error(), err)
}

// Ensure OpenAIProvider implements the interfaces.
var (
	_ Provider      = (*OpenAIProvider)(nil)
	_ TextGenerator = (*OpenAIProvider)(nil)
	_ Embedder      = (*OpenAIProvider)(nil)
)
