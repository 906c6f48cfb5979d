package ai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// Ensure OpenAILLM implements LLMService
var _ driven.LLMService = (*OpenAILLM)(nil)

// OpenAILLM implements LLMService with chat completions against OpenAI or
// any compatible endpoint (Ollama). Calls are throttled by a token bucket.
type OpenAILLM struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	retry   RetryConfig
}

// NewOpenAILLM creates an LLM service for OpenAI
func NewOpenAILLM(apiKey, model, baseURL string, limiter *rate.Limiter) (*OpenAILLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return newLLM(newClient(apiKey, baseURL), model, limiter), nil
}

// NewOllamaLLM creates an LLM service for an Ollama server
func NewOllamaLLM(baseURL, model string, limiter *rate.Limiter) (*OpenAILLM, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = "llama3.1"
	}
	return newLLM(newClient(ollamaPlaceholderKey, baseURL), model, limiter), nil
}

func newLLM(client *openai.Client, model string, limiter *rate.Limiter) *OpenAILLM {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &OpenAILLM{
		client:  client,
		model:   model,
		limiter: limiter,
		retry:   DefaultRetryConfig(),
	}
}

// Complete runs a chat completion and returns the first choice's content
func (l *OpenAILLM) Complete(ctx context.Context, messages []driven.LLMMessage, opts driven.CompletionOptions) (string, error) {
	req := l.buildRequest(messages, opts)

	resp, err := retryWithBackoff(ctx, l.retry, func() (openai.ChatCompletionResponse, error) {
		if err := l.limiter.Wait(ctx); err != nil {
			return openai.ChatCompletionResponse{}, err
		}
		return l.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from %s", l.model)
	}
	return resp.Choices[0].Message.Content, nil
}

func (l *OpenAILLM) buildRequest(messages []driven.LLMMessage, opts driven.CompletionOptions) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       l.model,
		Messages:    msgs,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

// Model returns the model name
func (l *OpenAILLM) Model() string {
	return l.model
}

// Ping lists models to verify the endpoint and credentials
func (l *OpenAILLM) Ping(ctx context.Context) error {
	_, err := l.client.ListModels(ctx)
	return err
}

// Close is a no-op; the HTTP client has no resources to release
func (l *OpenAILLM) Close() error {
	return nil
}
