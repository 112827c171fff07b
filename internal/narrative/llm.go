package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	openai "github.com/sashabaranov/go-openai"
)

// Completer is the text-generation service: a system and user message in,
// generated text out.
type Completer interface {
	Complete(ctx context.Context, model, system, user string) (string, error)
}

// ErrEmptyCompletion is returned when a model answers with no choices.
var ErrEmptyCompletion = errors.New("empty completion")

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	client      *openai.Client
	Temperature float32
	MaxTokens   int
}

// NewOpenAIClient creates a client for baseURL (empty means the OpenAI
// default) with optional proxy support.
func NewOpenAIClient(apiKey, baseURL, proxyURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	cfg.HTTPClient = &http.Client{Transport: transport}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		Temperature: 0.4,
		MaxTokens:   1500,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, model, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion %s: %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion %s: %w", model, ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
