package llm

import (
	"context"
	"fmt"
	"time"

	"aidesk/internal/config"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// ChatModel is the model used for classification, drafting and fact
// checking. Embeddings use EmbeddingModel.
const (
	ChatModel      = openai.GPT4oMini
	EmbeddingModel = openai.SmallEmbedding3
)

// Client wraps the OpenAI API behind a circuit breaker so a provider
// outage fails fast instead of stacking up blocked pipeline runs.
type Client struct {
	api     *openai.Client
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewClient creates an OpenAI-backed client from configuration
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	apiCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		apiCfg.BaseURL = cfg.OpenAIBaseURL
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openai",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		breaker: breaker,
		timeout: time.Duration(cfg.OpenAITimeout) * time.Second,
	}, nil
}

// Complete runs a single system+user chat completion and returns the raw
// assistant message text.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       ChatModel,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("completion returned no choices")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	return result.(string), nil
}

// CreateEmbedding embeds a single text
func (c *Client) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// CreateEmbeddings embeds a batch of texts, preserving input order
func (c *Client) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: EmbeddingModel,
			Input: texts,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("embedding response size mismatch: got %d, want %d", len(resp.Data), len(texts))
		}

		vectors := make([][]float32, len(resp.Data))
		for _, item := range resp.Data {
			vectors[item.Index] = item.Embedding
		}
		return vectors, nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	return result.([][]float32), nil
}
