package selector

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAICapability checks endpoint availability against any
// OpenAI-compatible API — OpenAI itself, or a Kimi/DeepSeek/GLM/etc.
// compatible endpoint reached via a custom baseURL.
type OpenAICapability struct {
	client *openai.Client
}

// NewOpenAICapability wraps an API key and optional base URL (empty
// for the default OpenAI endpoint) into a Capability checker.
func NewOpenAICapability(apiKey, baseURL string) *OpenAICapability {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICapability{client: openai.NewClientWithConfig(cfg)}
}

func (c *OpenAICapability) CheckCapability(ctx context.Context, e Endpoint) error {
	_, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     e.ModelID,
		MaxTokens: 1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
	})
	if err != nil {
		return fmt.Errorf("openai capability check for %s: %w", e, err)
	}
	return nil
}
