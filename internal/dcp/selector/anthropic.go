package selector

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicCapability checks endpoint availability against the real
// Anthropic API: a single minimal request (max one output token)
// instead of a full chat completion, since the selector only needs to
// know the model is reachable and authorized.
type AnthropicCapability struct {
	client *anthropic.Client
}

// NewAnthropicCapability wraps an API key into a Capability checker
// scoped to the Anthropic provider.
func NewAnthropicCapability(apiKey string) *AnthropicCapability {
	return &AnthropicCapability{client: anthropic.NewClient(apiKey)}
}

func (c *AnthropicCapability) CheckCapability(ctx context.Context, e Endpoint) error {
	_, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(e.ModelID),
		MaxTokens: 1,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent("ping")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("anthropic capability check for %s: %w", e, err)
	}
	return nil
}
