package tokenizer

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// Counter counts the input tokens of a request remotely.
type Counter interface {
	CountTokens(ctx context.Context, system, prompt string) (int, error)
}

// AnthropicCounter counts tokens for Anthropic messages
type AnthropicCounter struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicCounter creates a new AnthropicCounter with the provided client and model
func NewAnthropicCounter(client *anthropic.Client, model string) *AnthropicCounter {
	return &AnthropicCounter{
		client: client,
		model:  model,
	}
}

// CountTokens counts tokens using Anthropic's token counting endpoint.
// This makes an API call.
func (t *AnthropicCounter) CountTokens(ctx context.Context, system, prompt string) (int, error) {
	if system == "" && prompt == "" {
		return 0, nil
	}

	if t.client == nil {
		return 0, fmt.Errorf("anthropic client is required for token counting")
	}

	params := anthropic.MessageCountTokensParams{
		Model: anthropic.Model(t.model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = anthropic.MessageCountTokensParamsSystemUnion{
			OfTextBlockArray: []anthropic.TextBlockParam{{Text: system}},
		}
	}

	result, err := t.client.Messages.CountTokens(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("anthropic token counting failed: %w", err)
	}

	return int(result.InputTokens), nil
}
