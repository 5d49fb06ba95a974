package tokenizer

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiCounter counts tokens for Gemini contents
type GeminiCounter struct {
	client *genai.Client
	model  string
}

// NewGeminiCounter creates a new GeminiCounter with the provided client and model
func NewGeminiCounter(client *genai.Client, model string) *GeminiCounter {
	return &GeminiCounter{
		client: client,
		model:  model,
	}
}

// CountTokens counts tokens using Gemini's token counting endpoint.
// The system prompt is counted as leading user content.
func (t *GeminiCounter) CountTokens(ctx context.Context, system, prompt string) (int, error) {
	if system == "" && prompt == "" {
		return 0, nil
	}

	if t.client == nil {
		return 0, fmt.Errorf("gemini client is required for token counting")
	}

	if t.model == "" {
		return 0, fmt.Errorf("gemini model is required for token counting")
	}

	var contents []*genai.Content
	if system != "" {
		contents = append(contents, genai.NewContentFromText(system, genai.RoleUser))
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	result, err := t.client.Models.CountTokens(ctx, t.model, contents, nil)
	if err != nil {
		return 0, fmt.Errorf("gemini token counting failed: %w", err)
	}

	return int(result.TotalTokens), nil
}
