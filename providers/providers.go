// Package providers builds completion providers from a ProviderConfig.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/botirk38/noteinsights/providers/anthropic"
	"github.com/botirk38/noteinsights/providers/gemini"
	"github.com/botirk38/noteinsights/providers/openai"
	"github.com/botirk38/noteinsights/types"
)

var ErrUnsupportedProvider = errors.New("unsupported provider type")

// New creates the provider selected by config.Type.
func New(ctx context.Context, config types.ProviderConfig) (types.Provider, error) {
	switch config.Type {
	case types.ProviderAnthropic:
		return NewAnthropicProvider(anthropic.AnthropicConfig{
			APIKey:  config.APIKey,
			BaseURL: config.BaseURL,
			Model:   config.Model,
		})
	case types.ProviderOpenAI:
		return NewOpenAIProvider(openai.OpenAIConfig{
			APIKey:  config.APIKey,
			BaseURL: config.BaseURL,
			Model:   config.Model,
		})
	case types.ProviderGemini:
		return NewGeminiProvider(ctx, gemini.GeminiConfig{
			APIKey:  config.APIKey,
			BaseURL: config.BaseURL,
			Model:   config.Model,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, config.Type)
	}
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config anthropic.AnthropicConfig) (types.Provider, error) {
	p, err := anthropic.NewAnthropicProvider(config)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config openai.OpenAIConfig) (types.Provider, error) {
	p, err := openai.NewOpenAIProvider(config)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, config gemini.GeminiConfig) (types.Provider, error) {
	p, err := gemini.NewGeminiProvider(ctx, config)
	if err != nil {
		return nil, err
	}
	return p, nil
}
