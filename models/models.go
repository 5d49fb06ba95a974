// Package models holds the static per-model limits and prices.
package models

import (
	"github.com/botirk38/noteinsights/types"
)

// ModelConfig describes the limits and prices of one model.
type ModelConfig struct {
	Provider        types.ProviderType
	DisplayName     string
	MaxTokens       int     // output tokens requested per call
	ContextWindow   int     // input plus output tokens
	InputCostPer1K  float64 // USD
	OutputCostPer1K float64 // USD
}

// Default output token limits per provider, used for unknown models.
var defaultMaxTokens = map[types.ProviderType]int{
	types.ProviderAnthropic: 8192,
	types.ProviderOpenAI:    4096,
	types.ProviderGemini:    8192,
}

// Default context windows per provider, used for unknown models.
var defaultContextWindow = map[types.ProviderType]int{
	types.ProviderAnthropic: 200000,
	types.ProviderOpenAI:    128000,
	types.ProviderGemini:    1048576,
}

// DefaultModel per provider.
var DefaultModel = map[types.ProviderType]string{
	types.ProviderAnthropic: "claude-3-5-sonnet-latest",
	types.ProviderOpenAI:    "gpt-4o",
	types.ProviderGemini:    "gemini-2.0-flash",
}

var table = map[string]ModelConfig{
	"claude-3-5-sonnet-latest": {
		Provider: types.ProviderAnthropic, DisplayName: "Claude 3.5 Sonnet",
		MaxTokens: 8192, ContextWindow: 200000, InputCostPer1K: 0.003, OutputCostPer1K: 0.015,
	},
	"claude-3-5-haiku-latest": {
		Provider: types.ProviderAnthropic, DisplayName: "Claude 3.5 Haiku",
		MaxTokens: 8192, ContextWindow: 200000, InputCostPer1K: 0.0008, OutputCostPer1K: 0.004,
	},
	"claude-3-opus-latest": {
		Provider: types.ProviderAnthropic, DisplayName: "Claude 3 Opus",
		MaxTokens: 4096, ContextWindow: 200000, InputCostPer1K: 0.015, OutputCostPer1K: 0.075,
	},
	"gpt-4o": {
		Provider: types.ProviderOpenAI, DisplayName: "GPT-4o",
		MaxTokens: 4096, ContextWindow: 128000, InputCostPer1K: 0.0025, OutputCostPer1K: 0.01,
	},
	"gpt-4o-mini": {
		Provider: types.ProviderOpenAI, DisplayName: "GPT-4o mini",
		MaxTokens: 4096, ContextWindow: 128000, InputCostPer1K: 0.00015, OutputCostPer1K: 0.0006,
	},
	"gpt-4-turbo": {
		Provider: types.ProviderOpenAI, DisplayName: "GPT-4 Turbo",
		MaxTokens: 4096, ContextWindow: 128000, InputCostPer1K: 0.01, OutputCostPer1K: 0.03,
	},
	"gemini-2.0-flash": {
		Provider: types.ProviderGemini, DisplayName: "Gemini 2.0 Flash",
		MaxTokens: 8192, ContextWindow: 1048576, InputCostPer1K: 0.0001, OutputCostPer1K: 0.0004,
	},
	"gemini-1.5-pro": {
		Provider: types.ProviderGemini, DisplayName: "Gemini 1.5 Pro",
		MaxTokens: 8192, ContextWindow: 2097152, InputCostPer1K: 0.00125, OutputCostPer1K: 0.005,
	},
}

// Lookup returns the config of a model. Unknown models get the provider's
// default limits, no price, and found=false.
func Lookup(provider types.ProviderType, model string) (ModelConfig, bool) {
	if cfg, ok := table[model]; ok && cfg.Provider == provider {
		return cfg, true
	}
	return ModelConfig{
		Provider:      provider,
		DisplayName:   model,
		MaxTokens:     DefaultMaxTokens(provider),
		ContextWindow: defaultContextWindow[provider],
	}, false
}

// DefaultMaxTokens returns the default output limit of a provider.
func DefaultMaxTokens(provider types.ProviderType) int {
	if n, ok := defaultMaxTokens[provider]; ok {
		return n
	}
	return 4096
}

// Cost estimates the USD price of the given usage.
func (m ModelConfig) Cost(usage types.Usage) float64 {
	return float64(usage.InputTokens)/1000*m.InputCostPer1K +
		float64(usage.OutputTokens)/1000*m.OutputCostPer1K
}

// All returns the known models of a provider. An empty provider returns every model.
func All(provider types.ProviderType) map[string]ModelConfig {
	out := make(map[string]ModelConfig)
	for name, cfg := range table {
		if provider == "" || cfg.Provider == provider {
			out[name] = cfg
		}
	}
	return out
}
