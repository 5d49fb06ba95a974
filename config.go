package noteinsights

import (
	"fmt"

	"github.com/botirk38/noteinsights/chunker"
	"github.com/botirk38/noteinsights/executor"
	"github.com/botirk38/noteinsights/types"
)

// DefaultRunConfig returns the settings used when the caller has no preference.
func DefaultRunConfig() types.RunConfig {
	return types.RunConfig{
		MaxTokensPerRequest: chunker.DefaultBudgetTokens,
		RetryAttempts:       executor.DefaultRetryAttempts,
		InsertPosition:      types.InsertBottom,
		Concurrency:         1,
		RequestTimeout:      executor.DefaultRequestTimeout,
		Backoff:             executor.DefaultBackoff(),
	}
}

// resolve fills unset fields with defaults and validates the result. The
// caller's value is not modified. RetryAttempts is taken as given, so a zero
// value means no retries.
func resolve(cfg types.RunConfig) (types.RunConfig, error) {
	def := DefaultRunConfig()
	if cfg.MaxTokensPerRequest == 0 {
		cfg.MaxTokensPerRequest = def.MaxTokensPerRequest
	}
	if cfg.InsertPosition == "" {
		cfg.InsertPosition = def.InsertPosition
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.Backoff == (types.Backoff{}) {
		cfg.Backoff = def.Backoff
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	switch {
	case cfg.MaxTokensPerRequest < 0:
		return cfg, fmt.Errorf("max tokens per request must be positive, got %d", cfg.MaxTokensPerRequest)
	case cfg.RetryAttempts < 0:
		return cfg, fmt.Errorf("retry attempts must be non-negative, got %d", cfg.RetryAttempts)
	case cfg.RequestTimeout < 0:
		return cfg, fmt.Errorf("request timeout must be non-negative, got %s", cfg.RequestTimeout)
	case !cfg.InsertPosition.Valid():
		return cfg, fmt.Errorf("unknown insert position %q", cfg.InsertPosition)
	case cfg.TestMode.Enabled && (cfg.TestMode.MaxFiles < 0 || cfg.TestMode.MaxTokens < 0):
		return cfg, fmt.Errorf("test mode limits must be non-negative")
	}
	return cfg, nil
}
