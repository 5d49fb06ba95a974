// Package options provides functional options for configuring a Generator.
package options

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/botirk38/noteinsights/backends"
	"github.com/botirk38/noteinsights/collector"
	"github.com/botirk38/noteinsights/models"
	"github.com/botirk38/noteinsights/providers"
	"github.com/botirk38/noteinsights/tokenizer"
	"github.com/botirk38/noteinsights/types"
)

// Option represents a configuration option for a Generator
type Option func(*Config) error

// Config holds the configuration for building a Generator
type Config struct {
	Provider types.Provider

	// Model supplies output limits, context window and prices for Provider.
	Model models.ModelConfig

	Vault     collector.Vault
	Estimator tokenizer.Estimator
	Cache     types.CompletionCache
	Logger    *slog.Logger
	OnEvent   types.EventHandler
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Estimator: tokenizer.NewCharEstimator(),
		Logger:    slog.New(slog.DiscardHandler),
	}
}

// Apply applies all the given options to the config
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Provider == nil {
		return errors.New("provider is required - use WithAnthropicProvider, WithOpenAIProvider, etc.")
	}
	if c.Vault == nil {
		return errors.New("vault is required - use WithDirVault or WithVault")
	}
	if c.Estimator == nil {
		return errors.New("estimator cannot be nil")
	}
	return nil
}

// Close releases the provider and cache set by options.
func (c *Config) Close() {
	if c.Provider != nil {
		c.Provider.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}

// WithProviderConfig creates the provider described by config
func WithProviderConfig(config types.ProviderConfig) Option {
	return func(cfg *Config) error {
		if config.Model == "" {
			config.Model = models.DefaultModel[config.Type]
		}
		provider, err := providers.New(context.Background(), config)
		if err != nil {
			return err
		}
		cfg.Provider = provider
		cfg.Model, _ = models.Lookup(config.Type, config.Model)
		return nil
	}
}

// WithAnthropicProvider sets up the Anthropic messages API
func WithAnthropicProvider(apiKey string, model ...string) Option {
	return withProvider(types.ProviderAnthropic, apiKey, model)
}

// WithOpenAIProvider sets up the OpenAI chat completions API
func WithOpenAIProvider(apiKey string, model ...string) Option {
	return withProvider(types.ProviderOpenAI, apiKey, model)
}

// WithGeminiProvider sets up the Gemini API
func WithGeminiProvider(apiKey string, model ...string) Option {
	return withProvider(types.ProviderGemini, apiKey, model)
}

func withProvider(providerType types.ProviderType, apiKey string, model []string) Option {
	config := types.ProviderConfig{Type: providerType, APIKey: apiKey}
	if len(model) > 0 {
		config.Model = model[0]
	}
	return WithProviderConfig(config)
}

// WithCustomProvider allows using a pre-configured provider. Its limits are
// the defaults for providerType unless WithModelConfig overrides them.
func WithCustomProvider(provider types.Provider, providerType types.ProviderType, model string) Option {
	return func(cfg *Config) error {
		if provider == nil {
			return errors.New("provider cannot be nil")
		}
		cfg.Provider = provider
		cfg.Model, _ = models.Lookup(providerType, model)
		return nil
	}
}

// WithModelConfig overrides the model limits and prices
func WithModelConfig(model models.ModelConfig) Option {
	return func(cfg *Config) error {
		if model.MaxTokens <= 0 {
			return errors.New("model max tokens must be positive")
		}
		cfg.Model = model
		return nil
	}
}

// WithVault reads notes from a caller-supplied vault
func WithVault(vault collector.Vault) Option {
	return func(cfg *Config) error {
		if vault == nil {
			return errors.New("vault cannot be nil")
		}
		cfg.Vault = vault
		return nil
	}
}

// WithDirVault reads notes from the markdown files under root
func WithDirVault(root string) Option {
	return func(cfg *Config) error {
		if root == "" {
			return errors.New("vault root cannot be empty")
		}
		cfg.Vault = collector.NewDirVault(root)
		return nil
	}
}

// WithEstimator sets the token estimator used for planning
func WithEstimator(estimator tokenizer.Estimator) Option {
	return func(cfg *Config) error {
		if estimator == nil {
			return errors.New("estimator cannot be nil")
		}
		cfg.Estimator = estimator
		return nil
	}
}

// WithTiktokenEstimator plans with exact cl100k_base token counts
func WithTiktokenEstimator() Option {
	return func(cfg *Config) error {
		estimator, err := tokenizer.NewTiktokenEstimator()
		if err != nil {
			return err
		}
		cfg.Estimator = estimator
		return nil
	}
}

// WithCache caches completions in a backend of the given type
func WithCache(backendType types.BackendType, config types.BackendConfig) Option {
	return func(cfg *Config) error {
		cache, err := backends.NewBackend(context.Background(), backendType, config)
		if err != nil {
			return err
		}
		if cfg.Cache != nil {
			_ = cfg.Cache.Close()
		}
		cfg.Cache = cache
		return nil
	}
}

// WithLRUCache caches completions in memory
func WithLRUCache(capacity int, ttl time.Duration) Option {
	return WithCache(types.BackendLRU, types.BackendConfig{Capacity: capacity, TTL: ttl})
}

// WithRedisCache caches completions in Redis
func WithRedisCache(addr string, ttl time.Duration) Option {
	return WithCache(types.BackendRedis, types.BackendConfig{ConnectionString: addr, TTL: ttl})
}

// WithCustomCache allows using a pre-configured completion cache
func WithCustomCache(cache types.CompletionCache) Option {
	return func(cfg *Config) error {
		if cache == nil {
			return errors.New("cache cannot be nil")
		}
		cfg.Cache = cache
		return nil
	}
}

// WithLogger sets the logger for the Generator and everything it drives
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *Config) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.Logger = logger
		return nil
	}
}

// WithEventHandler subscribes fn to run events
func WithEventHandler(fn types.EventHandler) Option {
	return func(cfg *Config) error {
		cfg.OnEvent = fn
		return nil
	}
}
