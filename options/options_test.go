package options

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/botirk38/noteinsights/backends"
	"github.com/botirk38/noteinsights/collector"
	"github.com/botirk38/noteinsights/models"
	"github.com/botirk38/noteinsights/tokenizer"
	"github.com/botirk38/noteinsights/types"
)

// Mock provider for testing
type mockProvider struct{}

func (m *mockProvider) Complete(ctx context.Context, req types.CompletionRequest) (*types.Completion, error) {
	return &types.Completion{Text: "ok"}, nil
}

func (m *mockProvider) Name() string { return "mock/model" }
func (m *mockProvider) Close()       {}

func TestConfigCreation(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		cfg := NewConfig()
		if cfg.Estimator == nil {
			t.Error("Expected default estimator to be set")
		}
		if cfg.Logger == nil {
			t.Error("Expected default logger to be set")
		}
		if cfg.Provider != nil {
			t.Error("Expected provider to be nil initially")
		}
		if cfg.Vault != nil {
			t.Error("Expected vault to be nil initially")
		}
	})

	t.Run("Validation", func(t *testing.T) {
		cfg := NewConfig()

		// Should fail without provider and vault
		if err := cfg.Validate(); err == nil {
			t.Error("Expected validation error for missing provider and vault")
		}

		if err := cfg.Apply(WithCustomProvider(&mockProvider{}, types.ProviderAnthropic, "")); err != nil {
			t.Fatalf("Failed to apply provider option: %v", err)
		}
		if err := cfg.Validate(); err == nil {
			t.Error("Expected validation error for missing vault")
		}

		if err := cfg.Apply(WithDirVault(t.TempDir())); err != nil {
			t.Fatalf("Failed to apply vault option: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Expected validation to pass, got: %v", err)
		}
	})
}

func TestProviderOptions(t *testing.T) {
	t.Run("CustomProvider", func(t *testing.T) {
		cfg := NewConfig()
		mockProv := &mockProvider{}

		if err := cfg.Apply(WithCustomProvider(mockProv, types.ProviderOpenAI, "gpt-4o-mini")); err != nil {
			t.Fatalf("Failed to set custom provider: %v", err)
		}
		if cfg.Provider != mockProv {
			t.Error("Expected custom provider to be set")
		}
		if cfg.Model.DisplayName != "GPT-4o mini" {
			t.Errorf("Expected model limits of gpt-4o-mini, got %+v", cfg.Model)
		}
	})

	t.Run("NilProvider", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithCustomProvider(nil, types.ProviderOpenAI, "")); err == nil {
			t.Error("Expected error for nil provider")
		}
	})

	missingKey := []struct {
		name   string
		envVar string
		opt    Option
	}{
		{"OpenAIProvider", "OPENAI_API_KEY", WithOpenAIProvider("")},
		{"AnthropicProvider", "ANTHROPIC_API_KEY", WithAnthropicProvider("")},
		{"GeminiProvider", "GEMINI_API_KEY", WithGeminiProvider("")},
	}
	for _, tt := range missingKey {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, "")
			cfg := NewConfig()
			if err := cfg.Apply(tt.opt); err == nil {
				t.Error("Expected error for empty API key")
			}
		})
	}

	t.Run("ProviderConfigResolvesDefaultModel", func(t *testing.T) {
		cfg := NewConfig()
		err := cfg.Apply(WithProviderConfig(types.ProviderConfig{Type: types.ProviderAnthropic, APIKey: "test-key"}))
		if err != nil {
			t.Fatalf("Failed to set provider: %v", err)
		}
		if cfg.Provider.Name() != "anthropic/"+models.DefaultModel[types.ProviderAnthropic] {
			t.Errorf("Unexpected provider name %q", cfg.Provider.Name())
		}
		if cfg.Model.MaxTokens != 8192 {
			t.Errorf("Expected 8192 max tokens, got %d", cfg.Model.MaxTokens)
		}
	})

	t.Run("UnsupportedProvider", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithProviderConfig(types.ProviderConfig{Type: "mistral", APIKey: "k"})); err == nil {
			t.Error("Expected error for unsupported provider")
		}
	})

	t.Run("ModelConfig", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithModelConfig(models.ModelConfig{MaxTokens: 0})); err == nil {
			t.Error("Expected error for zero max tokens")
		}
		if err := cfg.Apply(WithModelConfig(models.ModelConfig{MaxTokens: 100, ContextWindow: 1000})); err != nil {
			t.Fatal(err)
		}
		if cfg.Model.ContextWindow != 1000 {
			t.Errorf("Expected overridden context window, got %d", cfg.Model.ContextWindow)
		}
	})
}

func TestVaultOptions(t *testing.T) {
	t.Run("Vault", func(t *testing.T) {
		cfg := NewConfig()
		vault := collector.NewFSVault(fstest.MapFS{"a.md": {Data: []byte("a")}})
		if err := cfg.Apply(WithVault(vault)); err != nil {
			t.Fatal(err)
		}
		if cfg.Vault != vault {
			t.Error("Expected vault to be set")
		}
	})

	t.Run("NilVault", func(t *testing.T) {
		if err := NewConfig().Apply(WithVault(nil)); err == nil {
			t.Error("Expected error for nil vault")
		}
	})

	t.Run("EmptyRoot", func(t *testing.T) {
		if err := NewConfig().Apply(WithDirVault("")); err == nil {
			t.Error("Expected error for empty root")
		}
	})
}

func TestEstimatorOptions(t *testing.T) {
	t.Run("CustomEstimator", func(t *testing.T) {
		cfg := NewConfig()
		est := tokenizer.EstimatorFunc(func(s string) int { return len(s) })
		if err := cfg.Apply(WithEstimator(est)); err != nil {
			t.Fatal(err)
		}
		if cfg.Estimator.Estimate("abcd") != 4 {
			t.Error("Expected custom estimator to be used")
		}
	})

	t.Run("NilEstimator", func(t *testing.T) {
		if err := NewConfig().Apply(WithEstimator(nil)); err == nil {
			t.Error("Expected error for nil estimator")
		}
	})

	t.Run("Tiktoken", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithTiktokenEstimator()); err != nil {
			t.Fatal(err)
		}
		if _, ok := cfg.Estimator.(*tokenizer.TiktokenEstimator); !ok {
			t.Errorf("Expected tiktoken estimator, got %T", cfg.Estimator)
		}
	})
}

func TestCacheOptions(t *testing.T) {
	t.Run("LRUCache", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithLRUCache(100, 0)); err != nil {
			t.Fatalf("Failed to set LRU cache: %v", err)
		}
		if cfg.Cache == nil {
			t.Error("Expected cache to be set")
		}
	})

	t.Run("InvalidLRUCache", func(t *testing.T) {
		if err := NewConfig().Apply(WithLRUCache(-1, 0)); err == nil {
			t.Error("Expected error for negative capacity")
		}
	})

	t.Run("CacheByType", func(t *testing.T) {
		cfg := NewConfig()
		if err := cfg.Apply(WithCache(types.BackendLRU, types.BackendConfig{Capacity: 8})); err != nil {
			t.Fatalf("Failed to set cache: %v", err)
		}
		if cfg.Cache == nil {
			t.Error("Expected cache to be set")
		}
	})

	t.Run("UnsupportedCache", func(t *testing.T) {
		err := NewConfig().Apply(WithCache("memcached", types.BackendConfig{}))
		if !errors.Is(err, backends.ErrUnsupportedBackend) {
			t.Errorf("Expected ErrUnsupportedBackend, got %v", err)
		}
	})

	t.Run("NilCache", func(t *testing.T) {
		if err := NewConfig().Apply(WithCustomCache(nil)); err == nil {
			t.Error("Expected error for nil cache")
		}
	})
}

func TestLoggingOptions(t *testing.T) {
	cfg := NewConfig()
	logger := slog.New(slog.DiscardHandler)
	if err := cfg.Apply(WithLogger(logger)); err != nil {
		t.Fatal(err)
	}
	if cfg.Logger != logger {
		t.Error("Expected logger to be set")
	}
	if err := cfg.Apply(WithLogger(nil)); err == nil {
		t.Error("Expected error for nil logger")
	}

	called := false
	if err := cfg.Apply(WithEventHandler(func(types.Event) { called = true })); err != nil {
		t.Fatal(err)
	}
	cfg.OnEvent(types.Event{})
	if !called {
		t.Error("Expected event handler to be set")
	}
}
