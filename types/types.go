package types

import (
	"context"
	"time"
)

// ProviderType represents the type of completion provider
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGemini    ProviderType = "gemini"
)

// ProviderConfig selects the endpoint, credentials and model for a run.
// It is not modified once a run starts.
type ProviderConfig struct {
	Type   ProviderType `yaml:"type"`
	APIKey string       `yaml:"api_key,omitempty"`
	Model  string       `yaml:"model"`

	// BaseURL overrides the provider endpoint, mostly for proxies and tests
	BaseURL string `yaml:"base_url,omitempty"`
}

// Source is one note of the corpus: its vault path and its full text.
type Source struct {
	ID   string
	Text string
}

// CompletionRequest is the provider-independent shape of one model call.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completion is the provider-independent shape of one model response.
type Completion struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// Usage accumulates token consumption reported by a provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	Requests     int `json:"requests"`
}

// Add returns the sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		Requests:     u.Requests + other.Requests,
	}
}

// Total returns input plus output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// Provider defines the interface all completion backends must satisfy.
type Provider interface {
	// Complete sends one request. On failure the returned completion may still
	// be non-nil and carry the usage the provider reported for the attempt.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	// Name identifies the provider and model, e.g. "anthropic/claude-3-5-sonnet-latest".
	Name() string
	// Close frees any resources held by the provider.
	Close()
}

// ChunkResult is the output produced for one chunk.
type ChunkResult struct {
	Index int
	Text  string
	Usage Usage
}

// InsertPosition says where the final text goes in the target note
type InsertPosition string

const (
	InsertTop    InsertPosition = "top"
	InsertBottom InsertPosition = "bottom"
	InsertCursor InsertPosition = "cursor"
)

// Valid reports whether p is one of the known positions.
func (p InsertPosition) Valid() bool {
	switch p {
	case InsertTop, InsertBottom, InsertCursor:
		return true
	}
	return false
}

// TestMode caps the amount of work done by a run for cheap iteration.
type TestMode struct {
	Enabled   bool `yaml:"enabled"`
	MaxFiles  int  `yaml:"max_files"`
	MaxTokens int  `yaml:"max_tokens"`
}

// Prompts holds the three prompt templates used by a run.
type Prompts struct {
	System      string `yaml:"system"`
	User        string `yaml:"user"`
	Combination string `yaml:"combination"`
}

// Backoff configures the delay between retries of one request.
type Backoff struct {
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	Multiplier float64       `yaml:"multiplier"`
	Jitter     float64       `yaml:"jitter"`
}

// RunConfig is read once at the start of a run and never mutated during it.
type RunConfig struct {
	MaxTokensPerRequest int
	RetryAttempts       int
	TestMode            TestMode
	ExcludeFolders      []string
	IncludePatterns     []string
	Prompts             Prompts
	InsertPosition      InsertPosition

	// Concurrency is the number of chunks in flight at once. Values below 2
	// mean strictly sequential execution.
	Concurrency    int
	RequestTimeout time.Duration
	Backoff        Backoff
}
