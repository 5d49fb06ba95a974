// Package noteinsights turns a vault of markdown notes into one insights
// document. A run collects the eligible notes, plans them into
// token-bounded chunks, sends one completion request per chunk, merges the
// chunk outputs when there is more than one, and hands the final text to a
// sink.
package noteinsights

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/botirk38/noteinsights/backends"
	"github.com/botirk38/noteinsights/chunker"
	"github.com/botirk38/noteinsights/collector"
	"github.com/botirk38/noteinsights/models"
	"github.com/botirk38/noteinsights/options"
	"github.com/botirk38/noteinsights/prompt"
	"github.com/botirk38/noteinsights/sink"
	"github.com/botirk38/noteinsights/tokenizer"
	"github.com/botirk38/noteinsights/types"
)

// Generator runs the insights pipeline against one provider and vault.
// It holds no per-run state, so runs may overlap.
type Generator struct {
	provider  types.Provider
	model     models.ModelConfig
	vault     collector.Vault
	estimator tokenizer.Estimator
	logger    *slog.Logger
	onEvent   types.EventHandler
}

// FinalResult is the outcome of a successful run.
type FinalResult struct {
	Text string

	// Chunks is the number of chunk requests sent. Zero means the run had
	// nothing to do.
	Chunks int

	// Combined reports whether a combination request merged the chunks.
	Combined bool

	// Sources lists the note paths that were processed, in order.
	Sources []string

	// Usage covers every request of the run, failed attempts included.
	Usage types.Usage

	// Cost is the estimated price of Usage in USD.
	Cost float64
}

// Plan is the chunking a run would use, computed without any network call.
type Plan struct {
	Sources  []types.Source
	Chunks   []chunker.Chunk
	Budget   int
	Overhead int

	// Requests holds the rendered request of each chunk, by index. Each is
	// estimated within Budget.
	Requests []types.CompletionRequest
}

// New creates a Generator with functional options.
func New(opts ...options.Option) (*Generator, error) {
	cfg := options.NewConfig()

	if err := cfg.Apply(opts...); err != nil {
		cfg.Close()
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		cfg.Close()
		return nil, err
	}

	provider := cfg.Provider
	if cfg.Cache != nil {
		provider = backends.NewCachingProvider(provider, cfg.Cache, cfg.Logger)
	}

	model := cfg.Model
	if model.MaxTokens <= 0 {
		model.MaxTokens = models.DefaultMaxTokens(model.Provider)
	}

	return &Generator{
		provider:  provider,
		model:     model,
		vault:     cfg.Vault,
		estimator: cfg.Estimator,
		logger:    cfg.Logger,
		onEvent:   cfg.OnEvent,
	}, nil
}

// Close releases the provider and cache.
func (g *Generator) Close() {
	g.provider.Close()
}

// Model returns the limits and prices used for the provider's model.
func (g *Generator) Model() models.ModelConfig {
	return g.model
}

// Estimator returns the estimator chunks are planned with.
func (g *Generator) Estimator() tokenizer.Estimator {
	return g.estimator
}

// Plan collects and plans the notes selected by cfg without sending anything.
func (g *Generator) Plan(ctx context.Context, cfg types.RunConfig) (*Plan, error) {
	cfg, err := resolve(cfg)
	if err != nil {
		return nil, err
	}
	templates, err := prompt.Parse(cfg.Prompts)
	if err != nil {
		return nil, err
	}
	r := g.newRun(cfg, templates)
	r.quiet = true
	return r.prepare(ctx)
}

// Generate runs the pipeline up to the final text without inserting it.
func (g *Generator) Generate(ctx context.Context, cfg types.RunConfig) (*FinalResult, error) {
	return g.run(ctx, cfg, nil)
}

// Run runs the pipeline and inserts the final text through s at
// cfg.InsertPosition. Nothing is inserted when any step fails or ctx is
// cancelled first.
func (g *Generator) Run(ctx context.Context, cfg types.RunConfig, s sink.Sink) (*FinalResult, error) {
	if s == nil {
		return nil, errors.New("sink cannot be nil")
	}
	return g.run(ctx, cfg, s)
}

// GenerateResult holds the result of an async Generate operation.
type GenerateResult struct {
	Result *FinalResult
	Error  error
}

// GenerateAsync runs Generate in the background.
// Returns a channel that will receive the result when complete.
func (g *Generator) GenerateAsync(ctx context.Context, cfg types.RunConfig) <-chan GenerateResult {
	resultCh := make(chan GenerateResult, 1)
	go func() {
		defer close(resultCh)
		res, err := g.Generate(ctx, cfg)
		resultCh <- GenerateResult{Result: res, Error: err}
	}()
	return resultCh
}

func (g *Generator) run(ctx context.Context, cfg types.RunConfig, s sink.Sink) (*FinalResult, error) {
	cfg, err := resolve(cfg)
	if err != nil {
		return nil, err
	}
	templates, err := prompt.Parse(cfg.Prompts)
	if err != nil {
		return nil, err
	}

	r := g.newRun(cfg, templates)
	res, err := r.execute(ctx, s)
	if err != nil {
		r.fail(err)
		return nil, err
	}
	return res, nil
}
