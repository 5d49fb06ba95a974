// Package combiner merges ordered chunk results into one document.
package combiner

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/botirk38/noteinsights/executor"
	"github.com/botirk38/noteinsights/prompt"
	"github.com/botirk38/noteinsights/tokenizer"
	"github.com/botirk38/noteinsights/types"
)

// Config bounds the combination request.
type Config struct {
	// ContextWindow is the model's input plus output limit.
	ContextWindow int

	// MaxTokens is the output budget requested for the merged document.
	MaxTokens int

	Estimator tokenizer.Estimator
}

// Combiner sends the merge request through an executor, so it inherits the
// executor's retry policy.
type Combiner struct {
	exec      *executor.Executor
	templates *prompt.Templates
	config    Config
}

// New creates a Combiner.
func New(exec *executor.Executor, templates *prompt.Templates, config Config) *Combiner {
	if config.Estimator == nil {
		config.Estimator = tokenizer.NewCharEstimator()
	}
	return &Combiner{exec: exec, templates: templates, config: config}
}

// Combine merges the results of chunks 0..total-1. Results may arrive in any
// order; they are sorted by index first. A missing index fails with a
// *types.CombinationError and an oversized merge request with a
// *types.BudgetError, both before any network call.
func (c *Combiner) Combine(ctx context.Context, results []types.ChunkResult, total int) (executor.Result, error) {
	ordered, err := Order(results, total)
	if err != nil {
		return executor.Result{}, err
	}

	req, err := c.templates.CombineRequest(ordered, c.config.MaxTokens)
	if err != nil {
		return executor.Result{}, err
	}

	if err := c.checkBudget(req); err != nil {
		return executor.Result{}, err
	}

	return c.exec.Execute(ctx, req)
}

func (c *Combiner) checkBudget(req types.CompletionRequest) error {
	if c.config.ContextWindow <= 0 {
		return nil
	}
	input := c.config.Estimator.Estimate(req.System) + c.config.Estimator.Estimate(req.Prompt)
	limit := c.config.ContextWindow - c.config.MaxTokens
	if input > limit {
		return &types.BudgetError{What: "combination request", Tokens: input, Limit: limit}
	}
	return nil
}

// Order returns results sorted by index, verifying that exactly the indices
// 0..total-1 are present.
func Order(results []types.ChunkResult, total int) ([]types.ChunkResult, error) {
	byIndex := lo.KeyBy(results, func(r types.ChunkResult) int { return r.Index })

	var missing []int
	for i := 0; i < total; i++ {
		if _, ok := byIndex[i]; !ok {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 || total == 0 {
		return nil, &types.CombinationError{Missing: missing, Total: total}
	}

	ordered := lo.Filter(lo.Values(byIndex), func(r types.ChunkResult, _ int) bool {
		return r.Index >= 0 && r.Index < total
	})
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	return ordered, nil
}
