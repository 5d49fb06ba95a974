package noteinsights

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/botirk38/noteinsights/chunker"
	"github.com/botirk38/noteinsights/collector"
	"github.com/botirk38/noteinsights/combiner"
	"github.com/botirk38/noteinsights/executor"
	"github.com/botirk38/noteinsights/prompt"
	"github.com/botirk38/noteinsights/sink"
	"github.com/botirk38/noteinsights/types"
)

// run holds the state of one invocation. It is discarded when the run ends.
type run struct {
	g         *Generator
	cfg       types.RunConfig
	templates *prompt.Templates
	logger    *slog.Logger
	quiet     bool

	mu    sync.Mutex
	state types.RunState
	usage types.Usage
}

func (g *Generator) newRun(cfg types.RunConfig, templates *prompt.Templates) *run {
	return &run{
		g:         g,
		cfg:       cfg,
		templates: templates,
		logger:    g.logger,
		state:     types.StateIdle,
	}
}

// emit records the new state and notifies the subscriber. Calls are
// serialized so the subscriber sees events in order.
func (r *run) emit(state types.RunState, chunk, total int, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitLocked(types.Event{State: state, Chunk: chunk, Total: total, Usage: r.usage, Message: msg})
}

func (r *run) emitLocked(ev types.Event) {
	r.state = ev.State
	if r.quiet || r.g.onEvent == nil {
		return
	}
	r.g.onEvent(ev)
}

func (r *run) addUsage(u types.Usage) {
	r.mu.Lock()
	r.usage = r.usage.Add(u)
	r.mu.Unlock()
}

func (r *run) totalUsage() types.Usage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage
}

// fail moves the run to StateFailed. It is the only place a failure is
// reported.
func (r *run) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Terminal() {
		return
	}
	ev := types.Event{State: types.StateFailed, Chunk: -1, Usage: r.usage, Err: err, Message: err.Error()}
	var ce *types.ChunkError
	if errors.As(err, &ce) {
		ev.Chunk, ev.Total = ce.Index, ce.Total
	}
	r.logger.Error("run failed", slog.String("state", r.state.String()), slog.Any("err", err))
	r.emitLocked(ev)
}

// prepare collects and plans the corpus.
func (r *run) prepare(ctx context.Context) (*Plan, error) {
	r.emit(types.StateCollecting, -1, 0, "collecting notes")
	sources, err := collector.Collect(ctx, r.g.vault, collector.Config{
		ExcludeFolders:  r.cfg.ExcludeFolders,
		IncludePatterns: r.cfg.IncludePatterns,
		TestMode:        r.cfg.TestMode,
		Estimator:       r.g.estimator,
	})
	if err != nil {
		return nil, errors.Wrap(err, "collecting notes")
	}
	r.logger.Info("collected notes", slog.Int("notes", len(sources)), slog.Bool("test_mode", r.cfg.TestMode.Enabled))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.emit(types.StatePlanning, -1, 0, fmt.Sprintf("planning %d notes", len(sources)))
	overhead, err := r.templates.Overhead(r.g.estimator)
	if err != nil {
		return nil, err
	}
	scale, err := r.templates.Scale(r.g.estimator, overhead)
	if err != nil {
		return nil, err
	}

	budget := r.budget()
	planned := budget
	if scale > 1 && budget > overhead {
		planned = overhead + int(float64(budget-overhead)/scale)
		r.logger.Warn("prompts repeat or expand the notes, packing chunks tighter",
			slog.Float64("scale", scale),
			slog.Int("capacity", planned-overhead))
	}

	chunks, err := chunker.Plan(sources, chunker.PlanConfig{
		BudgetTokens:     planned,
		ReservedOverhead: overhead,
		Estimator:        r.g.estimator,
	})
	if err != nil {
		return nil, errors.Wrap(err, "planning chunks")
	}
	requests, err := r.requests(chunks, budget)
	if err != nil {
		return nil, errors.Wrap(err, "planning chunks")
	}
	r.logger.Info("planned chunks",
		slog.Int("chunks", len(chunks)),
		slog.Int("budget", budget),
		slog.Int("overhead", overhead))

	return &Plan{Sources: sources, Chunks: chunks, Budget: budget, Overhead: overhead, Requests: requests}, nil
}

// requests renders the request of every chunk and rejects the plan when
// one is estimated over budget, before anything is sent.
func (r *run) requests(chunks []chunker.Chunk, budget int) ([]types.CompletionRequest, error) {
	total := len(chunks)
	requests := make([]types.CompletionRequest, total)
	for i, c := range chunks {
		req, err := r.templates.ChunkRequest(c, total, r.g.model.MaxTokens)
		if err != nil {
			return nil, err
		}
		if tokens := r.g.estimator.Estimate(req.System) + r.g.estimator.Estimate(req.Prompt); tokens > budget {
			return nil, &types.BudgetError{
				What:   fmt.Sprintf("request for chunk %d/%d", i+1, total),
				Tokens: tokens,
				Limit:  budget,
			}
		}
		requests[i] = req
	}
	return requests, nil
}

// budget is the per-request input budget: the configured ceiling, lowered
// when the model cannot take that much input next to its output tokens.
func (r *run) budget() int {
	budget := r.cfg.MaxTokensPerRequest
	if window := r.g.model.ContextWindow; window > 0 {
		if limit := window - r.g.model.MaxTokens; limit > 0 && limit < budget {
			r.logger.Warn("lowering request budget to fit the context window",
				slog.Int("configured", budget),
				slog.Int("budget", limit))
			budget = limit
		}
	}
	return budget
}

func (r *run) execute(ctx context.Context, s sink.Sink) (*FinalResult, error) {
	plan, err := r.prepare(ctx)
	if err != nil {
		return nil, err
	}

	if len(plan.Chunks) == 0 {
		r.emit(types.StateDone, -1, 0, "nothing to process")
		return &FinalResult{}, nil
	}

	exec, err := executor.New(r.g.provider, executor.Policy{
		RetryAttempts:  r.cfg.RetryAttempts,
		RequestTimeout: r.cfg.RequestTimeout,
		Backoff:        r.cfg.Backoff,
	}, r.logger)
	if err != nil {
		return nil, err
	}

	total := len(plan.Chunks)
	r.emit(types.StateExecuting, -1, total, fmt.Sprintf("sending %d request(s)", total))
	results, err := r.executeChunks(ctx, exec, plan)
	if err != nil {
		return nil, err
	}

	res := &FinalResult{
		Chunks:  total,
		Sources: collector.Paths(plan.Sources),
	}

	if total == 1 {
		res.Text = results[0].Text
	} else {
		r.emit(types.StateCombining, -1, total, fmt.Sprintf("combining %d results", total))
		comb := combiner.New(exec, r.templates, combiner.Config{
			ContextWindow: r.g.model.ContextWindow,
			MaxTokens:     r.g.model.MaxTokens,
			Estimator:     r.g.estimator,
		})
		out, err := comb.Combine(ctx, results, total)
		r.addUsage(out.Usage)
		if err != nil {
			return nil, errors.Wrap(err, "combining results")
		}
		res.Text = out.Text
		res.Combined = true
	}

	if s != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.emit(types.StateInserting, -1, total, fmt.Sprintf("inserting at %s", r.cfg.InsertPosition))
		if err := s.Insert(ctx, res.Text, r.cfg.InsertPosition); err != nil {
			return nil, errors.Wrap(err, "inserting result")
		}
	}

	res.Usage = r.totalUsage()
	res.Cost = r.g.model.Cost(res.Usage)
	r.logger.Info("run complete",
		slog.Int("chunks", res.Chunks),
		slog.Bool("combined", res.Combined),
		slog.Int("input_tokens", res.Usage.InputTokens),
		slog.Int("output_tokens", res.Usage.OutputTokens),
		slog.Float64("cost_usd", res.Cost))
	r.emit(types.StateDone, -1, total, "done")
	return res, nil
}

// executeChunks sends one request per chunk and returns the results ordered
// by index. The first failure cancels the requests still in flight.
func (r *run) executeChunks(ctx context.Context, exec *executor.Executor, plan *Plan) ([]types.ChunkResult, error) {
	chunks := plan.Chunks
	total := len(chunks)
	results := make([]types.ChunkResult, total)

	do := func(ctx context.Context, c chunker.Chunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.logger.Debug("sending chunk", slog.Int("chunk", c.Index+1), slog.Int("total", total), slog.Int("tokens", c.Tokens))
		out, err := exec.Execute(ctx, plan.Requests[c.Index])
		r.addUsage(out.Usage)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return &types.ChunkError{Index: c.Index, Total: total, Err: err}
		}

		results[c.Index] = types.ChunkResult{Index: c.Index, Text: out.Text, Usage: out.Usage}
		r.emit(types.StateExecuting, c.Index, total, fmt.Sprintf("chunk %d/%d complete", c.Index+1, total))
		return nil
	}

	if r.cfg.Concurrency < 2 {
		for _, c := range chunks {
			if err := do(ctx, c); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.cfg.Concurrency)
	for _, c := range chunks {
		eg.Go(func() error {
			return do(egCtx, c)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
