// Package executor sends completion requests with a bounded retry policy.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/botirk38/noteinsights/types"
)

const (
	// DefaultRetryAttempts is the number of retries after a failed first attempt.
	DefaultRetryAttempts = 3

	// DefaultRequestTimeout bounds a single attempt.
	DefaultRequestTimeout = 2 * time.Minute
)

var (
	// ErrInvalidRetryAttempts is returned when the retry count is negative.
	ErrInvalidRetryAttempts = errors.New("retry attempts must be non-negative")

	// ErrInvalidTimeout is returned when the request timeout is negative.
	ErrInvalidTimeout = errors.New("request timeout must be non-negative")
)

// Policy configures retries for one request.
type Policy struct {
	// RetryAttempts is the number of additional attempts after the first.
	RetryAttempts int

	// RequestTimeout bounds each attempt. Zero disables the per-attempt timeout.
	RequestTimeout time.Duration

	Backoff types.Backoff
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		RetryAttempts:  DefaultRetryAttempts,
		RequestTimeout: DefaultRequestTimeout,
		Backoff:        DefaultBackoff(),
	}
}

// DefaultBackoff returns exponential backoff from 1s to 30s with 50% jitter.
func DefaultBackoff() types.Backoff {
	return types.Backoff{
		Initial:    time.Second,
		Max:        30 * time.Second,
		Multiplier: 2,
		Jitter:     0.5,
	}
}

// Validate checks if the policy is valid.
func (p Policy) Validate() error {
	if p.RetryAttempts < 0 {
		return ErrInvalidRetryAttempts
	}
	if p.RequestTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Result is the outcome of Execute. Usage covers every attempt, including
// failed ones, whenever the provider reported it.
type Result struct {
	Text     string
	Usage    types.Usage
	Attempts int
}

// Executor issues requests to a provider, retrying transient failures.
type Executor struct {
	provider types.Provider
	policy   Policy
	logger   *slog.Logger
}

// New creates an Executor. A nil logger discards log output.
func New(provider types.Provider, policy Policy, logger *slog.Logger) (*Executor, error) {
	if provider == nil {
		return nil, errors.New("provider cannot be nil")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{provider: provider, policy: policy, logger: logger}, nil
}

// Execute sends req, retrying transient failures up to RetryAttempts more
// times. Fatal failures return at once. On exhaustion the error is a
// *types.ProviderError carrying the last cause. Cancelling ctx stops the
// current attempt and returns the context error.
func (e *Executor) Execute(ctx context.Context, req types.CompletionRequest) (Result, error) {
	var res Result

	operation := func() (string, error) {
		res.Attempts++
		completion, err := e.attempt(ctx, req)
		if completion != nil {
			res.Usage = res.Usage.Add(completion.Usage)
		}
		if err == nil && completion == nil {
			err = types.NewTransientError(e.provider.Name(), 0, errors.New("empty completion"))
		}
		if err == nil {
			return completion.Text, nil
		}

		if ctx.Err() != nil {
			return "", backoff.Permanent(ctx.Err())
		}
		if types.IsFatal(err) {
			return "", backoff.Permanent(err)
		}
		if !types.IsTransient(err) {
			// per-attempt timeouts and unclassified failures are retried
			err = types.NewTransientError(e.provider.Name(), 0, err)
		}
		return "", err
	}

	notify := func(err error, wait time.Duration) {
		e.logger.Warn("retrying request",
			slog.String("provider", e.provider.Name()),
			slog.Int("attempt", res.Attempts),
			slog.Duration("wait", wait),
			slog.Any("err", err))
	}

	b := backoff.WithContext(backoff.WithMaxRetries(e.newBackOff(), uint64(e.policy.RetryAttempts)), ctx)
	text, err := backoff.RetryNotifyWithData(operation, b, notify)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		var pe *types.ProviderError
		if errors.As(err, &pe) {
			final := *pe
			final.Attempts = res.Attempts
			return res, &final
		}
		return res, &types.ProviderError{Kind: types.Transient, Provider: e.provider.Name(), Attempts: res.Attempts, Err: err}
	}

	res.Text = text
	return res, nil
}

func (e *Executor) attempt(ctx context.Context, req types.CompletionRequest) (*types.Completion, error) {
	if e.policy.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.policy.RequestTimeout)
		defer cancel()
	}
	return e.provider.Complete(ctx, req)
}

func (e *Executor) newBackOff() backoff.BackOff {
	cfg := e.policy.Backoff
	b := backoff.NewExponentialBackOff()
	if cfg.Initial > 0 {
		b.InitialInterval = cfg.Initial
	}
	if cfg.Max > 0 {
		b.MaxInterval = cfg.Max
	}
	if cfg.Multiplier >= 1 {
		b.Multiplier = cfg.Multiplier
	}
	if cfg.Jitter >= 0 && cfg.Jitter <= 1 {
		b.RandomizationFactor = cfg.Jitter
	}
	// attempts, not elapsed time, bound the retries
	b.MaxElapsedTime = 0
	return b
}
