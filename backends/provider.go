package backends

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"

	"github.com/botirk38/noteinsights/types"
)

// CachingProvider serves repeated requests from a cache. Only successful
// completions are stored. A hit reports zero usage, since nothing was spent.
type CachingProvider struct {
	provider types.Provider
	cache    types.CompletionCache
	logger   *slog.Logger
}

// NewCachingProvider wraps provider. The returned provider owns cache and
// closes it on Close. Cache failures are logged and never fail a request.
func NewCachingProvider(provider types.Provider, cache types.CompletionCache, logger *slog.Logger) *CachingProvider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachingProvider{provider: provider, cache: cache, logger: logger}
}

// Key identifies a request sent to the named provider.
func Key(provider string, req types.CompletionRequest) string {
	h := sha256.New()
	for _, part := range []string{provider, req.System, req.Prompt, strconv.Itoa(req.MaxTokens)} {
		h.Write([]byte(strconv.Itoa(len(part))))
		h.Write([]byte{0})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (p *CachingProvider) Complete(ctx context.Context, req types.CompletionRequest) (*types.Completion, error) {
	key := Key(p.provider.Name(), req)

	cached, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		p.logger.Warn("completion cache read failed", slog.String("provider", p.Name()), slog.Any("err", err))
	case ok:
		p.logger.Debug("completion cache hit", slog.String("provider", p.Name()), slog.String("key", key[:12]))
		cached.Usage = types.Usage{}
		return &cached, nil
	}

	completion, err := p.provider.Complete(ctx, req)
	if err != nil || completion == nil {
		return completion, err
	}

	if err := p.cache.Set(ctx, key, *completion); err != nil {
		p.logger.Warn("completion cache write failed", slog.String("provider", p.Name()), slog.Any("err", err))
	}
	return completion, nil
}

func (p *CachingProvider) Name() string {
	return p.provider.Name()
}

func (p *CachingProvider) Close() {
	p.provider.Close()
	if err := p.cache.Close(); err != nil {
		p.logger.Warn("closing completion cache", slog.Any("err", err))
	}
}
