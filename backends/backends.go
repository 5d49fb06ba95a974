// Package backends caches provider completions so that repeated requests,
// typically while iterating in test mode, skip the network.
package backends

import (
	"context"
	"errors"

	"github.com/botirk38/noteinsights/backends/inmemory"
	"github.com/botirk38/noteinsights/backends/remote"
	"github.com/botirk38/noteinsights/types"
)

var ErrUnsupportedBackend = errors.New("unsupported backend type")

// NewBackend creates a completion cache of the specified type
func NewBackend(ctx context.Context, backendType types.BackendType, config types.BackendConfig) (types.CompletionCache, error) {
	switch backendType {
	case types.BackendLRU:
		return NewLRUBackend(config)
	case types.BackendRedis:
		return NewRedisBackend(ctx, config)
	default:
		return nil, ErrUnsupportedBackend
	}
}

// NewLRUBackend creates a new LRU backend
func NewLRUBackend(config types.BackendConfig) (types.CompletionCache, error) {
	b, err := inmemory.NewLRUBackend(config)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NewRedisBackend creates a new Redis backend
func NewRedisBackend(ctx context.Context, config types.BackendConfig) (types.CompletionCache, error) {
	b, err := remote.NewRedisBackend(ctx, config)
	if err != nil {
		return nil, err
	}
	return b, nil
}
