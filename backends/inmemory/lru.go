// Package inmemory provides process-local completion caches.
package inmemory

import (
	"context"
	"errors"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/botirk38/noteinsights/types"
)

// DefaultCapacity is used when the config leaves Capacity unset.
const DefaultCapacity = 1024

// LRUBackend implements CompletionCache using LRU eviction with an optional TTL
type LRUBackend struct {
	cache *expirable.LRU[string, types.Completion]
}

// NewLRUBackend creates a new LRU backend
func NewLRUBackend(config types.BackendConfig) (*LRUBackend, error) {
	if config.Capacity < 0 {
		return nil, errors.New("capacity must be non-negative")
	}
	if config.TTL < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	capacity := config.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}

	return &LRUBackend{
		cache: expirable.NewLRU[string, types.Completion](capacity, nil, config.TTL),
	}, nil
}

// Get retrieves a completion from the LRU cache
func (b *LRUBackend) Get(ctx context.Context, key string) (types.Completion, bool, error) {
	c, ok := b.cache.Get(key)
	return c, ok, nil
}

// Set stores a completion in the LRU cache
func (b *LRUBackend) Set(ctx context.Context, key string, completion types.Completion) error {
	b.cache.Add(key, completion)
	return nil
}

// Len returns the number of live entries
func (b *LRUBackend) Len(ctx context.Context) (int, error) {
	return b.cache.Len(), nil
}

// Flush clears all entries from the LRU cache
func (b *LRUBackend) Flush(ctx context.Context) error {
	b.cache.Purge()
	return nil
}

// Close closes the LRU backend (no-op for in-memory)
func (b *LRUBackend) Close() error {
	return nil
}
