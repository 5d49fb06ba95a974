package types

import (
	"context"
	"time"
)

// CompletionCache stores completions by request key.
type CompletionCache interface {
	Get(ctx context.Context, key string) (Completion, bool, error)
	Set(ctx context.Context, key string, completion Completion) error
	Len(ctx context.Context) (int, error)
	Flush(ctx context.Context) error
	Close() error
}

// BackendConfig provides configuration options for cache backends
type BackendConfig struct {
	// For in-memory caches
	Capacity int

	// TTL bounds the age of an entry. Zero keeps entries until evicted.
	TTL time.Duration

	// For Redis
	ConnectionString string
	Username         string
	Password         string
	Database         int
	Prefix           string
}

// BackendType represents the type of cache backend
type BackendType string

const (
	BackendLRU   BackendType = "lru"
	BackendRedis BackendType = "redis"
)
