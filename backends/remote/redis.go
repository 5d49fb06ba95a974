// Package remote provides completion caches shared between processes.
package remote

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/botirk38/noteinsights/types"
)

// DefaultPrefix namespaces the keys written by this package.
const DefaultPrefix = "noteinsights:completion:"

// RedisBackend implements CompletionCache using plain Redis strings holding JSON
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// redisDocument represents a cached completion stored in Redis
type redisDocument struct {
	Completion types.Completion `json:"completion"`
	Timestamp  int64            `json:"timestamp"`
}

// parseRedisURL parses a Redis URL and returns redis.Options
func parseRedisURL(connectionString string) (*redis.Options, error) {
	if !strings.HasPrefix(connectionString, "redis://") && !strings.HasPrefix(connectionString, "rediss://") {
		// host:port
		return &redis.Options{Addr: connectionString}, nil
	}

	parsedURL, err := url.Parse(connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opts := &redis.Options{Addr: parsedURL.Host}
	if parsedURL.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if parsedURL.User != nil {
		opts.Username = parsedURL.User.Username()
		if password, ok := parsedURL.User.Password(); ok {
			opts.Password = password
		}
	}
	if db := strings.TrimPrefix(parsedURL.Path, "/"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("invalid Redis database %q: %w", db, err)
		}
		opts.DB = n
	}
	return opts, nil
}

// NewRedisBackend connects to Redis and verifies the connection.
func NewRedisBackend(ctx context.Context, config types.BackendConfig) (*RedisBackend, error) {
	if config.ConnectionString == "" {
		return nil, errors.New("redis connection string is required")
	}
	opts, err := parseRedisURL(config.ConnectionString)
	if err != nil {
		return nil, err
	}

	// explicit values win over the URL
	if config.Username != "" {
		opts.Username = config.Username
	}
	if config.Password != "" {
		opts.Password = config.Password
	}
	if config.Database != 0 {
		opts.DB = config.Database
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisBackendWithClient(client, config), nil
}

// NewRedisBackendWithClient wraps an existing client. The backend owns the
// client and closes it on Close.
func NewRedisBackendWithClient(client *redis.Client, config types.BackendConfig) *RedisBackend {
	prefix := config.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisBackend{client: client, prefix: prefix, ttl: config.TTL}
}

func (b *RedisBackend) keyString(key string) string {
	return b.prefix + key
}

// Get retrieves a completion using GET
func (b *RedisBackend) Get(ctx context.Context, key string) (types.Completion, bool, error) {
	data, err := b.client.Get(ctx, b.keyString(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.Completion{}, false, nil
	}
	if err != nil {
		return types.Completion{}, false, fmt.Errorf("failed to get entry from Redis: %w", err)
	}

	var doc redisDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.Completion{}, false, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return doc.Completion, true, nil
}

// Set stores a completion using SET with the configured TTL
func (b *RedisBackend) Set(ctx context.Context, key string, completion types.Completion) error {
	data, err := json.Marshal(redisDocument{Completion: completion, Timestamp: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := b.client.Set(ctx, b.keyString(key), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set entry in Redis: %w", err)
	}
	return nil
}

// scan calls fn with every batch of keys under the prefix
func (b *RedisBackend) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := b.client.Scan(ctx, cursor, b.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys from Redis: %w", err)
		}
		if err := fn(keys); err != nil {
			return err
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Len returns the number of entries under the prefix
func (b *RedisBackend) Len(ctx context.Context) (int, error) {
	count := 0
	err := b.scan(ctx, func(keys []string) error {
		count += len(keys)
		return nil
	})
	return count, err
}

// Flush removes all entries under the prefix
func (b *RedisBackend) Flush(ctx context.Context) error {
	return b.scan(ctx, func(keys []string) error {
		if len(keys) == 0 {
			return nil
		}
		if err := b.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to flush Redis: %w", err)
		}
		return nil
	})
}

// Close closes the Redis connection
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
