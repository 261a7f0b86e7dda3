package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is the key prefix used when none is configured.
const DefaultRedisPrefix = "sdlcwizard"

// RedisBackend stores each field of a session as its own Redis string under
// <prefix>:<session>:<key>.
type RedisBackend struct {
	client  *redis.Client
	session string
	prefix  string
	ttl     time.Duration
}

// RedisOption configures a RedisBackend.
type RedisOption func(*RedisBackend)

// WithTTL expires session keys after ttl of inactivity. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(b *RedisBackend) {
		b.ttl = ttl
	}
}

// WithPrefix sets the key prefix. Default is [DefaultRedisPrefix].
func WithPrefix(prefix string) RedisOption {
	return func(b *RedisBackend) {
		b.prefix = prefix
	}
}

// NewRedisBackend creates a Redis-backed store for the named session.
func NewRedisBackend(client *redis.Client, session string, opts ...RedisOption) (*RedisBackend, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}

	b := &RedisBackend{
		client:  client,
		session: session,
		prefix:  DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Get implements [Backend].
func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.Get(ctx, b.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return v, true, nil
}

// Set implements [Backend].
func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	if err := b.client.Set(ctx, b.key(key), value, b.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete implements [Backend].
func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = b.key(k)
	}
	if err := b.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (b *RedisBackend) key(field string) string {
	return b.prefix + ":" + b.session + ":" + field
}
