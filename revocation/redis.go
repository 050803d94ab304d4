package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps revocation entries as plain string keys in Redis.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a [RedisStore] using prefix as the key namespace.
// An empty prefix selects [DefaultPrefix].
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{redis: client, prefix: prefix}
}

// Revoke writes SET <prefix><token> "true" with a millisecond expiry.
//
//	Performance: 1 Redis SET, or none when ttl <= 0.
func (s *RedisStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if s == nil || s.redis == nil {
		return fmt.Errorf("%w: redis client is nil", ErrUnavailable)
	}
	ttl = ttl.Truncate(time.Millisecond)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, Key(s.prefix, token), revokedValue, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether the entry for token exists.
//
//	Performance: 1 Redis GET.
func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	if s == nil || s.redis == nil {
		return false, fmt.Errorf("%w: redis client is nil", ErrUnavailable)
	}
	err := s.redis.Get(ctx, Key(s.prefix, token)).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
