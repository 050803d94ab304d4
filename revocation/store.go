package revocation

import (
	"context"
	"errors"
	"time"
)

// DefaultPrefix is the key namespace existing deployments already populate.
const DefaultPrefix = "blacklist:"

const revokedValue = "true"

// ErrUnavailable wraps every failure of the backing key-value store.
var ErrUnavailable = errors.New("revocation store unavailable")

// Store records revoked tokens and answers membership queries.
//
// Implementations must be safe for concurrent use. Revoke is idempotent:
// revoking an already revoked token simply rewrites the entry.
type Store interface {
	// Revoke marks token as revoked for ttl. A ttl <= 0 writes nothing.
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	// IsRevoked reports whether an unexpired entry exists for token.
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Key returns the storage key for token under prefix.
func Key(prefix, token string) string {
	return prefix + token
}

// RemainingTTL returns how long an entry for a token expiring at exp should
// live when written at now. The result is rounded up to whole milliseconds so
// the entry never lapses before the token does, and is zero when exp is unset
// or has already passed.
func RemainingTTL(exp, now time.Time) time.Duration {
	if exp.IsZero() {
		return 0
	}
	ttl := exp.Sub(now)
	if ttl <= 0 {
		return 0
	}
	if rem := ttl % time.Millisecond; rem != 0 {
		ttl += time.Millisecond - rem
	}
	return ttl
}
