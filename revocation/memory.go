package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process [Store] for tests and single-node development.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	prefix  string
	now     func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore]. A nil now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]time.Time),
		prefix:  DefaultPrefix,
		now:     now,
	}
}

// Revoke records token until now+ttl.
func (s *MemoryStore) Revoke(_ context.Context, token string, ttl time.Duration) error {
	ttl = ttl.Truncate(time.Millisecond)
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	s.entries[Key(s.prefix, token)] = s.now().Add(ttl)
	s.mu.Unlock()
	return nil
}

// IsRevoked reports whether an unexpired entry exists for token. Expired
// entries are evicted on lookup.
func (s *MemoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	key := Key(s.prefix, token)
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.entries, key)
		return false, nil
	}
	return true, nil
}

// Len returns the number of entries held, including ones not yet evicted.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
