package reelauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/reelauth/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testIdentifier = "admin"
	testPassword   = "admin"
	testPrincipal  = "principal-1"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type mockCredentials struct {
	mu        sync.Mutex
	accounts  map[string]Account
	updated   map[string]string
	findErr   error
	createErr error
	findCalls int
}

func newMockCredentials(accounts ...Account) *mockCredentials {
	m := &mockCredentials{
		accounts: make(map[string]Account, len(accounts)),
		updated:  make(map[string]string),
	}
	for _, a := range accounts {
		m.accounts[a.Identifier] = a
	}
	return m
}

func (m *mockCredentials) FindByIdentifier(_ context.Context, identifier string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.findErr != nil {
		return Account{}, m.findErr
	}
	a, ok := m.accounts[identifier]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (m *mockCredentials) UpdatePasswordHash(_ context.Context, principalID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated[principalID] = hash
	for id, a := range m.accounts {
		if a.PrincipalID == principalID {
			a.PasswordHash = hash
			m.accounts[id] = a
		}
	}
	return nil
}

func (m *mockCredentials) Create(_ context.Context, identifier, hash string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return Account{}, m.createErr
	}
	if _, ok := m.accounts[identifier]; ok {
		return Account{}, ErrAccountExists
	}
	a := Account{PrincipalID: "principal-" + identifier, Identifier: identifier, PasswordHash: hash}
	m.accounts[identifier] = a
	return a, nil
}

// lookupOnlyCredentials hides Create so the engine sees a read-only store.
type lookupOnlyCredentials struct {
	CredentialStore
}

func testPasswordConfig() password.Config {
	return password.Config{
		Memory:           8 * 1024,
		Time:             1,
		Parallelism:      1,
		SaltLength:       16,
		KeyLength:        16,
		MaxPasswordBytes: password.DefaultMaxPasswordBytes,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret-for-engine-tests")
	cfg.JWT.RefreshSecret = []byte("refresh-secret-for-engine-tests")
	pw := testPasswordConfig()
	cfg.Password.Memory = pw.Memory
	cfg.Password.Time = pw.Time
	cfg.Password.Parallelism = pw.Parallelism
	cfg.Password.SaltLength = pw.SaltLength
	cfg.Password.KeyLength = pw.KeyLength
	return cfg
}

func hashTestPassword(t *testing.T, plain string) string {
	t.Helper()
	v, err := password.NewVerifier(testPasswordConfig())
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	hash, err := v.Hash(plain)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return hash
}

type testEngine struct {
	*Engine
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	clock *testClock
	creds *mockCredentials
}

func buildTestEngine(t *testing.T, cfg Config, sink AuditSink) *testEngine {
	t.Helper()

	mr, rdb := newTestRedis(t)
	clock := newTestClock()
	creds := newMockCredentials(Account{
		PrincipalID:  testPrincipal,
		Identifier:   testIdentifier,
		PasswordHash: hashTestPassword(t, testPassword),
	})

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(creds).
		WithAuditSink(sink).
		WithClock(clock.Now).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return &testEngine{Engine: engine, mr: mr, rdb: rdb, clock: clock, creds: creds}
}
