package credentials

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/MrEthical07/reelauth"
	"github.com/google/uuid"
)

// Hasher produces stored password hashes. password.Verifier satisfies it.
type Hasher interface {
	Hash(password string) (string, error)
}

// MemoryStore keeps accounts in process memory.
//
// MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	byIdentifier map[string]reelauth.Account
	byPrincipal  map[string]string
}

var (
	_ reelauth.CredentialStore = (*MemoryStore)(nil)
	_ reelauth.PasswordUpdater = (*MemoryStore)(nil)
	_ reelauth.AccountCreator  = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byIdentifier: make(map[string]reelauth.Account),
		byPrincipal:  make(map[string]string),
	}
}

// Create stores a new account with a random principal id.
func (s *MemoryStore) Create(_ context.Context, identifier, passwordHash string) (reelauth.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || passwordHash == "" {
		return reelauth.Account{}, errors.New("credentials: identifier and password hash are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byIdentifier[identifier]; ok {
		return reelauth.Account{}, ErrDuplicateIdentifier
	}
	account := reelauth.Account{
		PrincipalID:  uuid.NewString(),
		Identifier:   identifier,
		PasswordHash: passwordHash,
	}
	s.byIdentifier[identifier] = account
	s.byPrincipal[account.PrincipalID] = identifier
	return account, nil
}

func (s *MemoryStore) FindByIdentifier(_ context.Context, identifier string) (reelauth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byIdentifier[identifier]
	if !ok {
		return reelauth.Account{}, reelauth.ErrAccountNotFound
	}
	return account, nil
}

func (s *MemoryStore) UpdatePasswordHash(_ context.Context, principalID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identifier, ok := s.byPrincipal[principalID]
	if !ok {
		return reelauth.ErrAccountNotFound
	}
	account := s.byIdentifier[identifier]
	account.PasswordHash = passwordHash
	s.byIdentifier[identifier] = account
	return nil
}

// Seed hashes password and creates the account unless the identifier
// already exists. It reports whether an account was created.
func Seed(ctx context.Context, store reelauth.AccountCreator, hasher Hasher, identifier, password string) (bool, error) {
	hash, err := hasher.Hash(password)
	if err != nil {
		return false, err
	}
	if _, err := store.Create(ctx, identifier, hash); err != nil {
		if errors.Is(err, ErrDuplicateIdentifier) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
