package reelauth

import (
	"context"
	"time"
)

// Account is the credential record the engine authenticates against.
type Account struct {
	PrincipalID  string
	Identifier   string
	PasswordHash string
}

// CredentialStore looks accounts up by login identifier (the email address
// for the movie-review API). Implementations return [ErrAccountNotFound] for
// unknown identifiers; any other error is treated as a store outage.
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (Account, error)
}

// PasswordUpdater is optionally implemented by a [CredentialStore] that can
// persist a rehashed password after a successful login.
type PasswordUpdater interface {
	UpdatePasswordHash(ctx context.Context, principalID, passwordHash string) error
}

// AccountCreator is optionally implemented by a [CredentialStore] that can
// register new accounts. Create returns [ErrAccountExists] for a taken
// identifier.
type AccountCreator interface {
	Create(ctx context.Context, identifier, passwordHash string) (Account, error)
}

// PasswordVerifier checks and produces stored password hashes.
// [password.Verifier] is the default implementation.
type PasswordVerifier interface {
	Verify(password, encodedHash string) (bool, error)
	NeedsUpgrade(encodedHash string) (bool, error)
	Hash(password string) (string, error)
}

// TokenPair is returned by [Engine.Login].
type TokenPair struct {
	PrincipalID      string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AccessGrant is returned by [Engine.Refresh].
type AccessGrant struct {
	PrincipalID string
	AccessToken string
	ExpiresAt   time.Time
}

// AuthResult is returned by [Engine.Validate] for an authenticated request.
type AuthResult struct {
	PrincipalID string
	TokenID     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}
