package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/reelauth/jwt"
	"github.com/MrEthical07/reelauth/revocation"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Login    LoginDeps
	Refresh  RefreshDeps
	Logout   LogoutDeps
	Validate ValidateDeps
}

// TokenIssuer creates signed tokens for a principal.
type TokenIssuer interface {
	Issue(principalID string) (string, *jwt.Claims, error)
}

// TokenVerifier fully verifies a token.
type TokenVerifier interface {
	Parse(token string) (*jwt.Claims, error)
}

// TokenDecoder reads claims without verification, for TTL computation only.
type TokenDecoder interface {
	DecodeUnverified(token string) (*jwt.Claims, error)
}

// TokenLifetime bounds how long a token type can pass verification.
type TokenLifetime interface {
	Leeway() time.Duration
	MaxLifetime() time.Duration
}

// AccessTokens is the access-token surface refresh needs.
type AccessTokens interface {
	TokenIssuer
	TokenDecoder
	TokenLifetime
}

// DecodedTokens reads claims unverified and bounds their lifetime.
type DecodedTokens interface {
	TokenDecoder
	TokenLifetime
}

// VerifiedTokens verifies tokens and bounds their lifetime.
type VerifiedTokens interface {
	TokenVerifier
	TokenLifetime
}

// RevocationStore is the subset of revocation.Store the flows use.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// revokeUntilExpiry writes a revocation entry that lapses when the token can
// no longer pass verification: exp plus leeway, capped at the longest
// lifetime a token of that type is ever issued with. Unverified claims can
// carry any exp, so the cap bounds the entry either way. Tokens without a
// future exp are skipped.
func revokeUntilExpiry(ctx context.Context, store RevocationStore, token string, claims *jwt.Claims, tokens TokenLifetime, now time.Time) (bool, error) {
	exp := claims.Expiry()
	if exp.IsZero() {
		return false, nil
	}
	ttl := revocation.RemainingTTL(exp.Add(tokens.Leeway()), now)
	if ttl <= 0 {
		return false, nil
	}
	if limit := tokens.MaxLifetime(); ttl > limit {
		ttl = limit
	}
	if err := store.Revoke(ctx, token, ttl); err != nil {
		return false, err
	}
	return true, nil
}

func nowOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
