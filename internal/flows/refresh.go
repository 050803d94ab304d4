package flows

import (
	"context"
	"time"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureRevoked
	RefreshFailureInvalid
	RefreshFailureStore
	RefreshFailureIssueAccess
)

// RefreshResult carries either the new access token or failure metadata.
type RefreshResult struct {
	Failure         RefreshFailureKind
	Err             error
	PrincipalID     string
	AccessToken     string
	AccessExpiresAt time.Time
	// RevokedAccess reports whether the presented access token was blacklisted.
	RevokedAccess bool
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Now         func() time.Time
	Refresh     TokenVerifier
	Access      AccessTokens
	Revocations RevocationStore
}

// RunRefresh exchanges a refresh token for a new access token.
//
// Steps short-circuit in order: missing refresh, revoked refresh, refresh
// verification. A presented access token is then blacklisted for its own
// remaining lifetime; one that cannot be decoded, has already expired or is
// the refresh token itself is skipped. The refresh token itself is returned to the caller unchanged.
func RunRefresh(ctx context.Context, refreshToken, accessToken string, deps RefreshDeps) RefreshResult {
	now := nowOrDefault(deps.Now)

	if refreshToken == "" {
		return RefreshResult{Failure: RefreshFailureMissing}
	}

	revoked, err := deps.Revocations.IsRevoked(ctx, refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}
	if revoked {
		return RefreshResult{Failure: RefreshFailureRevoked}
	}

	claims, err := deps.Refresh.Parse(refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureInvalid, Err: err}
	}
	principalID := claims.PrincipalID()

	var revokedAccess bool
	if accessToken != "" && accessToken != refreshToken {
		if accessClaims, err := deps.Access.DecodeUnverified(accessToken); err == nil {
			revokedAccess, err = revokeUntilExpiry(ctx, deps.Revocations, accessToken, accessClaims, deps.Access, now())
			if err != nil {
				return RefreshResult{Failure: RefreshFailureStore, Err: err, PrincipalID: principalID}
			}
		}
	}

	access, accessClaims, err := deps.Access.Issue(principalID)
	if err != nil {
		return RefreshResult{
			Failure:       RefreshFailureIssueAccess,
			Err:           err,
			PrincipalID:   principalID,
			RevokedAccess: revokedAccess,
		}
	}

	return RefreshResult{
		PrincipalID:     principalID,
		AccessToken:     access,
		AccessExpiresAt: accessClaims.Expiry(),
		RevokedAccess:   revokedAccess,
	}
}
