package flows

import (
	"context"
	"time"
)

// LogoutFailureKind classifies logout flow failures for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureMissing
	LogoutFailureAlreadyLoggedOut
	LogoutFailureInvalid
	LogoutFailureStore
)

// LogoutResult reports which tokens were blacklisted.
type LogoutResult struct {
	Failure        LogoutFailureKind
	Err            error
	PrincipalID    string
	RevokedRefresh bool
	RevokedAccess  bool
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Now         func() time.Time
	Refresh     VerifiedTokens
	Access      DecodedTokens
	Revocations RevocationStore
}

// RunLogout blacklists both the refresh and the access token of a session.
//
// Each entry lives exactly as long as its own token would have: the refresh
// token's expiry comes from verified claims, the access token's from an
// unverified decode. An access token that cannot be decoded, or that is the
// refresh token itself, is left alone.
func RunLogout(ctx context.Context, refreshToken, accessToken string, deps LogoutDeps) LogoutResult {
	now := nowOrDefault(deps.Now)

	if refreshToken == "" || accessToken == "" {
		return LogoutResult{Failure: LogoutFailureMissing}
	}

	revoked, err := deps.Revocations.IsRevoked(ctx, refreshToken)
	if err != nil {
		return LogoutResult{Failure: LogoutFailureStore, Err: err}
	}
	if revoked {
		return LogoutResult{Failure: LogoutFailureAlreadyLoggedOut}
	}

	claims, err := deps.Refresh.Parse(refreshToken)
	if err != nil {
		return LogoutResult{Failure: LogoutFailureInvalid, Err: err}
	}
	result := LogoutResult{PrincipalID: claims.PrincipalID()}

	result.RevokedRefresh, err = revokeUntilExpiry(ctx, deps.Revocations, refreshToken, claims, deps.Refresh, now())
	if err != nil {
		result.Failure, result.Err = LogoutFailureStore, err
		return result
	}

	if accessToken == refreshToken {
		return result
	}
	accessClaims, err := deps.Access.DecodeUnverified(accessToken)
	if err != nil {
		return result
	}
	result.RevokedAccess, err = revokeUntilExpiry(ctx, deps.Revocations, accessToken, accessClaims, deps.Access, now())
	if err != nil {
		result.Failure, result.Err = LogoutFailureStore, err
	}
	return result
}
