package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/reelauth/internal/rate"
)

// LoginResult is the flow-local login response shape.
type LoginResult struct {
	PrincipalID      string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// LoginAccount is a flow-local account model.
type LoginAccount struct {
	PrincipalID  string
	Identifier   string
	PasswordHash string
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
	PasswordUpgraded int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	LoginRateLimited   error
	StoreUnavailable   error
	AccountNotFound    error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	PasswordUpgradeOnLogin bool

	ClientIPFromContext func(context.Context) string

	CheckLoginRate     func(context.Context, string, string) error
	IncrementLoginRate func(context.Context, string, string) error
	ResetLoginRate     func(context.Context, string, string) error

	FindAccount          func(context.Context, string) (LoginAccount, error)
	UpdatePasswordHash   func(context.Context, string, string) error
	VerifyPassword       func(string, string) (bool, error)
	PasswordNeedsUpgrade func(string) (bool, error)
	HashPassword         func(string) (string, error)
	// DecoyHash is verified against for unknown identifiers so they cost the
	// same as a wrong password.
	DecoyHash string

	Access  TokenIssuer
	Refresh TokenIssuer

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, principalID string, err error, metadata func() map[string]string)
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin verifies credentials and issues an access/refresh token pair.
//
// Empty input, an unknown identifier and a wrong password are reported with
// the same InvalidCredentials error. The revocation store is never touched.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) (*LoginResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.FindAccount == nil ||
		deps.VerifyPassword == nil ||
		deps.Access == nil ||
		deps.Refresh == nil {
		return nil, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIPFromContext(ctx)

	if deps.CheckLoginRate != nil {
		if err := deps.CheckLoginRate(ctx, identifier, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				return nil, rejectRateLimited(ctx, identifier, "", deps)
			}
			deps.Warn("reelauth: login throttle check failed", "error", err)
		}
	}

	fail := func(principalID, reason string) error {
		if deps.IncrementLoginRate != nil {
			if err := deps.IncrementLoginRate(ctx, identifier, ip); err != nil {
				if errors.Is(err, rate.ErrRateLimited) {
					return rejectRateLimited(ctx, identifier, principalID, deps)
				}
				deps.Warn("reelauth: login throttle increment failed", "error", err)
			}
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, principalID, deps.Errors.InvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     reason,
			}
		})
		return deps.Errors.InvalidCredentials
	}

	if identifier == "" || password == "" {
		return nil, fail("", "empty_credentials")
	}

	account, err := deps.FindAccount(ctx, identifier)
	if err != nil {
		if deps.Errors.AccountNotFound != nil && errors.Is(err, deps.Errors.AccountNotFound) {
			if deps.DecoyHash != "" {
				_, _ = deps.VerifyPassword(password, deps.DecoyHash)
			}
			return nil, fail("", "user_not_found")
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		storeErr := fmt.Errorf("%w: %v", deps.Errors.StoreUnavailable, err)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", storeErr, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     "store_unavailable",
			}
		})
		return nil, storeErr
	}

	ok, err := deps.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		deps.Warn("reelauth: stored password hash rejected", "principal_id", account.PrincipalID, "error", err)
	}
	if err != nil || !ok {
		return nil, fail(account.PrincipalID, "password_mismatch")
	}

	if deps.PasswordUpgradeOnLogin && deps.UpdatePasswordHash != nil && deps.PasswordNeedsUpgrade != nil && deps.HashPassword != nil {
		if needsUpgrade, err := deps.PasswordNeedsUpgrade(account.PasswordHash); err == nil && needsUpgrade {
			if upgradedHash, err := deps.HashPassword(password); err == nil {
				if err := deps.UpdatePasswordHash(ctx, account.PrincipalID, upgradedHash); err != nil {
					deps.Warn("reelauth: password hash upgrade update failed", "principal_id", account.PrincipalID, "error", err)
				} else {
					deps.MetricInc(deps.Metrics.PasswordUpgraded)
				}
			} else {
				deps.Warn("reelauth: password hash upgrade generation failed", "error", err)
			}
		}
	}
	password = ""

	access, accessClaims, err := deps.Access.Issue(account.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshClaims, err := deps.Refresh.Issue(account.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, identifier, ip); err != nil {
			deps.Warn("reelauth: login throttle reset failed", "error", err)
		}
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, account.PrincipalID, nil, func() map[string]string {
		return map[string]string{
			"identifier": identifier,
		}
	})

	return &LoginResult{
		PrincipalID:      account.PrincipalID,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.Expiry(),
		RefreshExpiresAt: refreshClaims.Expiry(),
	}, nil
}

func rejectRateLimited(ctx context.Context, identifier, principalID string, deps LoginDeps) error {
	deps.MetricInc(deps.Metrics.LoginRateLimited)
	deps.EmitAudit(ctx, deps.Events.LoginFailure, false, principalID, deps.Errors.LoginRateLimited, func() map[string]string {
		return map[string]string{
			"identifier": identifier,
			"reason":     "rate_limited",
		}
	})
	return deps.Errors.LoginRateLimited
}
