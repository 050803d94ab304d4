package reelauth

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/reelauth/internal/flows"
	"github.com/MrEthical07/reelauth/internal/rate"
	"github.com/MrEthical07/reelauth/jwt"
	"github.com/MrEthical07/reelauth/revocation"
	"go.uber.org/zap"
)

// Engine runs the login, refresh, logout and access-validation protocol.
//
// Engine is safe for concurrent use. The only state shared between requests
// lives in the revocation store.
type Engine struct {
	config Config
	flow   flows.Service

	access      *jwt.Manager
	refresh     *jwt.Manager
	revocations revocation.Store
	limiter     *rate.Limiter
	credentials CredentialStore
	passwords   PasswordVerifier
	decoyHash   string

	metrics *Metrics
	audit   *auditDispatcher
	logger  *zap.Logger
	now     func() time.Time
}

// Config returns a copy of the configuration the Engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// Close flushes and stops the audit dispatcher. Client handles passed to the
// Builder are left open.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were discarded on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flow.Initialized()
}

// Login verifies identifier and password and issues an access/refresh pair.
//
// It returns [ErrInvalidCredentials] for empty input, an unknown identifier
// or a wrong password alike, [ErrLoginRateLimited] when throttling is enabled
// and exhausted, and an error wrapping [ErrStoreUnavailable] when the
// credential store fails.
func (e *Engine) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	result, err := e.flow.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		PrincipalID:      result.PrincipalID,
		AccessToken:      result.AccessToken,
		RefreshToken:     result.RefreshToken,
		AccessExpiresAt:  result.AccessExpiresAt,
		RefreshExpiresAt: result.RefreshExpiresAt,
	}, nil
}

// Refresh exchanges refreshToken for a new access token. When accessToken is
// non-empty it is blacklisted for the rest of its lifetime first.
//
// The refresh token is not rotated and stays valid until it expires or is
// logged out.
func (e *Engine) Refresh(ctx context.Context, refreshToken, accessToken string) (*AccessGrant, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	result := e.flow.Refresh(ctx, refreshToken, accessToken)
	if result.RevokedAccess {
		e.metricInc(MetricTokenRevoked)
		e.emitAudit(ctx, auditEventTokenRevoked, true, result.PrincipalID, nil, func() map[string]string {
			return map[string]string{"token_type": "access", "reason": "refresh"}
		})
	}

	if result.Failure != flows.RefreshFailureNone {
		err := refreshError(result)
		e.metricInc(MetricRefreshFailure)
		switch result.Failure {
		case flows.RefreshFailureRevoked:
			e.metricInc(MetricRefreshRevoked)
		case flows.RefreshFailureStore:
			e.metricInc(MetricStoreError)
			e.logger.Warn("refresh: revocation store failed", zap.Error(result.Err))
		case flows.RefreshFailureIssueAccess:
			e.logger.Error("refresh: issue access token", zap.Error(result.Err))
		}
		e.emitAudit(ctx, auditEventRefreshFailure, false, result.PrincipalID, err, nil)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, result.PrincipalID, nil, nil)

	return &AccessGrant{
		PrincipalID: result.PrincipalID,
		AccessToken: result.AccessToken,
		ExpiresAt:   result.AccessExpiresAt,
	}, nil
}

func refreshError(result flows.RefreshResult) error {
	switch result.Failure {
	case flows.RefreshFailureMissing:
		return ErrMissingRefreshToken
	case flows.RefreshFailureRevoked:
		return ErrRefreshRevoked
	case flows.RefreshFailureInvalid:
		return fmt.Errorf("%w: %v", ErrRefreshInvalid, result.Err)
	case flows.RefreshFailureStore:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Err)
	default:
		return fmt.Errorf("issue access token: %w", result.Err)
	}
}

// Logout blacklists both tokens of a session, each for its own remaining
// lifetime. An access token that cannot be decoded is not blacklisted.
func (e *Engine) Logout(ctx context.Context, refreshToken, accessToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	result := e.flow.Logout(ctx, refreshToken, accessToken)
	for _, revoked := range []struct {
		ok        bool
		tokenType string
	}{
		{result.RevokedRefresh, "refresh"},
		{result.RevokedAccess, "access"},
	} {
		if !revoked.ok {
			continue
		}
		e.metricInc(MetricTokenRevoked)
		tokenType := revoked.tokenType
		e.emitAudit(ctx, auditEventTokenRevoked, true, result.PrincipalID, nil, func() map[string]string {
			return map[string]string{"token_type": tokenType, "reason": "logout"}
		})
	}

	if result.Failure != flows.LogoutFailureNone {
		err := logoutError(result)
		e.metricInc(MetricLogoutFailure)
		if result.Failure == flows.LogoutFailureStore {
			e.metricInc(MetricStoreError)
			e.logger.Warn("logout: revocation store failed", zap.Error(result.Err))
		}
		e.emitAudit(ctx, auditEventLogoutFailure, false, result.PrincipalID, err, nil)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, result.PrincipalID, nil, nil)
	return nil
}

func logoutError(result flows.LogoutResult) error {
	switch result.Failure {
	case flows.LogoutFailureMissing:
		return ErrMissingToken
	case flows.LogoutFailureAlreadyLoggedOut:
		return ErrAlreadyLoggedOut
	case flows.LogoutFailureInvalid:
		return fmt.Errorf("%w: %v", ErrRefreshInvalid, result.Err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Err)
	}
}

// Validate authenticates an access token presented on a protected request.
//
// Checks run in order and the first failure wins: [ErrTokenMalformed],
// [ErrTokenExpired], [ErrTokenInvalid], then [ErrTokenRevoked]. The
// revocation store is consulted only for tokens that verified.
func (e *Engine) Validate(ctx context.Context, tokenStr string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	result := e.flow.Validate(ctx, tokenStr)
	switch result.Failure {
	case flows.ValidateFailureNone:
		e.metricInc(MetricValidateSuccess)
		claims := result.Claims
		out := &AuthResult{
			PrincipalID: claims.PrincipalID(),
			TokenID:     claims.ID,
			ExpiresAt:   claims.Expiry(),
		}
		if claims.IssuedAt != nil {
			out.IssuedAt = claims.IssuedAt.Time
		}
		return out, nil
	case flows.ValidateFailureRevoked:
		e.metricInc(MetricValidateRevoked)
		return nil, ErrTokenRevoked
	case flows.ValidateFailureStore:
		e.metricInc(MetricStoreError)
		e.logger.Warn("validate: revocation store failed", zap.Error(result.Err))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, result.Err)
	}

	e.metricInc(MetricValidateFailure)
	switch result.Failure {
	case flows.ValidateFailureMissing:
		return nil, ErrMissingAccessToken
	case flows.ValidateFailureMalformed:
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, result.Err)
	case flows.ValidateFailureExpired:
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, result.Err)
	default:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, result.Err)
	}
}
