package reelauth

import (
	"context"
	"errors"

	"github.com/MrEthical07/reelauth/internal/flows"
)

func (e *Engine) flowDeps() flows.Deps {
	return flows.Deps{
		Login:    e.loginDeps(),
		Refresh:  flows.RefreshDeps{Now: e.now, Refresh: e.refresh, Access: e.access, Revocations: e.revocations},
		Logout:   flows.LogoutDeps{Now: e.now, Refresh: e.refresh, Access: e.access, Revocations: e.revocations},
		Validate: flows.ValidateDeps{Access: e.access, Revocations: e.revocations},
	}
}

func (e *Engine) loginDeps() flows.LoginDeps {
	deps := flows.LoginDeps{
		PasswordUpgradeOnLogin: e.config.Password.UpgradeOnLogin,
		ClientIPFromContext:    clientIPFromContext,

		FindAccount: func(ctx context.Context, identifier string) (flows.LoginAccount, error) {
			account, err := e.credentials.FindByIdentifier(ctx, identifier)
			if err != nil {
				return flows.LoginAccount{}, err
			}
			return flows.LoginAccount{
				PrincipalID:  account.PrincipalID,
				Identifier:   account.Identifier,
				PasswordHash: account.PasswordHash,
			}, nil
		},
		VerifyPassword:       e.passwords.Verify,
		PasswordNeedsUpgrade: e.passwords.NeedsUpgrade,
		HashPassword:         e.passwords.Hash,
		DecoyHash:            e.decoyHash,

		Access:  e.access,
		Refresh: e.refresh,

		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: func(ctx context.Context, event string, success bool, principalID string, err error, metadata func() map[string]string) {
			if errors.Is(err, ErrStoreUnavailable) {
				e.metricInc(MetricStoreError)
			}
			e.emitAudit(ctx, event, success, principalID, err, metadata)
		},
		Warn: e.logger.Sugar().Warnw,

		Metrics: flows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginRateLimited: int(MetricLoginRateLimited),
			PasswordUpgraded: int(MetricPasswordUpgraded),
		},
		Events: flows.LoginEvents{
			LoginSuccess: auditEventLoginSuccess,
			LoginFailure: auditEventLoginFailure,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			LoginRateLimited:   ErrLoginRateLimited,
			StoreUnavailable:   ErrStoreUnavailable,
			AccountNotFound:    ErrAccountNotFound,
		},
	}

	if updater, ok := e.credentials.(PasswordUpdater); ok {
		deps.UpdatePasswordHash = updater.UpdatePasswordHash
	}
	if e.limiter != nil {
		deps.CheckLoginRate = e.limiter.CheckLogin
		deps.IncrementLoginRate = e.limiter.IncrementLogin
		deps.ResetLoginRate = e.limiter.ResetLogin
	}

	return deps
}
