package reelauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/reelauth/password"
	"go.uber.org/zap"
)

// Register hashes password and creates an account for identifier. The
// returned Account carries no password hash.
//
// It returns [ErrRegistrationInvalid] for an empty identifier or password or
// one the hasher refuses, [ErrAccountExists] for a taken identifier,
// [ErrRegistrationUnsupported] when the credential store does not implement
// [AccountCreator], and an error wrapping [ErrStoreUnavailable] when the
// store fails.
func (e *Engine) Register(ctx context.Context, identifier, plain string) (*Account, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	account, err := e.register(ctx, identifier, plain)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		if errors.Is(err, ErrStoreUnavailable) {
			e.metricInc(MetricStoreError)
			e.logger.Warn("register: credential store failed", zap.Error(err))
		}
		e.emitAudit(ctx, auditEventRegisterFail, false, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegister, true, account.PrincipalID, nil, nil)
	return &Account{PrincipalID: account.PrincipalID, Identifier: account.Identifier}, nil
}

func (e *Engine) register(ctx context.Context, identifier, plain string) (Account, error) {
	creator, ok := e.credentials.(AccountCreator)
	if !ok {
		return Account{}, ErrRegistrationUnsupported
	}

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || plain == "" {
		return Account{}, ErrRegistrationInvalid
	}

	hash, err := e.passwords.Hash(plain)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) || errors.Is(err, password.ErrEmptyPassword) {
			return Account{}, fmt.Errorf("%w: %v", ErrRegistrationInvalid, err)
		}
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	account, err := creator.Create(ctx, identifier, hash)
	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, ErrAccountExists):
		return Account{}, ErrAccountExists
	default:
		return Account{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
