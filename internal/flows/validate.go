package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/reelauth/jwt"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureMalformed
	ValidateFailureExpired
	ValidateFailureInvalid
	ValidateFailureRevoked
	ValidateFailureStore
)

// ValidateResult returns either verified claims or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.Claims
}

// ValidateDeps captures access-token validation dependencies.
type ValidateDeps struct {
	Access      TokenVerifier
	Revocations RevocationStore
}

// RunValidate verifies an access token and then checks the blacklist.
//
// The revocation store is consulted only after every cryptographic and time
// check has passed.
func RunValidate(ctx context.Context, tokenStr string, deps ValidateDeps) ValidateResult {
	if tokenStr == "" {
		return ValidateResult{Failure: ValidateFailureMissing}
	}

	claims, err := deps.Access.Parse(tokenStr)
	if err != nil {
		return ValidateResult{Failure: parseFailureKind(err), Err: err}
	}

	revoked, err := deps.Revocations.IsRevoked(ctx, tokenStr)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureStore, Err: err}
	}
	if revoked {
		return ValidateResult{Failure: ValidateFailureRevoked}
	}

	return ValidateResult{Claims: claims}
}

func parseFailureKind(err error) ValidateFailureKind {
	switch {
	case errors.Is(err, jwt.ErrMalformed):
		return ValidateFailureMalformed
	case errors.Is(err, jwt.ErrExpired):
		return ValidateFailureExpired
	default:
		return ValidateFailureInvalid
	}
}
