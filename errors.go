package reelauth

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an empty identifier or password, an unknown identifier, or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrLoginRateLimited is returned by Login when the throttle budget for the identifier or IP is spent.
	ErrLoginRateLimited = errors.New("too many login attempts")

	// ErrMissingRefreshToken is returned by Refresh when no refresh token is presented.
	ErrMissingRefreshToken = errors.New("refresh token is required")
	// ErrRefreshRevoked is returned by Refresh when the refresh token has been blacklisted.
	ErrRefreshRevoked = errors.New("refresh token has been invalidated")
	// ErrRefreshInvalid is returned when a refresh token is malformed, expired or fails signature verification.
	ErrRefreshInvalid = errors.New("invalid or expired refresh token")

	// ErrMissingAccessToken is returned by Validate when no access token is presented.
	ErrMissingAccessToken = errors.New("access token is required")
	// ErrTokenMalformed is returned by Validate for a token that cannot be decoded.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenExpired is returned by Validate for a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned by Validate for a token whose signature or claims do not verify.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked is returned by Validate for a token present in the revocation store.
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrMissingToken is returned by Logout when either token is absent.
	ErrMissingToken = errors.New("refresh and access tokens are required")
	// ErrAlreadyLoggedOut is returned by Logout when the refresh token is already blacklisted.
	ErrAlreadyLoggedOut = errors.New("user is already logged out or token is invalidated")

	// ErrStoreUnavailable wraps failures of the revocation or credential store.
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrEngineNotReady is returned by Engine methods on a zero or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrAccountNotFound is returned by CredentialStore implementations for an unknown identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is returned by Register and AccountCreator implementations for a taken identifier.
	ErrAccountExists = errors.New("account already exists")
	// ErrRegistrationInvalid is returned by Register for an empty identifier or password.
	ErrRegistrationInvalid = errors.New("identifier and password are required")
	// ErrRegistrationUnsupported is returned by Register when the credential store cannot create accounts.
	ErrRegistrationUnsupported = errors.New("credential store does not support registration")
)
