// Package reelauth provides the authentication and session-revocation core of
// the movie-review API: short-lived access tokens, long-lived refresh tokens,
// and a Redis blacklist that makes logout and access-token rotation effective
// despite stateless self-verifying tokens.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// reelauth is the public surface. It exposes [Engine], [Builder], [Config], the
// sentinel errors, and value types ([TokenPair], [AuthResult], [MetricsSnapshot]).
// Flow orchestration and login throttling live under internal/ and are never
// exported. Token signing lives in jwt, the blacklist in revocation, hashing in
// password.
//
// # What this package must NOT do
//
//   - Open or close Redis or database connections; clients are injected through [Builder].
//   - Write HTTP responses (see package httpapi and package middleware).
//   - Import any sub-package that re-imports reelauth (no import cycles).
//
// # Performance contract
//
// Validate is the hot path. Malformed, expired and forged tokens are rejected
// without touching Redis; a well-formed token costs exactly one GET. Refresh
// and Logout cost at most one GET and two SETs.
package reelauth
