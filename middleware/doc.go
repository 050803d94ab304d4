// Package middleware exposes the bearer-token guard that protects HTTP routes
// with reelauth.Engine access-token validation.
//
// # Guards
//
//   - [RequireAccess]: reads the Authorization header, calls Engine.Validate
//     and injects the [reelauth.AuthResult] into the request context.
//
// Failures are answered with a JSON {"message": ...} body: 401 for a missing,
// malformed, expired or invalid token, 403 for a revoked token and 500 when
// the revocation store is unavailable.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.Validate.
package middleware
