// Package revocation stores the raw strings of tokens that must no longer be
// honored before their natural expiry.
//
// # Entries
//
// An entry is keyed by a fixed prefix (default "blacklist:") followed by the
// exact token string the client presented, and carries the value "true". Its
// TTL equals the token's remaining lifetime at the moment of revocation, so an
// entry never outlives the token it blocks and no explicit deletion exists.
//
// # Architecture boundaries
//
// This package does not decode tokens. Callers compute the remaining lifetime
// (see [RemainingTTL]) and hand it to [Store.Revoke].
//
// # What this package must NOT do
//
//   - Import reelauth or jwt (no upward imports).
//   - Retry failed Redis commands; the client owns retries and timeouts.
package revocation
