// Package jwt issues and verifies the HS256 tokens that carry a principal id.
//
// One [Manager] exists per token type: access tokens and refresh tokens are
// signed with different secrets so that compromise of one secret cannot forge
// the other token type.
//
// # Verified and unverified paths
//
// [Manager.Parse] is the only path that establishes trust in a token. It
// classifies failures into [ErrMalformed], [ErrExpired] and [ErrInvalid].
//
// [Manager.DecodeUnverified] reads claims without checking the signature or
// expiry. It exists solely so callers can compute how long a token that is
// about to be revoked would otherwise stay valid. Nothing returned by it may
// be used for an authorization decision.
//
// # What this package must NOT do
//
//   - Talk to the revocation store (revocation is layered on by the Engine).
//   - Import reelauth or any store package.
package jwt
