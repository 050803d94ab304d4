// Package rate provides Redis-backed fixed-window counters that throttle
// repeated failed logins.
//
// # Window semantics
//
// INCR + EXPIRE on the first hit of a window. Key prefixes:
//   - rl:login:    per identifier
//   - rl:login-ip: per client IP (optional)
//
// # What this package must NOT do
//
//   - Decide what counts as a failure; the login flow reports failures.
//   - Be imported outside the reelauth module.
package rate
