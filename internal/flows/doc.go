// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunValidate, RunRefresh, RunLogout) accepts a
// typed dependency struct and returns results without side-effects beyond
// those dependencies. Refresh, logout and validate return a classified
// failure kind that the root package maps onto its public sentinel errors.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the token managers, the revocation
// store, the credential lookup, the login limiter, audit and metrics. They do
// NOT own any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import reelauth (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency interfaces.
package flows
