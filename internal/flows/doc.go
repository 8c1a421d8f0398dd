// Package flows contains pure-function orchestrators for every session
// operation the Engine exposes.
//
// Each flow function (RunRegister, RunLogin, RunRefresh, RunUpdateProfile)
// accepts a typed dependency struct and returns a result carrying either the
// outcome or a failure kind. The Engine maps failure kinds to public sentinel
// errors, audit events and metrics.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the user store, password hasher, token
// issuer and rate limiter. They do NOT own any of these resources; ownership
// stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import userauth (to avoid import cycles).
//   - Return raw store or hasher errors as user-facing outcomes. Raw errors
//     travel in Result.Err for logging only.
package flows
