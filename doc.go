// Package userauth is the session and credential core of the user service:
// registration, password login, stateless token refresh, profile reads and
// writes, and role-gated access checks.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// userauth is the public surface. It exposes [Engine], [Builder], [Config]
// and the value types [Session], [Identity], [RegisterRequest] and
// [ProfileUpdate]. Flow orchestration, rate limiting and audit dispatch live
// under internal/. Tokens are produced by package jwt, passwords by package
// password, and records are persisted through any [user.Store].
//
// # Error contract
//
// Every error returned by an Engine method matches one of the sentinels in
// this package under errors.Is. Store, hashing and signing failures are
// logged and reported as [ErrUnavailable]; raw backend errors never reach
// callers.
//
// # Accepted limitations
//
// There is no server-side session state. A logged-out client's retained
// access token stays valid until it expires, and a refresh token may be used
// any number of times before its expiry.
package userauth
