// Package internal holds implementation packages private to userauth.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators behind each Engine operation
//   - rate: Redis fixed-window counters for login, refresh and registration
//   - settings: file and environment configuration for cmd/userauthd
package internal
