// Package rate provides the Redis-backed throttles guarding login, refresh and
// registration.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - ual:   — failed logins per email
//   - uali:  — failed logins per client IP
//   - uar:   — refreshes per user
//   - uareg: — registrations per client IP
//
// # What this package must NOT do
//
//   - Decide what an attempt is. Callers choose when to check, increment
//     and reset.
//   - Fail open silently. Redis errors are returned wrapped in
//     [ErrRedisUnavailable] and the caller decides.
package rate
