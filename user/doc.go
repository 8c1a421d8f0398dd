// Package user defines the account record, its sanitized wire view, and the
// credential store contract implemented by the store packages.
//
// # Architecture boundaries
//
// The password hash lives only on [Record]. Anything that leaves the service
// is a [View], built through [Record.View].
//
// # What this package must NOT do
//
//   - Perform I/O. Implementations live under store/.
//   - Import the root userauth package.
package user
