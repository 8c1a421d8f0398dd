// Package password implements salted one-way password hashing with bcrypt and
// fail-closed verification.
//
// # Output format
//
// Hashes are standard modular-crypt bcrypt strings:
//
//	$2a$<cost>$<22-char salt><31-char hash>
//
// The default cost is [DefaultCost] (10). [Bcrypt.NeedsRehash] reports hashes
// produced with a lower cost so the caller can upgrade them after a successful
// login.
//
// # Concurrency
//
// Hashing is intentionally slow. [Pool] bounds the number of concurrent hash
// operations so a burst of logins cannot starve unrelated request handling;
// callers wait on a semaphore that honours context cancellation.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Distinguish "wrong password" from "corrupt stored hash" to callers.
//   - Import any other userauth package.
package password
