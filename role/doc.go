// Package role defines the closed set of account roles and the bitmask set type
// used for role-gated authorization.
//
// # Roles
//
// The set is closed: [Patient], [Doctor], and [Admin]. The zero Role is not a
// valid role and marks "unset" in requests. Adding a role means adding a
// constant and extending the exhaustive switches in this package; nothing
// outside this package compares role strings.
//
// # What this package must NOT do
//
//   - Implement hierarchies or rule evaluation. Membership is the only check.
//   - Import any other userauth package.
package role
