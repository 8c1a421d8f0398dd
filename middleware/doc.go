// Package middleware adapts access-token validation and role checks to
// net/http handlers.
//
// # Guards
//
//   - [Authenticate] verifies the caller's access token and stores the
//     resulting [userauth.Identity] in the request context.
//   - [RequireRoles] additionally rejects identities whose role is outside
//     the allowed set.
//
// The token is read from the Authorization header ("Bearer <token>") when
// present, otherwise from the accessToken cookie.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does not parse
// tokens or compare roles itself; every decision is delegated to
// Engine.ValidateAccess and Engine.Authorize.
package middleware
