// Package jwt issues and verifies the signed access and refresh tokens that
// make up a session pair.
//
// A [Codec] owns two independent signing contexts. Access tokens are short
// lived and carry the identity snapshot (uid, email, name, role); refresh
// tokens are long lived and carry only the uid. The contexts must never share
// key material, so a token minted in one context cannot verify in the other.
// Each token additionally carries a typ claim and a random jti, which makes
// two pairs issued within the same second distinct.
//
// Verification is strict: the algorithm is pinned per context, exp is
// mandatory and a token is expired once now >= exp (plus the optional
// leeway). All verification failures wrap [ErrInvalidToken]; callers cannot
// and should not distinguish an expired token from a forged one.
//
// There is no revocation list. A token stays valid until exp, including a
// refresh token that has already been exchanged.
package jwt
