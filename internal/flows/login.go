package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/userauth/user"
)

// LoginFailureKind classifies login flow failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureInvalid
	LoginFailureRateLimited
	LoginFailureCredentials
	LoginFailureLookup
	LoginFailureVerify
	LoginFailureIssue
)

// LoginResult carries either the authenticated record and its session pair
// or failure metadata. Reason distinguishes credential failures for audit
// only; callers must not surface it.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	Reason  string
	Email   string
	Record  user.Record
	Pair    Pair
	// Rehashed reports that the stored hash was upgraded to the current cost.
	Rehashed bool
}

// LoginLimiter throttles failed logins per email and client IP.
type LoginLimiter interface {
	CheckLogin(ctx context.Context, email, ip string) error
	IncrementLogin(ctx context.Context, email, ip string) error
	ResetLogin(ctx context.Context, email, ip string) error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	PasswordUpgradeOnLogin bool
	ClientIPFromContext    func(context.Context) string
	Warn                   func(string, ...any)

	Limiter   LoginLimiter
	Users     user.Store
	Hasher    Hasher
	IssuePair PairIssuer
}

// RunLogin verifies credentials and issues a fresh session pair. Unknown
// email and wrong password yield the same failure kind and spend the same
// hashing work.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	warn := warnOrDiscard(deps.Warn)
	res := LoginResult{Email: NormalizeEmail(email)}
	fail := func(kind LoginFailureKind, reason string, err error) LoginResult {
		res.Failure = kind
		res.Reason = reason
		res.Err = err
		return res
	}

	if res.Email == "" || password == "" {
		return fail(LoginFailureInvalid, "email and password are required", nil)
	}

	ip := clientIP(ctx, deps.ClientIPFromContext)
	if deps.Limiter != nil {
		if err := deps.Limiter.CheckLogin(ctx, res.Email, ip); err != nil {
			return fail(LoginFailureRateLimited, "login_rate_limited", err)
		}
	}

	// credentialFailure counts the attempt and reports the single externally
	// visible credential failure.
	credentialFailure := func(reason string) LoginResult {
		if deps.Limiter != nil {
			if err := deps.Limiter.IncrementLogin(ctx, res.Email, ip); err != nil {
				return fail(LoginFailureRateLimited, "login_rate_limited", err)
			}
		}
		return fail(LoginFailureCredentials, reason, nil)
	}

	rec, err := deps.Users.FindByEmail(ctx, res.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return fail(LoginFailureLookup, "lookup_failed", err)
		}
		if err := deps.Hasher.VerifyDummy(ctx, password); err != nil {
			return fail(LoginFailureVerify, "verify_failed", err)
		}
		return credentialFailure("user_not_found")
	}
	res.Record = rec

	ok, err := deps.Hasher.Verify(ctx, password, rec.PasswordHash)
	if err != nil {
		return fail(LoginFailureVerify, "verify_failed", err)
	}
	if !ok {
		return credentialFailure("password_mismatch")
	}

	if deps.Limiter != nil {
		if err := deps.Limiter.ResetLogin(ctx, res.Email, ip); err != nil {
			warn("userauth: login limiter reset failed", "error", err)
		}
	}

	if deps.PasswordUpgradeOnLogin && deps.Hasher.NeedsRehash(rec.PasswordHash) {
		if upgraded, err := deps.Hasher.Hash(ctx, password); err == nil {
			updated, err := deps.Users.Update(ctx, rec.ID, user.Patch{PasswordHash: &upgraded})
			if err != nil {
				warn("userauth: password hash upgrade update failed", "error", err)
			} else {
				res.Record = updated
				res.Rehashed = true
			}
		} else {
			warn("userauth: password hash upgrade generation failed", "error", err)
		}
	}

	pair, err := deps.IssuePair(res.Record)
	if err != nil {
		return fail(LoginFailureIssue, "issue_failed", err)
	}
	res.Pair = pair
	return res
}
