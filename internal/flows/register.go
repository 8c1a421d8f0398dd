package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/userauth/role"
	"github.com/MrEthical07/userauth/user"
)

// RegisterFailureKind classifies register flow failures for root-level mapping.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureInvalid
	RegisterFailureRoleNotAllowed
	RegisterFailurePasswordPolicy
	RegisterFailureRateLimited
	RegisterFailureDuplicate
	RegisterFailureLookup
	RegisterFailureHash
	RegisterFailureCreate
	RegisterFailureIssue
)

// RegisterRequest is the flow-local registration input. Role is untrusted
// text; empty selects the default role.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// RegisterResult carries either the created record and its session pair or
// failure metadata.
type RegisterResult struct {
	Failure RegisterFailureKind
	Err     error
	Reason  string
	Email   string
	Record  user.Record
	Pair    Pair
}

// RegisterLimiter throttles registrations per client IP.
type RegisterLimiter interface {
	CheckRegister(ctx context.Context, ip string) error
}

// RegisterDeps captures register flow dependencies.
type RegisterDeps struct {
	DefaultRole         role.Role
	AllowedRoles        role.Set
	ClientIPFromContext func(context.Context) string
	IsPasswordPolicy    func(error) bool

	Limiter   RegisterLimiter
	Users     user.Store
	Hasher    Hasher
	IssuePair PairIssuer
}

// RunRegister validates input, creates the record and issues its first
// session pair.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) RegisterResult {
	res := RegisterResult{Email: NormalizeEmail(req.Email)}
	fail := func(kind RegisterFailureKind, reason string, err error) RegisterResult {
		res.Failure = kind
		res.Reason = reason
		res.Err = err
		return res
	}

	name := strings.TrimSpace(req.Name)
	switch {
	case res.Email == "":
		return fail(RegisterFailureInvalid, "email is required", nil)
	case req.Password == "":
		return fail(RegisterFailureInvalid, "password is required", nil)
	case name == "":
		return fail(RegisterFailureInvalid, "name is required", nil)
	}

	r := deps.DefaultRole
	if strings.TrimSpace(req.Role) != "" {
		parsed, err := role.Parse(req.Role)
		if err != nil {
			return fail(RegisterFailureInvalid, "role is invalid", err)
		}
		r = parsed
	}
	if !deps.AllowedRoles.Has(r) {
		return fail(RegisterFailureRoleNotAllowed, "role is not allowed", nil)
	}

	if deps.Limiter != nil {
		if err := deps.Limiter.CheckRegister(ctx, clientIP(ctx, deps.ClientIPFromContext)); err != nil {
			return fail(RegisterFailureRateLimited, "register_rate_limited", err)
		}
	}

	if _, err := deps.Users.FindByEmail(ctx, res.Email); err == nil {
		return fail(RegisterFailureDuplicate, "email_exists", nil)
	} else if !errors.Is(err, user.ErrNotFound) {
		return fail(RegisterFailureLookup, "lookup_failed", err)
	}

	hash, err := deps.Hasher.Hash(ctx, req.Password)
	if err != nil {
		if deps.IsPasswordPolicy != nil && deps.IsPasswordPolicy(err) {
			return fail(RegisterFailurePasswordPolicy, err.Error(), err)
		}
		return fail(RegisterFailureHash, "hash_failed", err)
	}

	rec, err := deps.Users.Create(ctx, user.CreateInput{
		Email:        res.Email,
		PasswordHash: hash,
		Name:         name,
		Role:         r,
	})
	if err != nil {
		if errors.Is(err, user.ErrConflict) {
			return fail(RegisterFailureDuplicate, "create_conflict", err)
		}
		return fail(RegisterFailureCreate, "create_failed", err)
	}
	res.Record = rec

	pair, err := deps.IssuePair(rec)
	if err != nil {
		return fail(RegisterFailureIssue, "issue_failed", err)
	}
	res.Pair = pair
	return res
}
