package flows

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/userauth/user"
)

// Hasher is the context-aware password surface used by flows.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
	VerifyDummy(ctx context.Context, plaintext string) error
	NeedsRehash(hash string) bool
}

// Pair is a freshly issued session pair.
type Pair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// PairIssuer signs a session pair for the current state of a record.
type PairIssuer func(user.Record) (Pair, error)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Register RegisterDeps
	Login    LoginDeps
	Refresh  RefreshDeps
	Profile  ProfileDeps
}

// NormalizeEmail is the canonical email form used for every store call.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func warnOrDiscard(warn func(string, ...any)) func(string, ...any) {
	if warn == nil {
		return func(string, ...any) {}
	}
	return warn
}

func clientIP(ctx context.Context, fn func(context.Context) string) string {
	if fn == nil {
		return ""
	}
	return fn(ctx)
}
