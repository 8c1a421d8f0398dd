package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/userauth/user"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureDecode
	RefreshFailureRateLimited
	RefreshFailureUserNotFound
	RefreshFailureLookup
	RefreshFailureIssue
)

// RefreshResult carries either the re-read record and its new session pair or
// failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	UserID  string
	Record  user.Record
	Pair    Pair
}

// RefreshRateLimiter throttles refreshes per user.
type RefreshRateLimiter interface {
	CheckRefresh(ctx context.Context, userID string) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	// DecodeRefreshToken verifies a refresh token and returns its user id.
	DecodeRefreshToken func(string) (string, error)

	RateLimiter RefreshRateLimiter
	Users       user.Store
	IssuePair   PairIssuer
}

// RunRefresh verifies the presented refresh token, re-reads the current user
// record and issues a wholly new pair. The presented token is not consumed.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{Failure: RefreshFailureMissing}
	}

	userID, err := deps.DecodeRefreshToken(refreshToken)
	if err != nil {
		return RefreshResult{
			Failure: RefreshFailureDecode,
			Err:     err,
		}
	}

	if deps.RateLimiter != nil {
		if err := deps.RateLimiter.CheckRefresh(ctx, userID); err != nil {
			return RefreshResult{
				Failure: RefreshFailureRateLimited,
				Err:     err,
				UserID:  userID,
			}
		}
	}

	rec, err := deps.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return RefreshResult{
				Failure: RefreshFailureUserNotFound,
				Err:     err,
				UserID:  userID,
			}
		}
		return RefreshResult{
			Failure: RefreshFailureLookup,
			Err:     err,
			UserID:  userID,
		}
	}

	pair, err := deps.IssuePair(rec)
	if err != nil {
		return RefreshResult{
			Failure: RefreshFailureIssue,
			Err:     err,
			UserID:  userID,
			Record:  rec,
		}
	}

	return RefreshResult{
		Failure: RefreshFailureNone,
		UserID:  userID,
		Record:  rec,
		Pair:    pair,
	}
}
