package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/userauth/user"
)

// ProfileFailureKind classifies profile update failures for root-level mapping.
type ProfileFailureKind int

const (
	ProfileFailureNone ProfileFailureKind = iota
	ProfileFailureUserNotFound
	ProfileFailureLookup
	ProfileFailureCurrentPassword
	ProfileFailurePasswordPolicy
	ProfileFailureVerify
	ProfileFailureHash
	ProfileFailureUpdate
)

// ProfileRequest lists requested changes. Empty strings and nil mean "not
// supplied", except Image where a non-nil empty string clears the image.
type ProfileRequest struct {
	Name            string
	CurrentPassword string
	NewPassword     string
	Image           *string
}

// ProfileResult carries the resulting record or failure metadata.
type ProfileResult struct {
	Failure         ProfileFailureKind
	Err             error
	Record          user.Record
	Changed         bool
	PasswordChanged bool
}

// ProfileDeps captures profile update dependencies.
type ProfileDeps struct {
	IsPasswordPolicy func(error) bool

	Users  user.Store
	Hasher Hasher
}

// RunUpdateProfile applies the effective subset of req. A request that
// changes nothing performs no write and returns the current record.
func RunUpdateProfile(ctx context.Context, userID string, req ProfileRequest, deps ProfileDeps) ProfileResult {
	rec, err := deps.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ProfileResult{Failure: ProfileFailureUserNotFound, Err: err}
		}
		return ProfileResult{Failure: ProfileFailureLookup, Err: err}
	}

	var patch user.Patch

	if name := strings.TrimSpace(req.Name); name != "" && name != rec.Name {
		patch.Name = &name
	}

	// Only the paired case changes the password.
	if req.CurrentPassword != "" && req.NewPassword != "" {
		ok, err := deps.Hasher.Verify(ctx, req.CurrentPassword, rec.PasswordHash)
		if err != nil {
			return ProfileResult{Failure: ProfileFailureVerify, Err: err, Record: rec}
		}
		if !ok {
			return ProfileResult{Failure: ProfileFailureCurrentPassword, Record: rec}
		}
		hash, err := deps.Hasher.Hash(ctx, req.NewPassword)
		if err != nil {
			if deps.IsPasswordPolicy != nil && deps.IsPasswordPolicy(err) {
				return ProfileResult{Failure: ProfileFailurePasswordPolicy, Err: err, Record: rec}
			}
			return ProfileResult{Failure: ProfileFailureHash, Err: err, Record: rec}
		}
		patch.PasswordHash = &hash
	}

	if req.Image != nil && !sameImage(rec.Image, *req.Image) {
		image := *req.Image
		patch.Image = &image
	}

	if patch.Empty() {
		return ProfileResult{Record: rec}
	}

	updated, err := deps.Users.Update(ctx, rec.ID, patch)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ProfileResult{Failure: ProfileFailureUserNotFound, Err: err}
		}
		return ProfileResult{Failure: ProfileFailureUpdate, Err: err, Record: rec}
	}

	return ProfileResult{
		Record:          updated,
		Changed:         true,
		PasswordChanged: patch.PasswordHash != nil,
	}
}

func sameImage(current *string, next string) bool {
	if current == nil {
		return next == ""
	}
	return *current == next
}
