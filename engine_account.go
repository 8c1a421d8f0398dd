package userauth

import (
	"context"
	"errors"

	"github.com/MrEthical07/userauth/internal/flows"
	"github.com/MrEthical07/userauth/role"
	"github.com/MrEthical07/userauth/user"
)

// GetByID returns the sanitized view of one account.
func (e *Engine) GetByID(ctx context.Context, id string) (user.View, error) {
	if e == nil {
		return user.View{}, ErrEngineNotReady
	}
	if id == "" {
		return user.View{}, ErrUserNotFound
	}

	rec, err := e.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.View{}, ErrUserNotFound
		}
		return user.View{}, e.unavailable("get_by_id", "lookup_failed", err)
	}
	return rec.View(), nil
}

// ListDoctors returns every account with the DOCTOR role. The result is
// never nil.
func (e *Engine) ListDoctors(ctx context.Context) ([]user.View, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	records, err := e.users.ListByRole(ctx, role.Doctor)
	if err != nil {
		return nil, e.unavailable("list_doctors", "list_failed", err)
	}
	return user.Views(records), nil
}

// UpdateProfile applies the effective subset of upd to account id.
//
// A password change requires both CurrentPassword and NewPassword; a wrong
// current password yields ErrInvalidCredentials and nothing is written. A
// request that changes nothing performs no write and returns the current
// view.
func (e *Engine) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (user.View, error) {
	if e == nil {
		return user.View{}, ErrEngineNotReady
	}
	if id == "" {
		return user.View{}, ErrUserNotFound
	}

	res := flows.RunUpdateProfile(ctx, id, flows.ProfileRequest{
		Name:            upd.Name,
		CurrentPassword: upd.CurrentPassword,
		NewPassword:     upd.NewPassword,
		Image:           upd.Image,
	}, e.flowDeps.Profile)

	switch res.Failure {
	case flows.ProfileFailureNone:
		if res.PasswordChanged {
			e.metricInc(MetricPasswordChangeSuccess)
			e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, id, nil, nil)
		}
		if res.Changed {
			e.metricInc(MetricProfileUpdate)
			e.emitAudit(ctx, auditEventProfileUpdate, true, id, nil, nil)
		}
		return res.Record.View(), nil
	case flows.ProfileFailureUserNotFound:
		return user.View{}, ErrUserNotFound
	case flows.ProfileFailureCurrentPassword:
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, id, ErrInvalidCredentials, nil)
		return user.View{}, ErrInvalidCredentials
	case flows.ProfileFailurePasswordPolicy:
		return user.View{}, validationError(res.Err.Error())
	default:
		return user.View{}, e.unavailable("update_profile", profileReason(res.Failure), res.Err)
	}
}

func profileReason(kind flows.ProfileFailureKind) string {
	switch kind {
	case flows.ProfileFailureLookup:
		return "lookup_failed"
	case flows.ProfileFailureVerify:
		return "verify_failed"
	case flows.ProfileFailureHash:
		return "hash_failed"
	case flows.ProfileFailureUpdate:
		return "update_failed"
	default:
		return "internal"
	}
}
