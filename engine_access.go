package userauth

import (
	"context"
	"time"

	"github.com/MrEthical07/userauth/role"
)

// ValidateAccess verifies an access token and returns the identity it
// proves. It never touches the user store, so a deleted or demoted account
// keeps its old identity until the token expires.
//
// An empty token yields ErrMissingToken. Every other failure, including an
// expired token, yields ErrUnauthorized.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if token == "" {
		e.metricInc(MetricValidateFailure)
		return nil, ErrMissingToken
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	claims, err := e.codec.VerifyAccess(token)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}
	if err != nil {
		e.metricInc(MetricValidateFailure)
		return nil, ErrUnauthorized
	}

	e.metricInc(MetricValidateSuccess)
	return &Identity{
		UserID: claims.UID,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}

// Authorize reports ErrForbidden unless the identity's role is in allowed.
// A nil identity yields ErrUnauthorized.
func (e *Engine) Authorize(ctx context.Context, id *Identity, allowed role.Set) error {
	if id == nil {
		return ErrUnauthorized
	}
	if allowed.Has(id.Role) {
		return nil
	}

	e.metricInc(MetricAuthorizeDenied)
	e.emitAudit(ctx, auditEventAccessDenied, false, id.UserID, ErrForbidden, func() map[string]string {
		return map[string]string{
			"role":    id.Role.String(),
			"allowed": allowed.String(),
		}
	})
	return ErrForbidden
}
