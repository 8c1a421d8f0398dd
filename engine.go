package userauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/userauth/internal/audit"
	"github.com/MrEthical07/userauth/internal/flows"
	"github.com/MrEthical07/userauth/internal/rate"
	"github.com/MrEthical07/userauth/jwt"
	"github.com/MrEthical07/userauth/password"
	"github.com/MrEthical07/userauth/user"
	"github.com/sirupsen/logrus"
)

// Engine runs the account and session lifecycle: registration, login,
// refresh, profile reads and writes, and access-token validation.
//
// An Engine is immutable after [Builder.Build] and safe for concurrent use.
// Errors returned by its methods are always one of the sentinels in
// errors.go, optionally wrapped with a detail message.
type Engine struct {
	config      Config
	users       user.Store
	hasher      *password.Pool
	codec       *jwt.Codec
	rateLimiter *rate.Limiter
	audit       *audit.Dispatcher
	metrics     *Metrics
	logger      logrus.FieldLogger
	now         func() time.Time
	flowDeps    flows.Deps
}

// Close drains pending audit events. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) buildFlowDeps() flows.Deps {
	isPolicy := func(err error) bool {
		return errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong)
	}

	deps := flows.Deps{
		Register: flows.RegisterDeps{
			DefaultRole:         e.config.Account.DefaultRole,
			AllowedRoles:        e.config.Account.SelfRegisterRoles,
			ClientIPFromContext: clientIPFromContext,
			IsPasswordPolicy:    isPolicy,
			Users:               e.users,
			Hasher:              e.hasher,
			IssuePair:           e.issuePair,
		},
		Login: flows.LoginDeps{
			PasswordUpgradeOnLogin: e.config.Password.UpgradeOnLogin,
			ClientIPFromContext:    clientIPFromContext,
			Warn:                   e.warn,
			Users:                  e.users,
			Hasher:                 e.hasher,
			IssuePair:              e.issuePair,
		},
		Refresh: flows.RefreshDeps{
			DecodeRefreshToken: e.decodeRefreshToken,
			Users:              e.users,
			IssuePair:          e.issuePair,
		},
		Profile: flows.ProfileDeps{
			IsPasswordPolicy: isPolicy,
			Users:            e.users,
			Hasher:           e.hasher,
		},
	}

	// Only assign a non-nil limiter; a typed nil would satisfy the interface.
	if e.rateLimiter != nil {
		deps.Register.Limiter = e.rateLimiter
		deps.Login.Limiter = e.rateLimiter
		deps.Refresh.RateLimiter = e.rateLimiter
	}

	return deps
}

func (e *Engine) issuePair(rec user.Record) (flows.Pair, error) {
	access, err := e.codec.IssueAccess(jwt.AccessPayload{
		UserID: rec.ID,
		Email:  rec.Email,
		Name:   rec.Name,
		Role:   rec.Role,
	})
	if err != nil {
		return flows.Pair{}, err
	}

	refresh, err := e.codec.IssueRefresh(jwt.RefreshPayload{UserID: rec.ID})
	if err != nil {
		return flows.Pair{}, err
	}

	return flows.Pair{
		AccessToken:      access.Value,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshToken:     refresh.Value,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (e *Engine) decodeRefreshToken(token string) (string, error) {
	claims, err := e.codec.VerifyRefresh(token)
	if err != nil {
		return "", err
	}
	return claims.UID, nil
}

func newSession(rec user.Record, pair flows.Pair) *Session {
	return &Session{
		User:             rec.View(),
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

// unavailable logs a backend failure and returns the opaque sentinel.
func (e *Engine) unavailable(op, reason string, err error) error {
	e.metricInc(MetricBackendError)
	e.logger.WithFields(logrus.Fields{
		"op":     op,
		"reason": reason,
	}).WithError(err).Error("userauth: backend failure")
	return ErrUnavailable
}

// warn adapts key/value pairs from the flows into logrus fields.
func (e *Engine) warn(msg string, kv ...any) {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields[key] = kv[i+1]
	}
	e.logger.WithFields(fields).Warn(msg)
}

func validationError(reason string) error {
	if reason == "" {
		return ErrValidation
	}
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

// Register creates an account and issues its first session.
//
// Missing fields, an unknown role or a role outside
// Config.Account.SelfRegisterRoles yield ErrValidation. An email already in
// use yields ErrDuplicateEmail, including when a concurrent registration wins
// the store's uniqueness check.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunRegister(ctx, flows.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	}, e.flowDeps.Register)

	switch res.Failure {
	case flows.RegisterFailureNone:
		e.metricInc(MetricRegisterSuccess)
		e.emitAudit(ctx, auditEventRegisterSuccess, true, res.Record.ID, nil, func() map[string]string {
			return map[string]string{
				"role": res.Record.Role.String(),
			}
		})
		return newSession(res.Record, res.Pair), nil
	case flows.RegisterFailureInvalid, flows.RegisterFailureRoleNotAllowed, flows.RegisterFailurePasswordPolicy:
		err := validationError(res.Reason)
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"reason": res.Reason,
			}
		})
		return nil, err
	case flows.RegisterFailureRateLimited:
		if !errors.Is(res.Err, rate.ErrRateLimited) {
			return nil, e.unavailable("register", res.Reason, res.Err)
		}
		e.metricInc(MetricRegisterRateLimited)
		e.emitAudit(ctx, auditEventRegisterRateLimited, false, "", ErrRegisterRateLimited, nil)
		e.emitRateLimit(ctx, "register", nil)
		return nil, ErrRegisterRateLimited
	case flows.RegisterFailureDuplicate:
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", ErrDuplicateEmail, func() map[string]string {
			return map[string]string{
				"reason": res.Reason,
			}
		})
		return nil, ErrDuplicateEmail
	default:
		e.metricInc(MetricRegisterFailure)
		err := e.unavailable("register", res.Reason, res.Err)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{
				"reason": res.Reason,
			}
		})
		return nil, err
	}
}

// Login verifies credentials and issues a new session.
//
// Unknown email and wrong password both yield ErrInvalidCredentials and cost
// the same hashing work. When the engine has a Redis client, exhausting the
// failed-login budget yields ErrLoginRateLimited until the window expires.
func (e *Engine) Login(ctx context.Context, email, password string) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunLogin(ctx, email, password, e.flowDeps.Login)

	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		if res.Rehashed {
			e.metricInc(MetricPasswordRehash)
		}
		e.emitAudit(ctx, auditEventLoginSuccess, true, res.Record.ID, nil, nil)
		return newSession(res.Record, res.Pair), nil
	case flows.LoginFailureInvalid:
		err := validationError(res.Reason)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", err, nil)
		return nil, err
	case flows.LoginFailureRateLimited:
		if !errors.Is(res.Err, rate.ErrRateLimited) {
			return nil, e.unavailable("login", res.Reason, res.Err)
		}
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, "", ErrLoginRateLimited, nil)
		e.emitRateLimit(ctx, "login", func() map[string]string {
			return map[string]string{
				"email": res.Email,
			}
		})
		return nil, ErrLoginRateLimited
	case flows.LoginFailureCredentials:
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Record.ID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": res.Reason,
			}
		})
		return nil, ErrInvalidCredentials
	default:
		e.metricInc(MetricLoginFailure)
		err := e.unavailable("login", res.Reason, res.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, res.Record.ID, err, func() map[string]string {
			return map[string]string{
				"reason": res.Reason,
			}
		})
		return nil, err
	}
}

// Refresh exchanges a valid refresh token for a wholly new session. The user
// record is re-read so role and name changes apply to the new access token.
// The presented refresh token stays valid until it expires.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, refreshToken, e.flowDeps.Refresh)

	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, res.UserID, nil, nil)
		return newSession(res.Record, res.Pair), nil
	case flows.RefreshFailureMissing:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrMissingToken, nil)
		return nil, ErrMissingToken
	case flows.RefreshFailureDecode:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrInvalidToken, func() map[string]string {
			return map[string]string{
				"reason": "decode_failed",
			}
		})
		return nil, ErrInvalidToken
	case flows.RefreshFailureRateLimited:
		if !errors.Is(res.Err, rate.ErrRateLimited) {
			return nil, e.unavailable("refresh", "rate_limiter", res.Err)
		}
		e.metricInc(MetricRefreshRateLimited)
		e.emitAudit(ctx, auditEventRefreshRateLimited, false, res.UserID, ErrRefreshRateLimited, nil)
		e.emitRateLimit(ctx, "refresh", func() map[string]string {
			return map[string]string{
				"user_id": res.UserID,
			}
		})
		return nil, ErrRefreshRateLimited
	case flows.RefreshFailureUserNotFound:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, res.UserID, ErrUserNotFound, func() map[string]string {
			return map[string]string{
				"reason": "user_not_found",
			}
		})
		return nil, ErrUserNotFound
	default:
		e.metricInc(MetricRefreshFailure)
		reason := "lookup_failed"
		if res.Failure == flows.RefreshFailureIssue {
			reason = "issue_failed"
		}
		err := e.unavailable("refresh", reason, res.Err)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, res.UserID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return nil, err
	}
}
