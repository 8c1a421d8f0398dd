package userauth

import "errors"

var (
	// ErrValidation reports missing or malformed input. It may be wrapped
	// with a detail message.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail reports a registration for an email already in use.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken reports a refresh token that failed verification.
	ErrInvalidToken = errors.New("invalid refresh token")
	// ErrUserNotFound reports a missing account.
	ErrUserNotFound = errors.New("user not found")
	// ErrMissingToken reports a request carrying no token at all.
	ErrMissingToken = errors.New("no token provided")
	// ErrUnauthorized reports an access token that failed verification.
	ErrUnauthorized = errors.New("invalid or expired token")
	// ErrForbidden reports an authenticated identity whose role is not allowed.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrLoginRateLimited reports an exhausted failed-login budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited reports an exhausted refresh budget.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrRegisterRateLimited reports an exhausted registration budget.
	ErrRegisterRateLimited = errors.New("registration rate limited")
	// ErrUnavailable hides store, hashing and signing failures from callers.
	ErrUnavailable = errors.New("service unavailable")
	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
