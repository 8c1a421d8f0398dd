package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrEthical07/userauth"
)

// StatusFor maps an engine error to an HTTP status and a client-safe message.
// Unknown errors map to 500 with a generic message.
func StatusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, userauth.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, userauth.ErrDuplicateEmail):
		return http.StatusBadRequest, "User with this email already exists"
	case errors.Is(err, userauth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, userauth.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid or expired refresh token"
	case errors.Is(err, userauth.ErrMissingToken):
		return http.StatusUnauthorized, "Access token required"
	case errors.Is(err, userauth.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid or expired access token"
	case errors.Is(err, userauth.ErrForbidden):
		return http.StatusForbidden, "Insufficient permissions"
	case errors.Is(err, userauth.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, userauth.ErrLoginRateLimited),
		errors.Is(err, userauth.ErrRefreshRateLimited),
		errors.Is(err, userauth.ErrRegisterRateLimited):
		return http.StatusTooManyRequests, "Too many requests, please try again later"
	case errors.Is(err, userauth.ErrUnavailable), errors.Is(err, userauth.ErrEngineNotReady):
		return http.StatusServiceUnavailable, "Service unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// validationMessage returns the detail wrapped around ErrValidation, with the
// first letter upper-cased.
func validationMessage(err error) string {
	prefix := userauth.ErrValidation.Error() + ": "
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "Invalid request"
	}
	detail := msg[len(prefix):]
	r, size := utf8.DecodeRuneInString(detail)
	if r == utf8.RuneError {
		return "Invalid request"
	}
	return string(unicode.ToUpper(r)) + detail[size:]
}
