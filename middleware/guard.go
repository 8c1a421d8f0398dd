package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/userauth"
	"github.com/MrEthical07/userauth/role"
)

// AccessCookie is the cookie consulted when no bearer token is sent.
const AccessCookie = "accessToken"

// Authenticator is the subset of *userauth.Engine used by the guards.
type Authenticator interface {
	ValidateAccess(ctx context.Context, token string) (*userauth.Identity, error)
	Authorize(ctx context.Context, id *userauth.Identity, allowed role.Set) error
}

// ErrorWriter renders a rejected request. err is always a userauth sentinel.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Option configures a [Guard].
type Option func(*Guard)

// WithErrorWriter replaces the default JSON error renderer.
func WithErrorWriter(fn ErrorWriter) Option {
	return func(g *Guard) {
		if fn != nil {
			g.onError = fn
		}
	}
}

// Guard holds the engine and error renderer shared by the middleware it
// produces.
type Guard struct {
	engine  Authenticator
	onError ErrorWriter
}

// New returns a Guard backed by engine.
func New(engine Authenticator, opts ...Option) *Guard {
	g := &Guard{
		engine:  engine,
		onError: writeError,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type identityContextKey struct{}

// IdentityFromContext returns the identity stored by [Guard.Authenticate].
func IdentityFromContext(ctx context.Context) (*userauth.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*userauth.Identity)
	return id, ok && id != nil
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *userauth.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// Authenticate rejects requests without a valid access token and passes the
// rest on with the caller's identity in the context.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.identify(r)
		if err != nil {
			g.onError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireRoles authenticates the request (unless an outer Authenticate
// already did) and rejects identities whose role is not in roles.
func (g *Guard) RequireRoles(roles ...role.Role) func(http.Handler) http.Handler {
	allowed := role.NewSet(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				var err error
				if id, err = g.identify(r); err != nil {
					g.onError(w, r, err)
					return
				}
			}

			if err := g.engine.Authorize(r.Context(), id, allowed); err != nil {
				g.onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func (g *Guard) identify(r *http.Request) (*userauth.Identity, error) {
	if g == nil || g.engine == nil {
		return nil, userauth.ErrEngineNotReady
	}

	token, ok := TokenFromRequest(r)
	if !ok {
		return nil, userauth.ErrMissingToken
	}
	return g.engine.ValidateAccess(r.Context(), token)
}

// Authenticate is shorthand for New(engine).Authenticate.
func Authenticate(engine Authenticator) func(http.Handler) http.Handler {
	return New(engine).Authenticate
}

// RequireRoles is shorthand for New(engine).RequireRoles(roles...).
func RequireRoles(engine Authenticator, roles ...role.Role) func(http.Handler) http.Handler {
	return New(engine).RequireRoles(roles...)
}

// TokenFromRequest extracts the access token. A "Bearer " Authorization
// header always wins, even when the cookie is also present.
func TokenFromRequest(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, token != ""
	}

	c, err := r.Cookie(AccessCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	return strings.TrimSpace(value[len(bearer):]), true
}

func writeError(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusUnauthorized
	msg := "Invalid or expired access token"
	switch {
	case errors.Is(err, userauth.ErrMissingToken):
		msg = "Access token required"
	case errors.Is(err, userauth.ErrForbidden):
		status = http.StatusForbidden
		msg = "Insufficient permissions"
	case errors.Is(err, userauth.ErrEngineNotReady), errors.Is(err, userauth.ErrUnavailable):
		status = http.StatusServiceUnavailable
		msg = "Service unavailable"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
