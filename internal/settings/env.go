package settings

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// envReader reads typed variables and collects every parse failure so one
// run reports all of them.
type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (e *envReader) get(keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := e.lookup(key); ok && value != "" {
			return value, true
		}
	}
	return "", false
}

func (e *envReader) setString(dst *string, keys ...string) {
	if value, ok := e.get(keys...); ok {
		*dst = value
	}
}

func (e *envReader) setInt(dst *int, keys ...string) {
	value, ok := e.get(keys...)
	if !ok {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid int value for %s: %q", keys[0], value))
		return
	}
	*dst = n
}

func (e *envReader) setBool(dst *bool, keys ...string) {
	value, ok := e.get(keys...)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid bool value for %s: %q", keys[0], value))
		return
	}
	*dst = b
}

func (e *envReader) setDuration(dst *time.Duration, keys ...string) {
	value, ok := e.get(keys...)
	if !ok {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid duration value for %s: %q", keys[0], value))
		return
	}
	*dst = d
}

func (e *envReader) err() error {
	return errors.Join(e.errs...)
}

func (e *envReader) applyTo(s *Settings) {
	e.setString(&s.Environment, "USERAUTH_ENV", "NODE_ENV")

	e.setString(&s.Server.Port, "USERAUTH_PORT", "PORT")
	e.setDuration(&s.Server.ReadHeaderTimeout, "USERAUTH_READ_HEADER_TIMEOUT")
	e.setDuration(&s.Server.ReadTimeout, "USERAUTH_READ_TIMEOUT")
	e.setDuration(&s.Server.WriteTimeout, "USERAUTH_WRITE_TIMEOUT")
	e.setDuration(&s.Server.ShutdownTimeout, "USERAUTH_SHUTDOWN_TIMEOUT")
	e.setBool(&s.Server.TrustProxyHeaders, "USERAUTH_TRUST_PROXY_HEADERS")

	e.setString(&s.Log.Level, "USERAUTH_LOG_LEVEL")
	e.setString(&s.Log.Format, "USERAUTH_LOG_FORMAT")

	e.setString(&s.Database.Driver, "USERAUTH_DATABASE_DRIVER")
	if url, ok := e.get("USERAUTH_DATABASE_URL", "DATABASE_URL"); ok {
		s.Database.URL = url
		if _, explicit := e.get("USERAUTH_DATABASE_DRIVER"); !explicit {
			s.Database.Driver = ""
		}
	}

	e.setString(&s.Redis.Addr, "USERAUTH_REDIS_ADDR")
	e.setString(&s.Redis.Password, "USERAUTH_REDIS_PASSWORD")
	e.setInt(&s.Redis.DB, "USERAUTH_REDIS_DB")

	e.setString(&s.JWT.AccessSecret, "USERAUTH_ACCESS_TOKEN_SECRET", "ACCESS_TOKEN_SECRET")
	e.setString(&s.JWT.RefreshSecret, "USERAUTH_REFRESH_TOKEN_SECRET", "REFRESH_TOKEN_SECRET")
	e.setString(&s.JWT.Issuer, "USERAUTH_JWT_ISSUER")
	e.setString(&s.JWT.Audience, "USERAUTH_JWT_AUDIENCE")
	e.setDuration(&s.JWT.AccessTTL, "USERAUTH_ACCESS_TOKEN_TTL")
	e.setDuration(&s.JWT.RefreshTTL, "USERAUTH_REFRESH_TOKEN_TTL")

	e.setInt(&s.Password.Cost, "USERAUTH_BCRYPT_COST")
	e.setInt(&s.Password.MaxConcurrent, "USERAUTH_BCRYPT_MAX_CONCURRENT")

	e.setBool(&s.Cookie.Secure, "USERAUTH_COOKIE_SECURE")
	e.setString(&s.Cookie.SameSite, "USERAUTH_COOKIE_SAMESITE")
	e.setString(&s.Cookie.Domain, "USERAUTH_COOKIE_DOMAIN")

	e.setString(&s.Account.SelfRegisterRoles, "USERAUTH_SELF_REGISTER_ROLES")

	e.setString(&s.CORS.FrontendURL, "USERAUTH_FRONTEND_URL", "FRONTEND_URL")

	e.setBool(&s.Audit.Enabled, "USERAUTH_AUDIT_ENABLED")
	e.setInt(&s.Audit.BufferSize, "USERAUTH_AUDIT_BUFFER_SIZE")

	e.setBool(&s.Metrics.Enabled, "USERAUTH_METRICS_ENABLED")
	e.setBool(&s.Metrics.Latency, "USERAUTH_METRICS_LATENCY")
}
