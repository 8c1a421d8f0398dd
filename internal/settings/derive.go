package settings

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrEthical07/userauth"
	"github.com/MrEthical07/userauth/httpapi"
	"github.com/MrEthical07/userauth/role"
	"github.com/MrEthical07/userauth/store/sqlstore"
	"github.com/sirupsen/logrus"
)

// Validate checks the settings that are not covered by userauth.Config.
func (s Settings) Validate() error {
	if s.Server.Port == "" {
		return errors.New("server port is required")
	}
	if _, err := logrus.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", s.Log.Format)
	}
	if _, err := s.StoreDriver(); err != nil {
		return err
	}
	if _, err := parseSameSite(s.Cookie.SameSite); err != nil {
		return err
	}
	if strings.EqualFold(s.Cookie.SameSite, "none") && !s.Cookie.Secure {
		return errors.New("cookie SameSite=None requires Secure")
	}
	roles, err := s.selfRegisterRoles()
	if err != nil {
		return err
	}
	if def := userauth.DefaultConfig().Account.DefaultRole; !roles.Has(def) {
		return fmt.Errorf("account self_register_roles must include %s", def)
	}
	return nil
}

func (s Settings) selfRegisterRoles() (role.Set, error) {
	roles, err := role.ParseSet(s.Account.SelfRegisterRoles)
	if err != nil {
		return 0, fmt.Errorf("account self_register_roles: %w", err)
	}
	return roles, nil
}

// StoreDriver resolves the credential store kind: "memory", "sqlite" or
// "postgres".
func (s Settings) StoreDriver() (string, error) {
	driver := strings.ToLower(strings.TrimSpace(s.Database.Driver))
	if driver == "" {
		switch {
		case s.Database.URL == "":
			driver = "memory"
		case strings.HasPrefix(s.Database.URL, "postgres://"), strings.HasPrefix(s.Database.URL, "postgresql://"):
			driver = "postgres"
		default:
			driver = "sqlite"
		}
	}

	switch driver {
	case "memory":
		return driver, nil
	case "sqlite", "sqlite3", "postgres", "postgresql":
		if s.Database.URL == "" {
			return "", fmt.Errorf("database url is required for driver %q", driver)
		}
		d, err := sqlstore.ParseDialect(driver)
		if err != nil {
			return "", err
		}
		if d == sqlstore.Postgres {
			return "postgres", nil
		}
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// EngineConfig derives the engine configuration. The result still goes
// through userauth.Config.Validate in Build.
func (s Settings) EngineConfig() userauth.Config {
	cfg := userauth.DefaultConfig()
	cfg.JWT.AccessSecret = []byte(s.JWT.AccessSecret)
	cfg.JWT.RefreshSecret = []byte(s.JWT.RefreshSecret)
	cfg.JWT.Issuer = s.JWT.Issuer
	cfg.JWT.Audience = s.JWT.Audience
	cfg.JWT.AccessTTL = s.JWT.AccessTTL
	cfg.JWT.RefreshTTL = s.JWT.RefreshTTL

	cfg.Password.Cost = s.Password.Cost
	cfg.Password.MaxConcurrent = s.Password.MaxConcurrent

	cfg.Security.ProductionMode = s.Production()

	if roles, err := s.selfRegisterRoles(); err == nil && !roles.Empty() {
		cfg.Account.SelfRegisterRoles = roles
	}

	cfg.Audit.Enabled = s.Audit.Enabled
	if s.Audit.BufferSize > 0 {
		cfg.Audit.BufferSize = s.Audit.BufferSize
	}

	cfg.Metrics.Enabled = s.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = s.Metrics.Latency
	return cfg
}

// HTTPConfig derives the transport configuration. Cookie lifetimes follow
// the token lifetimes.
func (s Settings) HTTPConfig() httpapi.Config {
	cfg := httpapi.DefaultConfig()
	cfg.FrontendOrigin = s.CORS.FrontendURL
	cfg.TrustProxyHeaders = s.Server.TrustProxyHeaders
	cfg.Cookie.Secure = s.Cookie.Secure
	cfg.Cookie.Domain = s.Cookie.Domain
	cfg.Cookie.AccessMaxAge = s.JWT.AccessTTL
	cfg.Cookie.RefreshMaxAge = s.JWT.RefreshTTL
	if mode, err := parseSameSite(s.Cookie.SameSite); err == nil {
		cfg.Cookie.SameSite = mode
	}
	return cfg
}

// Logger builds a logrus logger from the log settings.
func (s Settings) Logger() *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(s.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if s.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none":
		return http.SameSiteNoneMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "", "default":
		return http.SameSiteDefaultMode, nil
	default:
		return 0, fmt.Errorf("cookie same_site must be none, lax or strict, got %q", v)
	}
}
