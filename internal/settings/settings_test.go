package settings

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrEthical07/userauth/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	s, err := LoadWith(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "5001", s.Server.Port)
	assert.Equal(t, "http://localhost:3000", s.CORS.FrontendURL)
	assert.Equal(t, 15*time.Minute, s.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, s.JWT.RefreshTTL)
	assert.False(t, s.Production())

	driver, err := s.StoreDriver()
	require.NoError(t, err)
	assert.Equal(t, "memory", driver)

	httpCfg := s.HTTPConfig()
	assert.Equal(t, http.SameSiteNoneMode, httpCfg.Cookie.SameSite)
	assert.True(t, httpCfg.Cookie.Secure)
	assert.Equal(t, 15*time.Minute, httpCfg.Cookie.AccessMaxAge)
}

func TestEnvOverrides(t *testing.T) {
	s, err := LoadWith(envMap(map[string]string{
		"PORT":                          "8080",
		"USERAUTH_PORT":                 "9090",
		"FRONTEND_URL":                  "https://app.example.com",
		"ACCESS_TOKEN_SECRET":           "a-secret",
		"USERAUTH_REFRESH_TOKEN_SECRET": "r-secret",
		"USERAUTH_ACCESS_TOKEN_TTL":     "5m",
		"USERAUTH_BCRYPT_COST":          "12",
		"USERAUTH_COOKIE_SAMESITE":      "lax",
		"USERAUTH_AUDIT_ENABLED":        "true",
		"USERAUTH_LOG_FORMAT":           "json",
		"NODE_ENV":                      "production",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", s.Server.Port, "prefixed variable wins over the legacy name")
	assert.Equal(t, "https://app.example.com", s.CORS.FrontendURL)
	assert.True(t, s.Production())

	cfg := s.EngineConfig()
	assert.Equal(t, []byte("a-secret"), cfg.JWT.AccessSecret)
	assert.Equal(t, []byte("r-secret"), cfg.JWT.RefreshSecret)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 12, cfg.Password.Cost)
	assert.True(t, cfg.Security.ProductionMode)
	assert.True(t, cfg.Audit.Enabled)

	assert.Equal(t, http.SameSiteLaxMode, s.HTTPConfig().Cookie.SameSite)
}

func TestInvalidEnvValuesAreAllReported(t *testing.T) {
	_, err := LoadWith(envMap(map[string]string{
		"USERAUTH_BCRYPT_COST":      "twelve",
		"USERAUTH_ACCESS_TOKEN_TTL": "soon",
		"USERAUTH_AUDIT_ENABLED":    "maybe",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "USERAUTH_BCRYPT_COST")
	assert.Contains(t, err.Error(), "USERAUTH_ACCESS_TOKEN_TTL")
	assert.Contains(t, err.Error(), "USERAUTH_AUDIT_ENABLED")
}

func TestConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "userauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "7000"
  shutdown_timeout: 30s
database:
  driver: sqlite
  url: /var/lib/userauth/users.db
jwt:
  access_secret: from-file
  refresh_ttl: 48h
redis:
  addr: localhost:6379
`), 0o600))

	s, err := LoadWith(envMap(map[string]string{
		"USERAUTH_CONFIG_FILE":         path,
		"USERAUTH_ACCESS_TOKEN_SECRET": "from-env",
	}))
	require.NoError(t, err)

	assert.Equal(t, "7000", s.Server.Port)
	assert.Equal(t, 30*time.Second, s.Server.ShutdownTimeout)
	assert.Equal(t, 48*time.Hour, s.JWT.RefreshTTL)
	assert.Equal(t, "from-env", s.JWT.AccessSecret)
	assert.Equal(t, "localhost:6379", s.Redis.Addr)
	assert.Equal(t, "info", s.Log.Level, "fields absent from the file keep their defaults")

	driver, err := s.StoreDriver()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", driver)
}

func TestConfigFileErrors(t *testing.T) {
	_, err := LoadWith(envMap(map[string]string{"USERAUTH_CONFIG_FILE": "/does/not/exist.yaml"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))
	_, err = LoadWith(envMap(map[string]string{"USERAUTH_CONFIG_FILE": path}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestDatabaseURLInfersDriver(t *testing.T) {
	s, err := LoadWith(envMap(map[string]string{
		"DATABASE_URL": "postgres://user:pw@localhost:5432/users?sslmode=disable",
	}))
	require.NoError(t, err)

	driver, err := s.StoreDriver()
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"bad log level", func(s *Settings) { s.Log.Level = "loud" }},
		{"bad log format", func(s *Settings) { s.Log.Format = "xml" }},
		{"unknown driver", func(s *Settings) { s.Database.Driver = "oracle"; s.Database.URL = "x" }},
		{"sqlite without url", func(s *Settings) { s.Database.Driver = "sqlite" }},
		{"bad same site", func(s *Settings) { s.Cookie.SameSite = "sometimes" }},
		{"same site none needs secure", func(s *Settings) { s.Cookie.Secure = false }},
		{"empty port", func(s *Settings) { s.Server.Port = "" }},
		{"unknown self register role", func(s *Settings) { s.Account.SelfRegisterRoles = "PATIENT,NURSE" }},
		{"self register roles without patient", func(s *Settings) { s.Account.SelfRegisterRoles = "DOCTOR" }},
		{"no self register roles", func(s *Settings) { s.Account.SelfRegisterRoles = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestSelfRegisterRoles(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		s, err := LoadWith(envMap(nil))
		require.NoError(t, err)
		assert.Equal(t, role.NewSet(role.Patient, role.Doctor), s.EngineConfig().Account.SelfRegisterRoles)
	})

	t.Run("env", func(t *testing.T) {
		s, err := LoadWith(envMap(map[string]string{
			"USERAUTH_SELF_REGISTER_ROLES": "patient, admin",
		}))
		require.NoError(t, err)

		roles := s.EngineConfig().Account.SelfRegisterRoles
		assert.True(t, roles.Has(role.Patient))
		assert.True(t, roles.Has(role.Admin))
		assert.False(t, roles.Has(role.Doctor))
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "userauth.yaml")
		require.NoError(t, os.WriteFile(path, []byte("account:\n  self_register_roles: PATIENT\n"), 0o600))

		s, err := LoadWith(envMap(map[string]string{"USERAUTH_CONFIG_FILE": path}))
		require.NoError(t, err)
		assert.Equal(t, role.NewSet(role.Patient), s.EngineConfig().Account.SelfRegisterRoles)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := LoadWith(envMap(map[string]string{
			"USERAUTH_SELF_REGISTER_ROLES": "PATIENT,NURSE",
		}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "self_register_roles")
	})
}

func TestLogger(t *testing.T) {
	s := Default()
	s.Log.Level = "debug"
	s.Log.Format = "json"

	logger := s.Logger()
	assert.Equal(t, "debug", logger.GetLevel().String())
}
