// Package settings loads userauthd's deployment settings from an optional
// YAML file and the environment, then derives the engine and transport
// configs from them.
//
// Precedence, lowest first: built-in defaults, the YAML file named by
// USERAUTH_CONFIG_FILE, environment variables. Each USERAUTH_* variable also
// has the historical unprefixed name (PORT, DATABASE_URL, FRONTEND_URL,
// ACCESS_TOKEN_SECRET, REFRESH_TOKEN_SECRET, NODE_ENV) as a fallback.
package settings

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the full deployment configuration.
type Settings struct {
	Environment string           `yaml:"environment"`
	Server      ServerSettings   `yaml:"server"`
	Log         LogSettings      `yaml:"log"`
	Database    DatabaseSettings `yaml:"database"`
	Redis       RedisSettings    `yaml:"redis"`
	JWT         JWTSettings      `yaml:"jwt"`
	Password    PasswordSettings `yaml:"password"`
	Cookie      CookieSettings   `yaml:"cookie"`
	Account     AccountSettings  `yaml:"account"`
	CORS        CORSSettings     `yaml:"cors"`
	Audit       AuditSettings    `yaml:"audit"`
	Metrics     MetricsSettings  `yaml:"metrics"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Port              string        `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	TrustProxyHeaders bool          `yaml:"trust_proxy_headers"`
}

// LogSettings configures logrus.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DatabaseSettings selects the credential store. Driver is "memory",
// "sqlite" or "postgres"; an empty driver is inferred from URL.
type DatabaseSettings struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// RedisSettings enables throttling when Addr is set.
type RedisSettings struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTSettings carries the signing secrets and token lifetimes.
type JWTSettings struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	Issuer        string        `yaml:"issuer"`
	Audience      string        `yaml:"audience"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
}

// PasswordSettings tunes bcrypt.
type PasswordSettings struct {
	Cost          int `yaml:"cost"`
	MaxConcurrent int `yaml:"max_concurrent"`
}

// CookieSettings shapes the session cookies.
type CookieSettings struct {
	Secure   bool   `yaml:"secure"`
	SameSite string `yaml:"same_site"` // "none", "lax", "strict"
	Domain   string `yaml:"domain"`
}

// AccountSettings controls self-registration. SelfRegisterRoles is a
// comma-separated role list such as "PATIENT,DOCTOR".
type AccountSettings struct {
	SelfRegisterRoles string `yaml:"self_register_roles"`
}

// CORSSettings names the single browser origin allowed to call the API.
type CORSSettings struct {
	FrontendURL string `yaml:"frontend_url"`
}

// AuditSettings toggles audit events to the log.
type AuditSettings struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
}

// MetricsSettings toggles counters and latency histograms.
type MetricsSettings struct {
	Enabled bool `yaml:"enabled"`
	Latency bool `yaml:"latency"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Environment: "development",
		Server: ServerSettings{
			Port:              "5001",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Database: DatabaseSettings{
			Driver: "memory",
		},
		JWT: JWTSettings{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "user-service",
		},
		Password: PasswordSettings{
			Cost: 10,
		},
		Cookie: CookieSettings{
			Secure:   true,
			SameSite: "none",
		},
		Account: AccountSettings{
			SelfRegisterRoles: "PATIENT,DOCTOR",
		},
		CORS: CORSSettings{
			FrontendURL: "http://localhost:3000",
		},
		Audit: AuditSettings{
			BufferSize: 1024,
		},
		Metrics: MetricsSettings{
			Enabled: true,
		},
	}
}

// Production reports whether the environment is "production".
func (s Settings) Production() bool {
	return s.Environment == "production"
}

// LoadFile overlays the YAML file at path onto base.
func LoadFile(base Settings, path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config file: %w", err)
	}

	out := base
	if err := yaml.Unmarshal(data, &out); err != nil {
		return base, fmt.Errorf("failed to parse config file: %w", err)
	}
	return out, nil
}

// Load builds settings from defaults, the optional config file and the
// process environment.
func Load() (Settings, error) {
	return LoadWith(os.LookupEnv)
}

// LookupFunc has the shape of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadWith is Load with an injectable environment.
func LoadWith(lookup LookupFunc) (Settings, error) {
	s := Default()

	if path, ok := lookup("USERAUTH_CONFIG_FILE"); ok && path != "" {
		var err error
		if s, err = LoadFile(s, path); err != nil {
			return Settings{}, err
		}
	}

	env := envReader{lookup: lookup}
	env.applyTo(&s)
	if err := env.err(); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
