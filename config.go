package userauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/userauth/password"
	"github.com/MrEthical07/userauth/role"
)

// Config is the complete engine configuration. It is copied by
// [Builder.WithConfig] and frozen by [Builder.Build]; later changes to the
// caller's value have no effect on a built Engine.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	Account  AccountConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the two token signing contexts.
//
// With "hs256" the access and refresh contexts are keyed by AccessSecret and
// RefreshSecret. With "ed25519" they use the matching private/public key
// pairs. The two contexts must never share key material.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default), "ed25519" optional

	AccessSecret  []byte
	RefreshSecret []byte

	AccessPrivateKey  []byte
	AccessPublicKey   []byte
	RefreshPrivateKey []byte
	RefreshPublicKey  []byte

	Issuer   string
	Audience string
	Leeway   time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig tunes password hashing.
type PasswordConfig struct {
	Cost           int
	MaxConcurrent  int
	UpgradeOnLogin bool
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig controls self-registration.
type AccountConfig struct {
	DefaultRole       role.Role
	SelfRegisterRoles role.Set
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds throttling budgets and production hardening. The
// throttles only apply when the engine is built with a Redis client.
type SecurityConfig struct {
	ProductionMode bool
	MinSecretBytes int

	EnableIPThrottle         bool
	MaxLoginAttempts         int
	LoginCooldownDuration    time.Duration
	MaxRefreshAttempts       int
	RefreshCooldownDuration  time.Duration
	MaxRegisterAttempts      int
	RegisterCooldownDuration time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. Signing secrets are left
// empty and must be supplied before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
		},
		Password: PasswordConfig{
			Cost:           password.DefaultCost,
			MaxConcurrent:  0,
			UpgradeOnLogin: true,
		},
		Account: AccountConfig{
			DefaultRole:       role.Patient,
			SelfRegisterRoles: role.NewSet(role.Patient, role.Doctor),
		},
		Security: SecurityConfig{
			ProductionMode:           false,
			MinSecretBytes:           32,
			EnableIPThrottle:         true,
			MaxLoginAttempts:         5,
			LoginCooldownDuration:    10 * time.Minute,
			MaxRefreshAttempts:       20,
			RefreshCooldownDuration:  time.Minute,
			MaxRegisterAttempts:      10,
			RegisterCooldownDuration: time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	out.JWT.AccessPrivateKey = cloneBytes(cfg.JWT.AccessPrivateKey)
	out.JWT.AccessPublicKey = cloneBytes(cfg.JWT.AccessPublicKey)
	out.JWT.RefreshPrivateKey = cloneBytes(cfg.JWT.RefreshPrivateKey)
	out.JWT.RefreshPublicKey = cloneBytes(cfg.JWT.RefreshPublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first configuration problem found. Codec-level checks
// (shared key material, key parsing) run again in Build.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be > AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.AccessSecret) == 0 {
			return errors.New("hs256 requires AccessSecret")
		}
		if len(c.JWT.RefreshSecret) == 0 {
			return errors.New("hs256 requires RefreshSecret")
		}
		if c.Security.ProductionMode {
			if len(c.JWT.AccessSecret) < c.Security.MinSecretBytes ||
				len(c.JWT.RefreshSecret) < c.Security.MinSecretBytes {
				return fmt.Errorf("production mode requires JWT secrets of at least %d bytes", c.Security.MinSecretBytes)
			}
		}
	case "ed25519":
		if len(c.JWT.AccessPrivateKey) == 0 || len(c.JWT.AccessPublicKey) == 0 {
			return errors.New("ed25519 requires AccessPrivateKey and AccessPublicKey")
		}
		if len(c.JWT.RefreshPrivateKey) == 0 || len(c.JWT.RefreshPublicKey) == 0 {
			return errors.New("ed25519 requires RefreshPrivateKey and RefreshPublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}

	// Password
	if c.Password.Cost != 0 && (c.Password.Cost < 4 || c.Password.Cost > 31) {
		return errors.New("Password Cost must be between 4 and 31")
	}
	if c.Security.ProductionMode && c.Password.Cost != 0 && c.Password.Cost < password.DefaultCost {
		return fmt.Errorf("production mode requires Password Cost >= %d", password.DefaultCost)
	}
	if c.Password.MaxConcurrent < 0 {
		return errors.New("Password MaxConcurrent must be >= 0")
	}

	// Account
	if !c.Account.DefaultRole.Valid() {
		return errors.New("Account DefaultRole is invalid")
	}
	if !c.Account.SelfRegisterRoles.Has(c.Account.DefaultRole) {
		return errors.New("Account SelfRegisterRoles must include DefaultRole")
	}

	// Security
	if c.Security.MinSecretBytes < 0 {
		return errors.New("Security MinSecretBytes must be >= 0")
	}
	if c.Security.MaxLoginAttempts < 0 ||
		c.Security.MaxRefreshAttempts < 0 ||
		c.Security.MaxRegisterAttempts < 0 {
		return errors.New("Security attempt budgets must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0")
	}
	if c.Security.MaxRefreshAttempts > 0 && c.Security.RefreshCooldownDuration <= 0 {
		return errors.New("Security RefreshCooldownDuration must be > 0")
	}
	if c.Security.MaxRegisterAttempts > 0 && c.Security.RegisterCooldownDuration <= 0 {
		return errors.New("Security RegisterCooldownDuration must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
