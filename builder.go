package userauth

import (
	"errors"
	"io"
	"time"

	"github.com/MrEthical07/userauth/internal/audit"
	"github.com/MrEthical07/userauth/internal/rate"
	"github.com/MrEthical07/userauth/jwt"
	"github.com/MrEthical07/userauth/password"
	"github.com/MrEthical07/userauth/user"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Builder assembles an [Engine]. A Builder is single-use: Build fails on the
// second call.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users     user.Store
	logger    logrus.FieldLogger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the credential store. It is required.
func (b *Builder) WithUserStore(store user.Store) *Builder {
	b.users = store
	return b
}

// WithRedis enables the login, refresh and registration throttles. Without a
// Redis client the engine runs unthrottled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the logger used for backend failures and warnings. The
// default discards everything.
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the destination of audit events. Events are only
// produced when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source for token issuance, verification and
// audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the ValidateAccess latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user store required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	logger := b.logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	// -------- PASSWORD HASHING --------
	hasher, err := password.NewBcrypt(password.Config{Cost: cfg.Password.Cost})
	if err != nil {
		return nil, err
	}

	// -------- TOKEN CODEC --------
	codec, err := jwt.NewCodec(accessCodecConfig(cfg.JWT), refreshCodecConfig(cfg.JWT), jwt.WithClock(now))
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:  cfg,
		users:   b.users,
		hasher:  password.NewPool(hasher, cfg.Password.MaxConcurrent),
		codec:   codec,
		logger:  logger,
		now:     now,
		metrics: NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	// -------- RATE LIMITER --------
	if b.redis != nil {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:    cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:    cfg.Security.MaxLoginAttempts,
			LoginCooldown:       cfg.Security.LoginCooldownDuration,
			MaxRefreshAttempts:  cfg.Security.MaxRefreshAttempts,
			RefreshCooldown:     cfg.Security.RefreshCooldownDuration,
			MaxRegisterAttempts: cfg.Security.MaxRegisterAttempts,
			RegisterCooldown:    cfg.Security.RegisterCooldownDuration,
		})
	}

	engine.flowDeps = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}

func accessCodecConfig(cfg JWTConfig) jwt.Config {
	out := jwt.Config{
		TTL:           cfg.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.SigningMethod),
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		Leeway:        cfg.Leeway,
	}
	if out.SigningMethod == jwt.MethodEd25519 {
		out.PrivateKey = cloneBytes(cfg.AccessPrivateKey)
		out.PublicKey = cloneBytes(cfg.AccessPublicKey)
	} else {
		out.PrivateKey = cloneBytes(cfg.AccessSecret)
	}
	return out
}

func refreshCodecConfig(cfg JWTConfig) jwt.Config {
	out := jwt.Config{
		TTL:           cfg.RefreshTTL,
		SigningMethod: jwt.SigningMethod(cfg.SigningMethod),
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		Leeway:        cfg.Leeway,
	}
	if out.SigningMethod == jwt.MethodEd25519 {
		out.PrivateKey = cloneBytes(cfg.RefreshPrivateKey)
		out.PublicKey = cloneBytes(cfg.RefreshPublicKey)
	} else {
		out.PrivateKey = cloneBytes(cfg.RefreshSecret)
	}
	return out
}
