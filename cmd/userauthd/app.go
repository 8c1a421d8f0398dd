package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/MrEthical07/userauth"
	"github.com/MrEthical07/userauth/httpapi"
	"github.com/MrEthical07/userauth/internal/settings"
	promexport "github.com/MrEthical07/userauth/metrics/export/prometheus"
	"github.com/MrEthical07/userauth/store/memory"
	"github.com/MrEthical07/userauth/store/sqlstore"
	"github.com/MrEthical07/userauth/user"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// app holds everything that must be closed on shutdown.
type app struct {
	engine  *userauth.Engine
	handler http.Handler
	db      *sql.DB
	redis   *redis.Client
}

func newApp(ctx context.Context, s settings.Settings, logger *logrus.Logger) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	store, err := a.openStore(ctx, s)
	if err != nil {
		return nil, err
	}

	b := userauth.New().
		WithConfig(s.EngineConfig()).
		WithUserStore(store).
		WithLogger(logger.WithField("component", "engine"))

	if s.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     s.Redis.Addr,
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		b = b.WithRedis(a.redis)
	}
	if s.Audit.Enabled {
		b = b.WithAuditSink(userauth.NewLogrusSink(logger.WithField("component", "audit")))
	}

	a.engine, err = b.Build()
	if err != nil {
		return nil, fmt.Errorf("engine build: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		promexport.NewCollector(a.engine),
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	srv := httpapi.New(a.engine, s.HTTPConfig(),
		httpapi.WithLogger(logger.WithField("component", "http")),
		httpapi.WithRegisterer(registry),
		httpapi.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)
	a.handler = srv.Handler()

	logger.WithFields(logrus.Fields{
		"store":      storeKind(s),
		"throttling": a.redis != nil,
		"audit":      s.Audit.Enabled,
	}).Info("user service configured")

	ok = true
	return a, nil
}

func (a *app) openStore(ctx context.Context, s settings.Settings) (user.Store, error) {
	driver, err := s.StoreDriver()
	if err != nil {
		return nil, err
	}
	if driver == "memory" {
		return memory.New(), nil
	}

	dialect, err := sqlstore.ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	store, db, err := sqlstore.Open(ctx, dialect, s.Database.URL)
	if err != nil {
		return nil, err
	}
	a.db = db
	return store, nil
}

// Close releases the engine, then its backing connections.
func (a *app) Close() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func storeKind(s settings.Settings) string {
	driver, err := s.StoreDriver()
	if err != nil {
		return "unknown"
	}
	return driver
}
