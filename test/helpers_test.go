//go:build integration
// +build integration

package test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/userauth"
	"github.com/MrEthical07/userauth/store/sqlstore"
	"github.com/MrEthical07/userauth/user"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// cmdCounter is a go-redis Hook that counts Redis round-trips.
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64 { return h.commands.Load() }

func integrationConfig() userauth.Config {
	cfg := userauth.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("integration-access-secret-0123456789")
	cfg.JWT.RefreshSecret = []byte("integration-refresh-secret-012345678")
	cfg.Password.Cost = bcrypt.MinCost
	return cfg
}

// newSQLiteStore opens a private in-memory SQLite database with the schema
// applied.
func newSQLiteStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	store, db, err := sqlstore.Open(context.Background(), sqlstore.SQLite, ":memory:")
	if err != nil {
		t.Fatalf("sqlite open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return store
}

// newCountedEngine builds an engine over store and a miniredis-backed client
// with a cmdCounter installed. The counter starts clean.
func newCountedEngine(t *testing.T, store user.Store, mutate func(*userauth.Config)) (*userauth.Engine, *cmdCounter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	// go-redis may emit handshake commands on first use.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}
	counter := &cmdCounter{}
	rdb.AddHook(counter)

	cfg := integrationConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := userauth.New().
		WithConfig(cfg).
		WithUserStore(store).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	counter.Reset()
	return engine, counter, mr
}
