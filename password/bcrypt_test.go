package password

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func fastHasher(t *testing.T) *Bcrypt {
	t.Helper()
	h, err := NewBcrypt(Config{Cost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	return h
}

func TestDefaultCostIsTen(t *testing.T) {
	h, err := NewBcrypt(Config{})
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if h.Cost() != 10 {
		t.Fatalf("expected default cost 10, got %d", h.Cost())
	}

	hash, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}
}

func TestNewBcryptRejectsCostOutOfRange(t *testing.T) {
	if _, err := NewBcrypt(Config{Cost: 2}); err == nil {
		t.Fatal("expected cost below bcrypt minimum to fail")
	}
	if _, err := NewBcrypt(Config{Cost: 40}); err == nil {
		t.Fatal("expected cost above bcrypt maximum to fail")
	}
}

func TestHashAndVerify(t *testing.T) {
	h := fastHasher(t)

	hash, err := h.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hash == "P@ssw0rd-Ascii" {
		t.Fatal("hash must not equal plaintext")
	}
	if !h.Verify("P@ssw0rd-Ascii", hash) {
		t.Fatal("expected password verification to succeed")
	}
	if h.Verify("wrong-password", hash) {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestHashIsSalted(t *testing.T) {
	h := fastHasher(t)

	a, _ := h.Hash("same-password")
	b, _ := h.Hash("same-password")
	if a == b {
		t.Fatal("expected distinct salts for identical plaintexts")
	}
}

func TestVerifyMalformedHashFailsClosed(t *testing.T) {
	h := fastHasher(t)

	for _, stored := range []string{"", "not-a-hash", "$2a$10$short", "$argon2id$v=19$m=1,t=1,p=1$AA$AA"} {
		if h.Verify("password", stored) {
			t.Fatalf("expected malformed hash %q to be a non-match", stored)
		}
	}
}

func TestHashRejectsEmptyAndTooLong(t *testing.T) {
	h := fastHasher(t)

	if _, err := h.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	exact := strings.Repeat("b", MaxPasswordBytes)
	hash, err := h.Hash(exact)
	if err != nil {
		t.Fatalf("expected 72-byte password to hash: %v", err)
	}
	if !h.Verify(exact, hash) {
		t.Fatal("expected 72-byte password to verify")
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := fastHasher(t)
	hash, err := weak.Hash("upgrade-me")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	strong, err := NewBcrypt(Config{Cost: bcrypt.MinCost + 1})
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if !strong.NeedsRehash(hash) {
		t.Fatal("expected weaker hash to need rehash")
	}
	if weak.NeedsRehash(hash) {
		t.Fatal("expected same-cost hash to not need rehash")
	}
	if strong.NeedsRehash("garbage") {
		t.Fatal("malformed hash should not report rehash")
	}
}

func TestVerifyDummyNeverPanics(t *testing.T) {
	h := fastHasher(t)
	h.VerifyDummy("")
	h.VerifyDummy("anything")
}

func TestPoolHonoursContext(t *testing.T) {
	h := fastHasher(t)
	pool := NewPool(h, 1)

	// Hold the only slot.
	if err := pool.slots.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer pool.slots.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := pool.Hash(ctx, "pw"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while waiting, got %v", err)
	}
	if _, err := pool.Verify(ctx, "pw", "hash"); err == nil {
		t.Fatal("expected verify to fail while waiting on a cancelled context")
	}
}

func TestPoolRoundTrip(t *testing.T) {
	pool := NewPool(fastHasher(t), 0)
	ctx := context.Background()

	hash, err := pool.Hash(ctx, "pooled")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	ok, err := pool.Verify(ctx, "pooled", hash)
	if err != nil || !ok {
		t.Fatalf("expected pooled verify to succeed, ok=%v err=%v", ok, err)
	}
	if err := pool.VerifyDummy(ctx, "pooled"); err != nil {
		t.Fatalf("VerifyDummy error: %v", err)
	}
}
