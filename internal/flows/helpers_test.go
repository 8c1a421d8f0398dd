package flows

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/userauth/role"
	"github.com/MrEthical07/userauth/store/memory"
	"github.com/MrEthical07/userauth/user"
)

var errPolicy = errors.New("password policy")

// fakeHasher stores "v<version>:<plaintext>" so tests can inspect upgrades.
type fakeHasher struct {
	mu        sync.Mutex
	version   int
	dummies   int
	verifies  int
	verifyErr error
}

func (h *fakeHasher) Hash(_ context.Context, plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", errPolicy
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return "v" + string(rune('0'+h.version)) + ":" + plaintext, nil
}

func (h *fakeHasher) Verify(_ context.Context, plaintext, hash string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.verifies++
	if h.verifyErr != nil {
		return false, h.verifyErr
	}
	_, stored, ok := strings.Cut(hash, ":")
	return ok && stored == plaintext, nil
}

func (h *fakeHasher) VerifyDummy(context.Context, string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dummies++
	return nil
}

func (h *fakeHasher) NeedsRehash(hash string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !strings.HasPrefix(hash, "v"+string(rune('0'+h.version))+":")
}

type fakeLimiter struct {
	checkErr   error
	incErr     error
	increments int
	resets     int
	refreshes  int
	registers  int
}

func (l *fakeLimiter) CheckLogin(context.Context, string, string) error { return l.checkErr }
func (l *fakeLimiter) IncrementLogin(context.Context, string, string) error {
	l.increments++
	return l.incErr
}
func (l *fakeLimiter) ResetLogin(context.Context, string, string) error {
	l.resets++
	return nil
}
func (l *fakeLimiter) CheckRefresh(context.Context, string) error {
	l.refreshes++
	return l.checkErr
}
func (l *fakeLimiter) CheckRegister(context.Context, string) error {
	l.registers++
	return l.checkErr
}

var pairSeq int

func fakeIssue(rec user.Record) (Pair, error) {
	pairSeq++
	n := string(rune('a' + pairSeq%26))
	return Pair{
		AccessToken:      "access-" + rec.ID + "-" + n,
		AccessExpiresAt:  time.Now().Add(15 * time.Minute),
		RefreshToken:     "refresh-" + rec.ID + "-" + n,
		RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}, nil
}

// failingStore wraps a store and fails the selected operations.
type failingStore struct {
	user.Store
	findErr   error
	createErr error
	updateErr error
}

func (s failingStore) FindByEmail(ctx context.Context, email string) (user.Record, error) {
	if s.findErr != nil {
		return user.Record{}, s.findErr
	}
	return s.Store.FindByEmail(ctx, email)
}

func (s failingStore) FindByID(ctx context.Context, id string) (user.Record, error) {
	if s.findErr != nil {
		return user.Record{}, s.findErr
	}
	return s.Store.FindByID(ctx, id)
}

func (s failingStore) Create(ctx context.Context, in user.CreateInput) (user.Record, error) {
	if s.createErr != nil {
		return user.Record{}, s.createErr
	}
	return s.Store.Create(ctx, in)
}

func (s failingStore) Update(ctx context.Context, id string, p user.Patch) (user.Record, error) {
	if s.updateErr != nil {
		return user.Record{}, s.updateErr
	}
	return s.Store.Update(ctx, id, p)
}

func seedUser(t *testing.T, store *memory.Store, hasher *fakeHasher, email, password string, r role.Role) user.Record {
	t.Helper()
	hash, err := hasher.Hash(context.Background(), password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	rec, err := store.Create(context.Background(), user.CreateInput{Email: email, PasswordHash: hash, Name: "Seed", Role: r})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return rec
}
