package flows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/userauth/role"
	"github.com/MrEthical07/userauth/store/memory"
	"github.com/MrEthical07/userauth/user"
)

var errBadToken = errors.New("bad token")

func decodeFake(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "refresh-")
	if !ok {
		return "", errBadToken
	}
	if i := strings.LastIndex(id, "-"); i >= 0 {
		id = id[:i]
	}
	return id, nil
}

func refreshDeps(store user.Store) RefreshDeps {
	return RefreshDeps{
		DecodeRefreshToken: decodeFake,
		Users:              store,
		IssuePair:          fakeIssue,
	}
}

func TestRunRefreshIssuesNewPairFromCurrentRecord(t *testing.T) {
	store := memory.New()
	rec := seedUser(t, store, &fakeHasher{}, "a@x.com", "pw", role.Patient)
	original, _ := fakeIssue(rec)

	if _, err := store.SetRole(context.Background(), rec.ID, role.Doctor); err != nil {
		t.Fatalf("SetRole: %v", err)
	}

	res := RunRefresh(context.Background(), original.RefreshToken, refreshDeps(store))
	if res.Failure != RefreshFailureNone {
		t.Fatalf("expected success, got %v (%v)", res.Failure, res.Err)
	}
	if res.Record.Role != role.Doctor {
		t.Fatalf("expected refreshed record to carry the new role, got %v", res.Record.Role)
	}
	if res.Pair.AccessToken == original.AccessToken || res.Pair.RefreshToken == original.RefreshToken {
		t.Fatal("expected a wholly new pair")
	}

	// The presented token stays usable.
	if again := RunRefresh(context.Background(), original.RefreshToken, refreshDeps(store)); again.Failure != RefreshFailureNone {
		t.Fatalf("expected stateless reuse to succeed, got %v", again.Failure)
	}
}

func TestRunRefreshFailures(t *testing.T) {
	store := memory.New()
	rec := seedUser(t, store, &fakeHasher{}, "a@x.com", "pw", role.Patient)
	pair, _ := fakeIssue(rec)

	if res := RunRefresh(context.Background(), "", refreshDeps(store)); res.Failure != RefreshFailureMissing {
		t.Fatalf("expected missing, got %v", res.Failure)
	}
	if res := RunRefresh(context.Background(), "garbage", refreshDeps(store)); res.Failure != RefreshFailureDecode {
		t.Fatalf("expected decode failure, got %v", res.Failure)
	}

	if err := store.Delete(context.Background(), rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res := RunRefresh(context.Background(), pair.RefreshToken, refreshDeps(store)); res.Failure != RefreshFailureUserNotFound {
		t.Fatalf("expected user not found after deletion, got %v", res.Failure)
	}

	boom := errors.New("db down")
	if res := RunRefresh(context.Background(), pair.RefreshToken, refreshDeps(failingStore{Store: store, findErr: boom})); res.Failure != RefreshFailureLookup {
		t.Fatalf("expected lookup failure, got %v", res.Failure)
	}
}

func TestRunRefreshRateLimited(t *testing.T) {
	store := memory.New()
	rec := seedUser(t, store, &fakeHasher{}, "a@x.com", "pw", role.Patient)
	pair, _ := fakeIssue(rec)

	deps := refreshDeps(store)
	limiter := &fakeLimiter{checkErr: errors.New("limited")}
	deps.RateLimiter = limiter

	res := RunRefresh(context.Background(), pair.RefreshToken, deps)
	if res.Failure != RefreshFailureRateLimited || res.UserID != rec.ID {
		t.Fatalf("expected rate limited for %s, got %v %s", rec.ID, res.Failure, res.UserID)
	}
}
