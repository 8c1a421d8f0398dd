package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/userauth/role"
	"github.com/MrEthical07/userauth/store/memory"
	"github.com/MrEthical07/userauth/user"
)

// countingStore records Update calls.
type countingStore struct {
	user.Store
	updates int
}

func (s *countingStore) Update(ctx context.Context, id string, p user.Patch) (user.Record, error) {
	s.updates++
	return s.Store.Update(ctx, id, p)
}

func profileDeps(store user.Store, hasher *fakeHasher) ProfileDeps {
	return ProfileDeps{
		IsPasswordPolicy: func(err error) bool { return errors.Is(err, errPolicy) },
		Users:            store,
		Hasher:           hasher,
	}
}

func TestRunUpdateProfileNoOp(t *testing.T) {
	hasher := &fakeHasher{}
	base := memory.New()
	rec := seedUser(t, base, hasher, "a@x.com", "pw", role.Patient)
	store := &countingStore{Store: base}

	for _, req := range []ProfileRequest{
		{},
		{Name: rec.Name},
		{NewPassword: "new"},
		{CurrentPassword: "pw"},
		{Image: new(string)},
	} {
		res := RunUpdateProfile(context.Background(), rec.ID, req, profileDeps(store, hasher))
		if res.Failure != ProfileFailureNone || res.Changed {
			t.Fatalf("expected no-op for %+v, got %v changed=%v", req, res.Failure, res.Changed)
		}
		if res.Record.PasswordHash != rec.PasswordHash {
			t.Fatalf("password hash changed for %+v", req)
		}
	}
	if store.updates != 0 {
		t.Fatalf("expected no store writes, got %d", store.updates)
	}
}

func TestRunUpdateProfilePasswordChange(t *testing.T) {
	hasher := &fakeHasher{}
	store := memory.New()
	rec := seedUser(t, store, hasher, "a@x.com", "old", role.Patient)

	res := RunUpdateProfile(context.Background(), rec.ID, ProfileRequest{CurrentPassword: "old", NewPassword: "new"}, profileDeps(store, hasher))
	if res.Failure != ProfileFailureNone || !res.PasswordChanged {
		t.Fatalf("expected password change, got %v", res.Failure)
	}

	stored, _ := store.FindByID(context.Background(), rec.ID)
	if ok, _ := hasher.Verify(context.Background(), "old", stored.PasswordHash); ok {
		t.Fatal("old password still verifies")
	}
	if ok, _ := hasher.Verify(context.Background(), "new", stored.PasswordHash); !ok {
		t.Fatal("new password does not verify")
	}
}

func TestRunUpdateProfileWrongCurrentPassword(t *testing.T) {
	hasher := &fakeHasher{}
	base := memory.New()
	rec := seedUser(t, base, hasher, "a@x.com", "old", role.Patient)
	store := &countingStore{Store: base}

	res := RunUpdateProfile(context.Background(), rec.ID, ProfileRequest{Name: "New Name", CurrentPassword: "wrong", NewPassword: "new"}, profileDeps(store, hasher))
	if res.Failure != ProfileFailureCurrentPassword {
		t.Fatalf("expected current password failure, got %v", res.Failure)
	}
	if store.updates != 0 {
		t.Fatal("expected no partial write on password mismatch")
	}
}

func TestRunUpdateProfileNameAndImage(t *testing.T) {
	hasher := &fakeHasher{}
	store := memory.New()
	rec := seedUser(t, store, hasher, "a@x.com", "pw", role.Patient)

	image := "https://cdn/a.png"
	res := RunUpdateProfile(context.Background(), rec.ID, ProfileRequest{Name: "Ann B", Image: &image}, profileDeps(store, hasher))
	if res.Failure != ProfileFailureNone || !res.Changed || res.PasswordChanged {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Record.Name != "Ann B" || res.Record.Image == nil || *res.Record.Image != image {
		t.Fatalf("unexpected record: %+v", res.Record)
	}

	clearImage := ""
	res = RunUpdateProfile(context.Background(), rec.ID, ProfileRequest{Image: &clearImage}, profileDeps(store, hasher))
	if res.Failure != ProfileFailureNone || res.Record.Image != nil {
		t.Fatalf("expected image to be cleared, got %+v", res.Record)
	}
}

func TestRunUpdateProfileFailures(t *testing.T) {
	hasher := &fakeHasher{}
	store := memory.New()

	if res := RunUpdateProfile(context.Background(), "missing", ProfileRequest{Name: "x"}, profileDeps(store, hasher)); res.Failure != ProfileFailureUserNotFound {
		t.Fatalf("expected user not found, got %v", res.Failure)
	}

	rec := seedUser(t, store, hasher, "a@x.com", "pw", role.Patient)
	long := string(make([]byte, 80))
	if res := RunUpdateProfile(context.Background(), rec.ID, ProfileRequest{CurrentPassword: "pw", NewPassword: long}, profileDeps(store, hasher)); res.Failure != ProfileFailurePasswordPolicy {
		t.Fatalf("expected password policy failure, got %v", res.Failure)
	}

	boom := errors.New("write failed")
	if res := RunUpdateProfile(context.Background(), rec.ID, ProfileRequest{Name: "x"}, profileDeps(failingStore{Store: store, updateErr: boom}, hasher)); res.Failure != ProfileFailureUpdate {
		t.Fatalf("expected update failure, got %v", res.Failure)
	}
}
