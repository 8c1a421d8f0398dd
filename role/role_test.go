package role

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseKnownRoles(t *testing.T) {
	cases := map[string]Role{
		"PATIENT":  Patient,
		"doctor":   Doctor,
		" Admin  ": Admin,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "NURSE", "ROOT", "patient2"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Parse(%q) expected ErrInvalid, got %v", in, err)
		}
	}
}

func TestZeroRoleInvalid(t *testing.T) {
	var r Role
	if r.Valid() {
		t.Fatal("expected zero role to be invalid")
	}
	if _, err := r.MarshalText(); err == nil {
		t.Fatal("expected zero role marshal to fail")
	}
}

func TestRoleJSONRoundTrip(t *testing.T) {
	payload := struct {
		Role Role `json:"role"`
	}{Role: Doctor}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"role":"DOCTOR"}` {
		t.Fatalf("unexpected encoding %s", data)
	}

	var decoded struct {
		Role Role `json:"role"`
	}
	if err := json.Unmarshal([]byte(`{"role":"SUPERUSER"}`), &decoded); err == nil {
		t.Fatal("expected unknown role to fail decoding")
	}
}

func TestSetMembership(t *testing.T) {
	s := NewSet(Doctor, Admin)
	if s.Has(Patient) {
		t.Fatal("patient should not be a member")
	}
	if !s.Has(Doctor) || !s.Has(Admin) {
		t.Fatal("doctor and admin should be members")
	}
	if s.Has(Role(0)) || s.Has(Role(42)) {
		t.Fatal("invalid roles must never be members")
	}

	s.Remove(Admin)
	if s.Has(Admin) {
		t.Fatal("admin should be removed")
	}
	if got := s.String(); got != "{DOCTOR}" {
		t.Fatalf("unexpected set string %s", got)
	}
}

func TestParseSet(t *testing.T) {
	s, err := ParseSet("patient, DOCTOR,,")
	if err != nil {
		t.Fatalf("ParseSet error: %v", err)
	}
	if !s.Has(Patient) || !s.Has(Doctor) || s.Has(Admin) {
		t.Fatalf("unexpected members %s", s)
	}
	if _, err := ParseSet("PATIENT,JANITOR"); err == nil {
		t.Fatal("expected unknown role in list to fail")
	}
	empty, err := ParseSet("")
	if err != nil || !empty.Empty() {
		t.Fatalf("expected empty set, got %s err=%v", empty, err)
	}
}
