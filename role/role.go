package role

import (
	"errors"
	"fmt"
	"strings"
)

// Role is a closed enumeration of account roles.
type Role uint8

const (
	// Patient is the default role for self-registered accounts.
	Patient Role = iota + 1
	// Doctor marks clinician accounts listed by the doctors directory.
	Doctor
	// Admin is the administrative staff role.
	Admin

	roleCount = iota
)

// ErrInvalid is returned when text does not name a known role.
var ErrInvalid = errors.New("invalid role")

// All returns every valid role in declaration order.
func All() []Role {
	return []Role{Patient, Doctor, Admin}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case Patient, Doctor, Admin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	switch r {
	case Patient:
		return "PATIENT"
	case Doctor:
		return "DOCTOR"
	case Admin:
		return "ADMIN"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Parse converts untrusted text into a Role. Matching is case-insensitive and
// ignores surrounding whitespace.
func Parse(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PATIENT":
		return Patient, nil
	case "DOCTOR":
		return Doctor, nil
	case "ADMIN":
		return Admin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
}

// MarshalText encodes a valid role as its upper-case name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalid, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name produced by MarshalText.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
