package role

import "strings"

// Set is a bitmask of roles. Bit n is set when Role(n) is a member.
type Set uint64

// NewSet builds a set from roles. Invalid roles are ignored.
func NewSet(roles ...Role) Set {
	var s Set
	for _, r := range roles {
		s.Add(r)
	}
	return s
}

// Has reports whether r is a member of s.
func (s Set) Has(r Role) bool {
	if !r.Valid() {
		return false
	}
	return s&(1<<uint(r)) != 0
}

// Add inserts r into s. Invalid roles are ignored.
func (s *Set) Add(r Role) {
	if !r.Valid() {
		return
	}
	*s |= 1 << uint(r)
}

// Remove deletes r from s.
func (s *Set) Remove(r Role) {
	if !r.Valid() {
		return
	}
	*s &^= 1 << uint(r)
}

// Empty reports whether s has no members.
func (s Set) Empty() bool {
	return s == 0
}

// Roles lists members in declaration order.
func (s Set) Roles() []Role {
	out := make([]Role, 0, roleCount)
	for _, r := range All() {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s Set) String() string {
	roles := s.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}

// ParseSet parses a comma-separated role list such as "PATIENT,DOCTOR".
// Empty items are skipped; any unknown name fails the whole parse.
func ParseSet(list string) (Set, error) {
	var s Set
	for _, item := range strings.Split(list, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		r, err := Parse(item)
		if err != nil {
			return 0, err
		}
		s.Add(r)
	}
	return s, nil
}
