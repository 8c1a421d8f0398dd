package user

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/userauth/role"
)

var (
	// ErrNotFound is returned by a Store when no record matches.
	ErrNotFound = errors.New("user record not found")
	// ErrConflict is returned by Store.Create when the email is already taken.
	ErrConflict = errors.New("user record conflict")
)

// Record is the durable account owned by the credential store.
type Record struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Image        *string
	Role         role.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View is the sanitized representation of a Record. It never carries the
// password hash.
type View struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     *string   `json:"image"`
	Role      role.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// View strips secret fields from r.
func (r Record) View() View {
	return View{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Image:     cloneString(r.Image),
		Role:      r.Role,
		CreatedAt: r.CreatedAt,
	}
}

// Views sanitizes a slice of records.
func Views(records []Record) []View {
	out := make([]View, 0, len(records))
	for _, r := range records {
		out = append(out, r.View())
	}
	return out
}

// CreateInput carries the fields of a new record. The store assigns ID and
// timestamps.
type CreateInput struct {
	Email        string
	PasswordHash string
	Name         string
	Image        *string
	Role         role.Role
}

// Patch lists field replacements for Store.Update. Nil fields are left
// untouched. A non-nil Image pointing at "" clears the image.
type Patch struct {
	Name         *string
	PasswordHash *string
	Image        *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.PasswordHash == nil && p.Image == nil
}

// Apply returns r with the patch applied. Stores use it to keep update
// semantics identical across backends.
func (p Patch) Apply(r Record) Record {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.PasswordHash != nil {
		r.PasswordHash = *p.PasswordHash
	}
	if p.Image != nil {
		if *p.Image == "" {
			r.Image = nil
		} else {
			r.Image = cloneString(p.Image)
		}
	}
	return r
}

// Store is the credential store contract. Implementations must enforce email
// uniqueness atomically at create time and report it as ErrConflict.
type Store interface {
	FindByEmail(ctx context.Context, email string) (Record, error)
	FindByID(ctx context.Context, id string) (Record, error)
	Create(ctx context.Context, input CreateInput) (Record, error)
	Update(ctx context.Context, id string, patch Patch) (Record, error)
	ListByRole(ctx context.Context, r role.Role) ([]Record, error)
}

// RoleAssigner is implemented by stores that support administrative role
// changes. SetRole returns the updated record or ErrNotFound.
type RoleAssigner interface {
	SetRole(ctx context.Context, id string, r role.Role) (Record, error)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
