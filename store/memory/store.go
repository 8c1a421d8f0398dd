// Package memory provides an in-process user.Store for development and tests.
// Records live in maps guarded by a single RWMutex, so email uniqueness is
// enforced atomically at create time.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrEthical07/userauth/role"
	"github.com/MrEthical07/userauth/user"
	"github.com/google/uuid"
)

// Store is an in-memory user.Store.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]user.Record
	byEmail map[string]string
	now     func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		byID:    make(map[string]user.Record),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ user.Store        = (*Store)(nil)
	_ user.RoleAssigner = (*Store)(nil)
)

// FindByEmail returns the record stored under email, matched exactly.
func (s *Store) FindByEmail(_ context.Context, email string) (user.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return user.Record{}, user.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

// FindByID returns the record with the given id.
func (s *Store) FindByID(_ context.Context, id string) (user.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return user.Record{}, user.ErrNotFound
	}
	return clone(rec), nil
}

// Create inserts a new record with a fresh UUID. It returns user.ErrConflict
// when the email is taken.
func (s *Store) Create(_ context.Context, input user.CreateInput) (user.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[input.Email]; taken {
		return user.Record{}, user.ErrConflict
	}

	now := s.now().UTC()
	rec := user.Record{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Name:         input.Name,
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.Image != nil && *input.Image != "" {
		image := *input.Image
		rec.Image = &image
	}

	s.byID[rec.ID] = rec
	s.byEmail[rec.Email] = rec.ID
	return clone(rec), nil
}

// Update applies patch to the record with the given id.
func (s *Store) Update(_ context.Context, id string, patch user.Patch) (user.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return user.Record{}, user.ErrNotFound
	}
	rec = patch.Apply(rec)
	rec.UpdatedAt = s.now().UTC()
	s.byID[id] = rec
	return clone(rec), nil
}

// ListByRole returns every record holding r, oldest first.
func (s *Store) ListByRole(_ context.Context, r role.Role) ([]user.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]user.Record, 0)
	for _, rec := range s.byID {
		if rec.Role == r {
			out = append(out, clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a record. Nothing in the session core deletes users; this
// exists for administrative tooling and tests.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, rec.Email)
	return nil
}

// SetRole overwrites a record's role. Role changes are administrative and not
// part of the profile flow.
func (s *Store) SetRole(_ context.Context, id string, r role.Role) (user.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return user.Record{}, user.ErrNotFound
	}
	rec.Role = r
	rec.UpdatedAt = s.now().UTC()
	s.byID[id] = rec
	return clone(rec), nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func clone(rec user.Record) user.Record {
	if rec.Image != nil {
		image := *rec.Image
		rec.Image = &image
	}
	return rec
}
