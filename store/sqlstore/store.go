package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/userauth/role"
	"github.com/MrEthical07/userauth/user"
	"github.com/google/uuid"
)

const selectColumns = `id, email, password_hash, name, image, role, created_at, updated_at`

// Store is a user.Store backed by a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	newID   func() string
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

// WithIDGenerator replaces the UUIDv4 generator for record IDs.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// New wraps db. The caller owns db and closes it.
func New(db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: database connection is required")
	}
	if dialect.DriverName() == "" {
		return nil, errors.New("sqlstore: unknown dialect")
	}

	s := &Store{
		db:      db,
		dialect: dialect,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open opens a connection for dialect and dsn, verifies it and applies the
// schema.
func Open(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*Store, *sql.DB, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	if dialect == SQLite {
		// a single connection keeps :memory: databases visible to every query
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlstore: ping: %w", err)
	}

	s, err := New(db, dialect, opts...)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return s, db, nil
}

var (
	_ user.Store        = (*Store)(nil)
	_ user.RoleAssigner = (*Store)(nil)
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (user.Record, error) {
	var (
		rec      user.Record
		image    sql.NullString
		roleName string
	)
	if err := row.Scan(&rec.ID, &rec.Email, &rec.PasswordHash, &rec.Name, &image, &roleName, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.Record{}, user.ErrNotFound
		}
		return user.Record{}, err
	}

	r, err := role.Parse(roleName)
	if err != nil {
		return user.Record{}, fmt.Errorf("sqlstore: record %s: %w", rec.ID, err)
	}
	rec.Role = r
	if image.Valid && image.String != "" {
		v := image.String
		rec.Image = &v
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

// FindByEmail returns the record stored under email, matched exactly.
func (s *Store) FindByEmail(ctx context.Context, email string) (user.Record, error) {
	query := s.dialect.rebind(`SELECT ` + selectColumns + ` FROM users WHERE email = $1`)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, email))
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return user.Record{}, fmt.Errorf("sqlstore: find by email: %w", err)
	}
	return rec, err
}

// FindByID returns the record with the given id.
func (s *Store) FindByID(ctx context.Context, id string) (user.Record, error) {
	query := s.dialect.rebind(`SELECT ` + selectColumns + ` FROM users WHERE id = $1`)
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return user.Record{}, fmt.Errorf("sqlstore: find by id: %w", err)
	}
	return rec, err
}

// Create inserts a new record. A duplicate email yields user.ErrConflict.
func (s *Store) Create(ctx context.Context, input user.CreateInput) (user.Record, error) {
	now := s.now().UTC()
	rec := user.Record{
		ID:           s.newID(),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Name:         input.Name,
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.Image != nil && *input.Image != "" {
		v := *input.Image
		rec.Image = &v
	}

	query := s.dialect.rebind(`INSERT INTO users (` + selectColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Email, rec.PasswordHash, rec.Name, nullString(rec.Image),
		rec.Role.String(), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.Record{}, user.ErrConflict
		}
		return user.Record{}, fmt.Errorf("sqlstore: create: %w", err)
	}
	return rec, nil
}

// Update applies patch inside a transaction so concurrent patches on the same
// record never interleave.
func (s *Store) Update(ctx context.Context, id string, patch user.Patch) (user.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return user.Record{}, fmt.Errorf("sqlstore: update: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := s.dialect.rebind(`SELECT ` + selectColumns + ` FROM users WHERE id = $1` + s.dialect.lockClause())
	rec, err := scanRecord(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Record{}, err
		}
		return user.Record{}, fmt.Errorf("sqlstore: update: load: %w", err)
	}

	rec = patch.Apply(rec)
	rec.UpdatedAt = s.now().UTC()

	update := s.dialect.rebind(`UPDATE users SET name = $1, password_hash = $2, image = $3, updated_at = $4 WHERE id = $5`)
	if _, err := tx.ExecContext(ctx, update, rec.Name, rec.PasswordHash, nullString(rec.Image), rec.UpdatedAt, id); err != nil {
		return user.Record{}, fmt.Errorf("sqlstore: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return user.Record{}, fmt.Errorf("sqlstore: update: commit: %w", err)
	}
	return rec, nil
}

// ListByRole returns every record holding r, oldest first.
func (s *Store) ListByRole(ctx context.Context, r role.Role) ([]user.Record, error) {
	query := s.dialect.rebind(`SELECT ` + selectColumns + ` FROM users WHERE role = $1 ORDER BY created_at, id`)
	rows, err := s.db.QueryContext(ctx, query, r.String())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list by role: %w", err)
	}
	defer rows.Close()

	out := make([]user.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: list by role: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: list by role: %w", err)
	}
	return out, nil
}

// SetRole overwrites a record's role. Role changes are administrative and not
// part of the profile flow.
func (s *Store) SetRole(ctx context.Context, id string, r role.Role) (user.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return user.Record{}, fmt.Errorf("sqlstore: set role: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := s.dialect.rebind(`SELECT ` + selectColumns + ` FROM users WHERE id = $1` + s.dialect.lockClause())
	rec, err := scanRecord(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Record{}, err
		}
		return user.Record{}, fmt.Errorf("sqlstore: set role: load: %w", err)
	}

	rec.Role = r
	rec.UpdatedAt = s.now().UTC()

	update := s.dialect.rebind(`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`)
	if _, err := tx.ExecContext(ctx, update, r.String(), rec.UpdatedAt, id); err != nil {
		return user.Record{}, fmt.Errorf("sqlstore: set role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return user.Record{}, fmt.Errorf("sqlstore: set role: commit: %w", err)
	}
	return rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
