package sqlstore

import (
	"context"
	"fmt"
)

func schemaStatements(d Dialect) []string {
	ts := d.timestampType()
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
	id VARCHAR(36) PRIMARY KEY,
	email VARCHAR(320) NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name VARCHAR(255) NOT NULL,
	image TEXT,
	role VARCHAR(16) NOT NULL,
	created_at %s NOT NULL,
	updated_at %s NOT NULL
)`, ts, ts),
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role, created_at)`,
	}
}

// Migrate creates the users table and its indexes when they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}
	return nil
}
