// Package sqlstore implements user.Store on database/sql.
//
// Two dialects are supported: PostgreSQL through github.com/lib/pq and SQLite
// through github.com/mattn/go-sqlite3. Queries are written once with
// PostgreSQL-style $N placeholders and rebound for SQLite. Email uniqueness is
// enforced by a UNIQUE constraint; a violation surfaces as user.ErrConflict.
package sqlstore
