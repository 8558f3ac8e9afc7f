package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB creates a fresh database file in a temporary directory with the
// schema applied. It is opened the same way as in production, WAL and all.
func NewTestDB(tb testing.TB) *sql.DB {
	tb.Helper()

	db, err := Open(filepath.Join(tb.TempDir(), "test.sqlite3"))
	if err != nil {
		tb.Fatalf("opening test database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	if err := EnsureSchema(db); err != nil {
		tb.Fatalf("creating test database schema: %v", err)
	}
	return db
}
