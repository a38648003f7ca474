package db

import (
	"database/sql"
	"testing"
)

// NewTestDB creates an in-memory SQLite database with the full schema for
// tests. The pool is pinned to a single connection: with an in-memory
// database every additional connection would open its own private, empty
// database, which breaks tests that hit the pool from concurrent goroutines
// (the match fanout does).
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := EnsureSchema(db); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
