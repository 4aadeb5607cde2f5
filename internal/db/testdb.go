package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns a fresh in-memory database with the schema applied.
// It is closed when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("applying schema: %v", err)
	}
	return database
}
