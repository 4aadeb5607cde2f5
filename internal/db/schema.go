package db

import (
	"database/sql"
	"fmt"
)

// schema holds the local state of the service: cached upstream responses
// and revoked bearer tokens. Timestamps are unix milliseconds.
const schema = `
CREATE TABLE IF NOT EXISTS response_cache (
    key        TEXT PRIMARY KEY,
    tag        TEXT NOT NULL,
    value      BLOB NOT NULL,
    expires_at INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_response_cache_tag ON response_cache(tag);
CREATE INDEX IF NOT EXISTS idx_response_cache_expires ON response_cache(expires_at);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at INTEGER NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
