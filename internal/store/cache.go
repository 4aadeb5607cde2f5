package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetCached returns the value stored under key if it has not expired at now.
// Returns nil, nil on a miss.
func GetCached(ctx context.Context, db *sql.DB, key string, now time.Time) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx,
		`SELECT value FROM response_cache WHERE key = ? AND expires_at > ?`,
		key, now.UnixMilli(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting cached response: %w", err)
	}
	return value, nil
}

// PutCached stores value under key, replacing any previous value.
func PutCached(ctx context.Context, db *sql.DB, key, tag string, value []byte, now, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO response_cache (key, tag, value, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		     tag = excluded.tag,
		     value = excluded.value,
		     expires_at = excluded.expires_at,
		     created_at = excluded.created_at`,
		key, tag, value, expiresAt.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("storing cached response: %w", err)
	}
	return nil
}

// DeleteCachedTag removes every cached response carrying tag and returns the
// number of rows removed.
func DeleteCachedTag(ctx context.Context, db *sql.DB, tag string) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM response_cache WHERE tag = ?`, tag)
	if err != nil {
		return 0, fmt.Errorf("deleting cached responses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted responses: %w", err)
	}
	return n, nil
}

// PurgeExpiredCache removes responses that expired at or before now.
func PurgeExpiredCache(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM response_cache WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purging expired responses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged responses: %w", err)
	}
	return n, nil
}
