package cache

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/eagle-green/mysked/internal/store"
)

// SQLite keeps entries in the local response_cache table.
type SQLite struct {
	DB  *sql.DB
	Now func() time.Time
}

// NewSQLite returns a cache backed by database, which must have the schema
// applied.
func NewSQLite(database *sql.DB) *SQLite {
	return &SQLite{DB: database, Now: time.Now}
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := store.GetCached(ctx, s.DB, key, s.Now())
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

func (s *SQLite) Set(ctx context.Context, key, tag string, value []byte, ttl time.Duration) error {
	now := s.Now()
	return store.PutCached(ctx, s.DB, key, tag, value, now, now.Add(ttl))
}

func (s *SQLite) Invalidate(ctx context.Context, tag string) error {
	n, err := store.DeleteCachedTag(ctx, s.DB, tag)
	if err != nil {
		return err
	}
	slog.Info("cache invalidated", "tag", tag, "entries", n)
	return nil
}

// Janitor purges expired entries every interval until ctx is done.
func (s *SQLite) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpiredCache(ctx, s.DB, s.Now())
			if err != nil {
				slog.Warn("purging expired cache entries", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired cache entries", "entries", n)
			}
		}
	}
}
