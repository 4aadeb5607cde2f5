package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/eagle-green/mysked/internal/cache"
	"github.com/eagle-green/mysked/internal/model"
	"github.com/eagle-green/mysked/internal/telemetry"
	"github.com/eagle-green/mysked/internal/upstream"
)

// TimesheetsTag tags cached timesheet reads.
const TimesheetsTag = "timesheets/all"

// CachedSource serves reads from a cache and falls through to the wrapped
// source on a miss. Cache failures are logged and never fail a read.
type CachedSource struct {
	Source Source
	Cache  cache.Cache
	TTL    time.Duration

	lookups metric.Int64Counter
}

// NewCachedSource wraps src with c. Entries live for ttl.
func NewCachedSource(src Source, c cache.Cache, ttl time.Duration) *CachedSource {
	lookups, err := otel.Meter(telemetry.InstrumentationName).Int64Counter("mysked.cache.lookups",
		metric.WithDescription("Source cache lookups by endpoint and result"),
	)
	if err != nil {
		slog.Warn("creating cache lookup counter", "error", err)
	}
	return &CachedSource{Source: src, Cache: c, TTL: ttl, lookups: lookups}
}

func (c *CachedSource) History(ctx context.Context, q upstream.HistoryQuery) (*upstream.HistoryPage, error) {
	key := cache.KeyParts{
		Endpoint:   upstream.EndpointHistory,
		Entity:     q.Entity,
		ID:         q.ID,
		ActionType: string(q.ActionType),
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	return cached(ctx, c, key, cache.Tag(q.Entity, q.ID), func() (*upstream.HistoryPage, error) {
		return c.Source.History(ctx, q)
	})
}

func (c *CachedSource) Transactions(ctx context.Context, q upstream.TransactionQuery) (*upstream.TransactionPage, error) {
	key := cache.KeyParts{
		Endpoint: upstream.EndpointTransactions,
		Entity:   q.Entity,
		ID:       q.ID,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	return cached(ctx, c, key, cache.Tag(q.Entity, q.ID), func() (*upstream.TransactionPage, error) {
		return c.Source.Transactions(ctx, q)
	})
}

func (c *CachedSource) MissingTimecards(ctx context.Context, q upstream.MissingQuery) (*upstream.MissingPage, error) {
	key := cache.KeyParts{Endpoint: upstream.EndpointMissing, Limit: q.Limit, Offset: q.Offset}
	return cached(ctx, c, key, TimesheetsTag, func() (*upstream.MissingPage, error) {
		return c.Source.MissingTimecards(ctx, q)
	})
}

func (c *CachedSource) StatusCounts(ctx context.Context) (model.StatusCounts, error) {
	key := cache.KeyParts{Endpoint: upstream.EndpointStatusCounts}
	return cached(ctx, c, key, TimesheetsTag, func() (model.StatusCounts, error) {
		return c.Source.StatusCounts(ctx)
	})
}

// Invalidate drops every cached read about an entity.
func (c *CachedSource) Invalidate(ctx context.Context, entity, id string) error {
	return c.Cache.Invalidate(ctx, cache.Tag(entity, id))
}

func cached[T any](ctx context.Context, c *CachedSource, parts cache.KeyParts, tag string, fetch func() (T, error)) (T, error) {
	parts.Scope = ScopeFrom(ctx)
	key := cache.Key(parts)

	data, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "reading source cache", "endpoint", parts.Endpoint, "error", err)
	}
	if ok {
		var v T
		decodeErr := json.Unmarshal(data, &v)
		if decodeErr == nil {
			c.count(ctx, parts.Endpoint, "hit")
			return v, nil
		}
		slog.WarnContext(ctx, "decoding cached response", "endpoint", parts.Endpoint, "error", decodeErr)
	}
	c.count(ctx, parts.Endpoint, "miss")

	v, err := fetch()
	if err != nil {
		return v, err
	}

	data, err = json.Marshal(v)
	if err == nil {
		err = c.Cache.Set(ctx, key, tag, data, c.TTL)
	}
	if err != nil {
		slog.WarnContext(ctx, "writing source cache", "endpoint", parts.Endpoint, "error", err)
	}
	return v, nil
}

func (c *CachedSource) count(ctx context.Context, endpoint, result string) {
	if c.lookups == nil {
		return
	}
	c.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("result", result),
	))
}
