package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eagle-green/mysked/internal/api"
	"github.com/eagle-green/mysked/internal/cache"
	"github.com/eagle-green/mysked/internal/config"
	"github.com/eagle-green/mysked/internal/db"
	"github.com/eagle-green/mysked/internal/feed"
	"github.com/eagle-green/mysked/internal/store"
	"github.com/eagle-green/mysked/internal/telemetry"
	"github.com/eagle-green/mysked/internal/upstream"
	"github.com/eagle-green/mysked/internal/web"
)

// janitorInterval is how often expired sqlite cache rows are purged.
const janitorInterval = 5 * time.Minute

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				opts.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts.cfg)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides server.addr)")
	return cmd
}

// serve runs the server until ctx is cancelled, then shuts down gracefully.
func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (or %s) is required to serve", config.EnvJWTSecret)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// The local database always holds revoked tokens; it also holds cached
	// responses when the sqlite backend is selected.
	database, err := db.Open(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.Cache.Path)
	go purgeRevokedTokens(ctx, database, janitorInterval)

	responses, closeCache, err := openCache(ctx, cfg.Cache, database)
	if err != nil {
		return err
	}
	defer closeCache()

	client, err := upstream.New(upstream.Options{
		BaseURL:   cfg.Upstream.BaseURL,
		Timeout:   cfg.Upstream.Timeout,
		RateLimit: cfg.Upstream.RateLimit,
		Burst:     cfg.Upstream.Burst,
	})
	if err != nil {
		return fmt.Errorf("creating upstream client: %w", err)
	}

	var src feed.Source = client
	if responses != nil {
		src = feed.NewCachedSource(client, responses, cfg.Cache.TTL)
	}

	deps := api.Deps{
		Config:   cfg,
		DB:       database,
		Feed:     feed.NewService(src, loc, cfg.Timeline.PageSize),
		Assets:   client,
		Cache:    responses,
		Location: loc,
	}

	webRouter, err := web.NewRouter(deps)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewRouter(deps))
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Server.Addr, "upstream", cfg.Upstream.BaseURL, "cache", cfg.Cache.Backend)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// purgeRevokedTokens drops expired revocations every interval until ctx is done.
func purgeRevokedTokens(ctx context.Context, database *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := store.PurgeRevokedTokens(ctx, database, now); err != nil {
				slog.Warn("purging revoked tokens", "error", err)
			}
		}
	}
}

// openCache returns the configured response cache, or nil for the none
// backend. The returned close function is never nil.
func openCache(ctx context.Context, cfg config.CacheConfig, database *sql.DB) (cache.Cache, func(), error) {
	switch cfg.Backend {
	case config.CacheSQLite:
		c := cache.NewSQLite(database)
		go c.Janitor(ctx, janitorInterval)
		return c, func() {}, nil

	case config.CacheRedis:
		c := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.Ping(pctx); err != nil {
			c.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		return c, func() { c.Close() }, nil

	default:
		return nil, func() {}, nil
	}
}
