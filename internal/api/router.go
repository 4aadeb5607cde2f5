// Package api serves the JSON and XLSX endpoints of the service.
package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/eagle-green/mysked/internal/cache"
	"github.com/eagle-green/mysked/internal/config"
	"github.com/eagle-green/mysked/internal/feed"
	"github.com/eagle-green/mysked/internal/model"
)

// Deps are the collaborators of the API handlers.
type Deps struct {
	Config   *config.Config
	DB       *sql.DB
	Feed     *feed.Service
	Assets   AssetSource
	Cache    cache.Cache
	Location *time.Location
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	cfg := d.Config

	timelineHandler := &TimelineHandler{
		Feed:     d.Feed,
		Entities: cfg.Timeline.Entities,
		PageSize: cfg.Timeline.PageSize,
		Location: d.Location,
	}
	missingHandler := &MissingHandler{Feed: d.Feed, PageSize: cfg.Timeline.PageSize}
	hooksHandler := &HooksHandler{Feed: d.Feed, KeyHash: cfg.Auth.WebhookKeyHash, Entities: cfg.Timeline.Entities}
	thumbHandler := NewThumbnailHandler(d)
	authHandler := &AuthHandler{DB: d.DB}

	authMW := AuthMiddleware(cfg.Auth.JWTSecret, d.DB)
	requireManager := RequireRole(model.RoleManager)

	// Public: backend webhooks authenticate with a shared key.
	mux.HandleFunc("POST /api/hooks/invalidate", hooksHandler.Invalidate)

	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Timelines (all roles); cache invalidation (manager+).
	mux.Handle("GET /api/{entity}/{id}/timeline", authMW(http.HandlerFunc(timelineHandler.Get)))
	mux.Handle("GET /api/{entity}/{id}/timeline/export.xlsx", authMW(http.HandlerFunc(timelineHandler.Export)))
	mux.Handle("POST /api/{entity}/{id}/cache/invalidate", authMW(requireManager(http.HandlerFunc(timelineHandler.Invalidate))))

	mux.Handle("GET /api/timesheets/missing", authMW(http.HandlerFunc(missingHandler.List)))
	mux.Handle("GET /api/thumbnails", authMW(http.HandlerFunc(thumbHandler.Get)))

	return mux
}
