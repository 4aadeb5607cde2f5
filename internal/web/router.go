// Package web serves the server-rendered pages of the service.
package web

import (
	"net/http"

	"github.com/eagle-green/mysked/internal/api"
	webembed "github.com/eagle-green/mysked/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(d api.Deps) (http.Handler, error) {
	templates, err := LoadTemplates(d.Location)
	if err != nil {
		return nil, err
	}

	cfg := d.Config
	s := &Server{
		DB:        d.DB,
		Feed:      d.Feed,
		Templates: templates,
		JWTSecret: cfg.Auth.JWTSecret,
		LoginURL:  cfg.Auth.LoginURL,
		Entities:  cfg.Timeline.Entities,
		PageSize:  cfg.Timeline.PageSize,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(s.JWTSecret, s.DB, s.LoginURL)

	// Static assets are flat so they cannot overlap the entity routes.
	static := webembed.StaticFS()
	mux.HandleFunc("GET /static/{file}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, static, r.PathValue("file"))
	})

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Authenticated routes.
	mux.Handle("GET /{$}", cookieAuth(http.RedirectHandler("/timesheets/missing", http.StatusSeeOther)))
	mux.Handle("GET /{entity}/{id}/history", cookieAuth(http.HandlerFunc(s.TimelinePage)))
	mux.Handle("GET /timesheets/missing", cookieAuth(http.HandlerFunc(s.MissingPage)))
	mux.Handle("GET /thumbnails", cookieAuth(http.HandlerFunc(api.NewThumbnailHandler(d).Get)))

	return mux, nil
}
