package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eagle-green/mysked/internal/api"
	"github.com/eagle-green/mysked/internal/store"
)

// LoginPage handles GET /login. Tokens are issued by the backend; the page
// accepts one and stores it in the session cookie.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &struct {
		PageData
		Next string
	}{
		PageData: PageData{Title: "Sign in"},
		Next:     safeNext(r.URL.Query().Get("next")),
	})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.FormValue("token"))
	next := safeNext(r.FormValue("next"))

	render := func(msg string) {
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", &struct {
			PageData
			Next string
		}{
			PageData: PageData{Title: "Sign in", Error: msg},
			Next:     next,
		})
	}

	if token == "" {
		render("Paste the token issued by the scheduling app.")
		return
	}
	claims, err := api.Authenticate(r.Context(), s.JWTSecret, s.DB, token)
	if err != nil {
		render("That token is not valid: " + err.Error() + ".")
		return
	}

	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if claims.ExpiresAt != nil {
		cookie.Expires = claims.ExpiresAt.Time
	}
	http.SetCookie(w, cookie)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout handles POST /logout. The token is revoked so the cookie value
// cannot be replayed.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if claims, err := api.Authenticate(r.Context(), s.JWTSecret, s.DB, cookie.Value); err == nil && claims.ID != "" {
			expiresAt := time.Now().Add(24 * time.Hour)
			if claims.ExpiresAt != nil {
				expiresAt = claims.ExpiresAt.Time
			}
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, expiresAt); err != nil {
				slog.ErrorContext(r.Context(), "revoking token on logout", "error", err)
			}
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, s.LoginURL, http.StatusSeeOther)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
