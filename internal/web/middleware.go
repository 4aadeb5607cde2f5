package web

import (
	"database/sql"
	"net/http"
	"net/url"

	"github.com/eagle-green/mysked/internal/api"
	"github.com/eagle-green/mysked/internal/auth"
)

// CookieName is the cookie carrying the backend-issued token.
const CookieName = "token"

// CookieAuthMiddleware validates the JWT from the token cookie, checks
// revocation, and adds the claims to the context. Unauthenticated requests
// are redirected to loginURL with the original path in ?next=.
func CookieAuthMiddleware(secret string, db *sql.DB, loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				redirectToLogin(w, r, loginURL)
				return
			}

			claims, err := api.Authenticate(r.Context(), secret, db, cookie.Value)
			if err != nil {
				clearAuthCookie(w)
				redirectToLogin(w, r, loginURL)
				return
			}

			ctx := api.WithClaims(r.Context(), claims, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, loginURL string) {
	target, err := url.Parse(loginURL)
	if err != nil {
		target = &url.URL{Path: "/login"}
	}
	q := target.Query()
	q.Set("next", r.URL.RequestURI())
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(r *http.Request) *auth.Claims {
	return api.GetClaims(r.Context())
}
