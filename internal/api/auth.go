package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/eagle-green/mysked/internal/store"
)

// AuthHandler manages token state local to this service.
type AuthHandler struct {
	DB *sql.DB
}

// Logout revokes the presented token until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if claims.ID == "" {
		jsonError(w, http.StatusBadRequest, "token has no id and cannot be revoked")
		return
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt); err != nil {
		slog.ErrorContext(r.Context(), "revoking token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
