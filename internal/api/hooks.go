package api

import (
	"log/slog"
	"net/http"

	"github.com/eagle-green/mysked/internal/auth"
	"github.com/eagle-green/mysked/internal/feed"
)

// WebhookKeyHeader carries the shared webhook key.
const WebhookKeyHeader = "X-Webhook-Key"

// TimesheetsEntity names the timesheet reads in invalidation hooks.
const TimesheetsEntity = "timesheets"

// HooksHandler receives mutation notifications from the backend.
type HooksHandler struct {
	Feed     *feed.Service
	KeyHash  string
	Entities []string
}

type invalidateRequest struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

// Invalidate drops cached responses about the entity named in the body.
// Timesheet reads are dropped with {"entity": "timesheets"}.
func (h *HooksHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	if err := auth.VerifyWebhookKey(h.KeyHash, r.Header.Get(WebhookKeyHeader)); err != nil {
		jsonError(w, http.StatusUnauthorized, "invalid webhook key")
		return
	}

	var req invalidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Entity == TimesheetsEntity {
		req.ID = "all"
	}
	if req.Entity != TimesheetsEntity && !knownEntity(h.Entities, req.Entity) {
		jsonError(w, http.StatusBadRequest, "unknown entity")
		return
	}
	if req.ID == "" {
		jsonError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.Feed.Invalidate(r.Context(), req.Entity, req.ID); err != nil {
		slog.ErrorContext(r.Context(), "invalidating cache from webhook", "entity", req.Entity, "id", req.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to invalidate cache")
		return
	}
	slog.InfoContext(r.Context(), "cache invalidated by webhook", "entity", req.Entity, "id", req.ID)
	w.WriteHeader(http.StatusNoContent)
}
