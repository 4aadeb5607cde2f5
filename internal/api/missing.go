package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/eagle-green/mysked/internal/feed"
)

// MissingHandler serves the missing timecards view.
type MissingHandler struct {
	Feed     *feed.Service
	PageSize int
}

// List returns one page of missing timecards with status counts.
func (h *MissingHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := queryInt(r, "page_size", h.PageSize)
	if err != nil || pageSize == 0 || pageSize > MaxPageSize {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("page_size must be between 1 and %d", MaxPageSize))
		return
	}

	req := feed.MissingRequest{Page: page, PageSize: pageSize}
	if claims := GetClaims(r.Context()); claims != nil {
		req.Scope = claims.UserID
	}

	view, err := h.Feed.Missing(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "building missing timecards", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load missing timecards")
		return
	}
	jsonResponse(w, http.StatusOK, view)
}
