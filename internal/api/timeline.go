package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eagle-green/mysked/internal/export"
	"github.com/eagle-green/mysked/internal/feed"
	"github.com/eagle-green/mysked/internal/timeline"
)

// MaxPageSize bounds the page_size parameter.
const MaxPageSize = 100

// TimelineHandler serves entity timelines.
type TimelineHandler struct {
	Feed     *feed.Service
	Entities []string
	PageSize int
	Location *time.Location
}

// request parses the entity, tab and paging parameters shared by the
// timeline endpoints. It writes the error response itself.
func (h *TimelineHandler) request(w http.ResponseWriter, r *http.Request) (feed.Request, bool) {
	entity, id := r.PathValue("entity"), r.PathValue("id")
	if !knownEntity(h.Entities, entity) {
		jsonError(w, http.StatusNotFound, fmt.Sprintf("unknown entity %q", entity))
		return feed.Request{}, false
	}
	if id == "" {
		jsonError(w, http.StatusBadRequest, "missing id")
		return feed.Request{}, false
	}

	tab, err := timeline.ParseTab(r.URL.Query().Get("tab"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return feed.Request{}, false
	}
	page, err := queryPage(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return feed.Request{}, false
	}
	pageSize, err := queryInt(r, "page_size", h.PageSize)
	if err != nil || pageSize == 0 || pageSize > MaxPageSize {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("page_size must be between 1 and %d", MaxPageSize))
		return feed.Request{}, false
	}

	req := feed.Request{Entity: entity, ID: id, Tab: tab, Page: page, PageSize: pageSize}
	if claims := GetClaims(r.Context()); claims != nil {
		req.Scope = claims.UserID
	}
	return req, true
}

// Get returns one page of the timeline.
func (h *TimelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, ok := h.request(w, r)
	if !ok {
		return
	}

	page, err := h.Feed.Timeline(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "building timeline", "entity", req.Entity, "id", req.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to build timeline")
		return
	}
	jsonResponse(w, http.StatusOK, page)
}

// Export returns every entry of the tab as an XLSX workbook.
func (h *TimelineHandler) Export(w http.ResponseWriter, r *http.Request) {
	req, ok := h.request(w, r)
	if !ok {
		return
	}

	entries, err := h.Feed.All(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "building timeline export", "entity", req.Entity, "id", req.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to build timeline")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTimeline(&buf, entries, h.Location); err != nil {
		slog.ErrorContext(r.Context(), "writing timeline export", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to write export")
		return
	}

	filename := fmt.Sprintf("%s-%s-%s.xlsx", req.Entity, req.ID, req.Tab)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Invalidate drops cached upstream responses about the entity.
func (h *TimelineHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	entity, id := r.PathValue("entity"), r.PathValue("id")
	if !knownEntity(h.Entities, entity) {
		jsonError(w, http.StatusNotFound, fmt.Sprintf("unknown entity %q", entity))
		return
	}

	if err := h.Feed.Invalidate(r.Context(), entity, id); err != nil {
		slog.ErrorContext(r.Context(), "invalidating cache", "entity", entity, "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to invalidate cache")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func knownEntity(entities []string, name string) bool {
	for _, e := range entities {
		if e == name {
			return true
		}
	}
	return false
}
