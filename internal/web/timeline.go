package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/eagle-green/mysked/internal/feed"
	"github.com/eagle-green/mysked/internal/timeline"
)

// TimelinePage handles GET /{entity}/{id}/history.
func (s *Server) TimelinePage(w http.ResponseWriter, r *http.Request) {
	entity, id := r.PathValue("entity"), r.PathValue("id")
	if !slices.Contains(s.Entities, entity) {
		http.NotFound(w, r)
		return
	}

	tab, err := timeline.ParseTab(r.URL.Query().Get("tab"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	claims := GetWebClaims(r)
	result, err := s.Feed.Timeline(r.Context(), feed.Request{
		Entity:   entity,
		ID:       id,
		Tab:      tab,
		Page:     page,
		PageSize: s.PageSize,
		Scope:    claims.UserID,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to build timeline page", "entity", entity, "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.Templates.Render(w, "timeline.html", &struct {
		PageData
		Entity string
		ID     string
		Tabs   []timeline.Tab
		Result *feed.Page
		Base   string
	}{
		PageData: PageData{Title: fmt.Sprintf("%s %s history", entity, id), User: claims},
		Entity:   entity,
		ID:       id,
		Tabs:     timeline.Tabs(),
		Result:   result,
		Base:     fmt.Sprintf("/%s/%s/history", entity, id),
	})
}

// pageParam parses the zero-based ?page= parameter.
func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 || page > timeline.MaxPage {
		return 0, fmt.Errorf("invalid page %q", raw)
	}
	return page, nil
}
