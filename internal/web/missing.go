package web

import (
	"log/slog"
	"net/http"

	"github.com/eagle-green/mysked/internal/feed"
	"github.com/eagle-green/mysked/internal/model"
	"github.com/eagle-green/mysked/internal/timeline"
)

// countOrder is the display order of the status count cards.
var countOrder = []string{
	timeline.CountOverdue,
	timeline.CountDueToday,
	timeline.CountUpcoming,
	model.TimesheetDraft,
	model.TimesheetSubmitted,
	model.TimesheetApproved,
	model.TimesheetRejected,
}

type countCard struct {
	Label string
	Value int
}

// MissingPage handles GET /timesheets/missing.
func (s *Server) MissingPage(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	claims := GetWebClaims(r)
	view, err := s.Feed.Missing(r.Context(), feed.MissingRequest{
		Page:     page,
		PageSize: s.PageSize,
		Scope:    claims.UserID,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to build missing timecards page", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var cards []countCard
	for _, key := range countOrder {
		if v, ok := view.Counts[key]; ok {
			cards = append(cards, countCard{Label: key, Value: v})
		}
	}

	s.Templates.Render(w, "missing.html", &struct {
		PageData
		View  *feed.MissingView
		Cards []countCard
	}{
		PageData: PageData{Title: "Missing timecards", User: claims},
		View:     view,
		Cards:    cards,
	})
}
