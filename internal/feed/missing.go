package feed

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/eagle-green/mysked/internal/model"
	"github.com/eagle-green/mysked/internal/timeline"
	"github.com/eagle-green/mysked/internal/upstream"
)

// MissingRequest selects one page of missing timecards.
type MissingRequest struct {
	Page     int
	PageSize int
	Scope    string
}

// MissingEntry is a missing timecard with its overdue flag.
type MissingEntry struct {
	model.MissingTimecard
	Overdue bool `json:"overdue"`
}

// MissingView is one page of missing timecards with status counts. Counts
// holds the backend aggregate plus the overdue buckets computed over every
// fetched timecard; keys the backend reports are kept as reported.
type MissingView struct {
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	Total      int                `json:"total"`
	TotalPages int                `json:"total_pages"`
	Timecards  []MissingEntry     `json:"timecards"`
	Counts     model.StatusCounts `json:"counts"`
}

// Missing returns one page of missing timecards. The list is read as one
// upstream page of MaxClientRecords and paginated locally so the buckets
// cover all of it. The list and the status counts are read concurrently;
// either failing yields an empty part.
func (s *Service) Missing(ctx context.Context, req MissingRequest) (*MissingView, error) {
	ctx = WithScope(ctx, req.Scope)
	page := max(req.Page, 0)
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.PageSize
	}

	var (
		list   = &upstream.MissingPage{Timecards: []model.MissingTimecard{}}
		counts = model.StatusCounts{}
		g      errgroup.Group
	)
	g.Go(func() error {
		p, err := s.Source.MissingTimecards(ctx, upstream.MissingQuery{Limit: MaxClientRecords})
		if err != nil {
			slog.WarnContext(ctx, "fetching missing timecards failed", "error", err)
			return nil
		}
		list = p
		return nil
	})
	g.Go(func() error {
		c, err := s.Source.StatusCounts(ctx)
		if err != nil {
			slog.WarnContext(ctx, "fetching timesheet status counts failed", "error", err)
			return nil
		}
		counts = c
		return nil
	})
	_ = g.Wait()

	total := max(list.Total, len(list.Timecards))
	if total > len(list.Timecards) {
		slog.WarnContext(ctx, "missing timecards truncated", "total", total, "fetched", len(list.Timecards))
	}

	now := s.now()
	buckets := timeline.CountMissing(list.Timecards, now)
	buckets[timeline.CountTotal] = total
	merged := make(model.StatusCounts, len(counts)+len(buckets))
	for k, v := range buckets {
		merged[k] = v
	}
	for k, v := range counts {
		merged[k] = v
	}

	rows := timeline.Paginate(list.Timecards, page, pageSize)
	entries := make([]MissingEntry, 0, len(rows))
	for _, m := range rows {
		entries = append(entries, MissingEntry{MissingTimecard: m, Overdue: timeline.IsOverdue(m, now)})
	}

	return &MissingView{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: timeline.PageCount(total, pageSize),
		Timecards:  entries,
		Counts:     merged,
	}, nil
}
