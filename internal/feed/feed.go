// Package feed builds the timeline and missing-timecard views: it plans the
// upstream reads for a tab, issues them concurrently, absorbs failures into
// empty lists and runs the result through grouping, merging, pagination and
// presentation.
package feed

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eagle-green/mysked/internal/model"
	"github.com/eagle-green/mysked/internal/timeline"
	"github.com/eagle-green/mysked/internal/upstream"
)

// MaxClientRecords is the single upstream page size used by feeds that are
// paginated locally.
const MaxClientRecords = 10000

// Source is the read side of the backend. *upstream.Client implements it.
type Source interface {
	History(ctx context.Context, q upstream.HistoryQuery) (*upstream.HistoryPage, error)
	Transactions(ctx context.Context, q upstream.TransactionQuery) (*upstream.TransactionPage, error)
	MissingTimecards(ctx context.Context, q upstream.MissingQuery) (*upstream.MissingPage, error)
	StatusCounts(ctx context.Context) (model.StatusCounts, error)
}

// Service assembles views from a Source.
type Service struct {
	Source   Source
	Location *time.Location
	PageSize int
	Now      func() time.Time
}

// NewService returns a service reading from src. Dates are compared in loc.
func NewService(src Source, loc *time.Location, pageSize int) *Service {
	if loc == nil {
		loc = time.Local
	}
	if pageSize <= 0 {
		pageSize = timeline.DefaultPageSize
	}
	return &Service{Source: src, Location: loc, PageSize: pageSize, Now: time.Now}
}

func (s *Service) now() time.Time {
	return s.Now().In(s.Location)
}

// Request selects one page of an entity's timeline.
type Request struct {
	Entity   string
	ID       string
	Tab      timeline.Tab
	Page     int
	PageSize int
	// Scope partitions cached responses, normally the caller's user id.
	Scope string
}

// Page is one presented page of a timeline.
type Page struct {
	Tab        timeline.Tab            `json:"tab"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	Total      int                     `json:"total"`
	TotalPages int                     `json:"total_pages"`
	Pagination timeline.PaginationMode `json:"pagination"`
	Entries    []timeline.Entry        `json:"entries"`
}

// sources holds what the planned fetches returned. Failed fetches leave
// their lists empty.
type sources struct {
	history      []model.HistoryEntry
	historyTotal int
	transactions []model.InventoryTransaction
}

// fetch issues the reads of plan concurrently and waits for both. A failure
// of one read does not cancel the other.
func (s *Service) fetch(ctx context.Context, req Request, plan timeline.Plan, limit, offset int) sources {
	var (
		out sources
		g   errgroup.Group
	)

	if plan.FetchHistory {
		g.Go(func() error {
			page, err := s.Source.History(ctx, upstream.HistoryQuery{
				Entity:     req.Entity,
				ID:         req.ID,
				Limit:      limit,
				Offset:     offset,
				ActionType: plan.ActionFilter,
			})
			if err != nil {
				slog.WarnContext(ctx, "fetching history failed", "entity", req.Entity, "id", req.ID, "tab", plan.Tab, "error", err)
				return nil
			}
			out.history, out.historyTotal = page.Entries, page.Total
			return nil
		})
	}

	if plan.FetchTransactions {
		g.Go(func() error {
			page, err := s.Source.Transactions(ctx, upstream.TransactionQuery{
				Entity: req.Entity,
				ID:     req.ID,
				Limit:  MaxClientRecords,
			})
			if err != nil {
				slog.WarnContext(ctx, "fetching transactions failed", "entity", req.Entity, "id", req.ID, "error", err)
				return nil
			}
			out.transactions = page.Transactions
			return nil
		})
	}

	_ = g.Wait()
	return out
}

// Timeline returns one presented page of the requested tab.
func (s *Service) Timeline(ctx context.Context, req Request) (*Page, error) {
	ctx = WithScope(ctx, req.Scope)
	state := timeline.NewTabState().Select(req.Tab).GoTo(req.Page)
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.PageSize
	}
	plan := state.Tab.Plan()

	var (
		items []model.TimelineItem
		total int
	)
	switch plan.Pagination {
	case timeline.PaginationServer:
		offset, ok := timeline.Offset(state.Page, pageSize)
		if !ok {
			slog.WarnContext(ctx, "timeline page out of range", "page", state.Page, "page_size", pageSize)
			items = []model.TimelineItem{}
			break
		}
		src := s.fetch(ctx, req, plan, pageSize, offset)
		items = timeline.HistoryOnly(src.history)
		total = src.historyTotal
	default:
		all := s.feed(ctx, req, plan)
		total = len(all)
		items = timeline.Paginate(all, state.Page, pageSize)
	}

	return &Page{
		Tab:        state.Tab,
		Page:       state.Page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: timeline.PageCount(total, pageSize),
		Pagination: plan.Pagination,
		Entries:    timeline.Present(items, s.now()),
	}, nil
}

// All returns every presented entry of the tab, for exports. Server-paginated
// tabs are read as one page of MaxClientRecords.
func (s *Service) All(ctx context.Context, req Request) ([]timeline.Entry, error) {
	ctx = WithScope(ctx, req.Scope)
	plan := timeline.NewTabState().Select(req.Tab).Tab.Plan()

	var items []model.TimelineItem
	if plan.Pagination == timeline.PaginationServer {
		items = timeline.HistoryOnly(s.fetch(ctx, req, plan, MaxClientRecords, 0).history)
	} else {
		items = s.feed(ctx, req, plan)
	}
	return timeline.Present(items, s.now()), nil
}

// feed returns the full locally paginated list of a site or all tab.
func (s *Service) feed(ctx context.Context, req Request, plan timeline.Plan) []model.TimelineItem {
	src := s.fetch(ctx, req, plan, MaxClientRecords, 0)
	grouped := timeline.Group(src.transactions)
	if !plan.FetchHistory {
		return timeline.TransactionsOnly(grouped)
	}
	return timeline.Merge(src.history, grouped)
}

// Invalidate drops cached responses about an entity. It is a no-op when the
// source does not cache.
func (s *Service) Invalidate(ctx context.Context, entity, id string) error {
	inv, ok := s.Source.(interface {
		Invalidate(ctx context.Context, entity, id string) error
	})
	if !ok {
		return nil
	}
	return inv.Invalidate(ctx, entity, id)
}
