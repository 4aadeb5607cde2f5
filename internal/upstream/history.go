package upstream

import (
	"context"

	"github.com/eagle-green/mysked/internal/model"
)

// HistoryQuery selects one backend page of an entity's audit log.
// ActionType filters server side when set.
type HistoryQuery struct {
	Entity     string
	ID         string
	Limit      int
	Offset     int
	ActionType model.ActionType
}

// HistoryPage is one page of history entries and the backend total.
type HistoryPage struct {
	Entries []model.HistoryEntry `json:"entries"`
	Total   int                  `json:"total"`
}

type pagination struct {
	Total *int `json:"total"`
}

// History fetches GET /{entity}/{id}/history.
func (c *Client) History(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	query := pageQuery(q.Limit, q.Offset)
	if q.ActionType != "" {
		query.Set("action_type", string(q.ActionType))
	}

	body, err := c.get(ctx, EndpointHistory, entityPath(q.Entity, q.ID, "/history"), query)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			History    []model.HistoryEntry `json:"history"`
			Pagination *pagination          `json:"pagination"`
		} `json:"data"`
	}
	if err := decode(body, historySchema, &resp); err != nil {
		return nil, err
	}

	page := &HistoryPage{Entries: resp.Data.History, Total: total(resp.Data.Pagination, len(resp.Data.History))}
	if page.Entries == nil {
		page.Entries = []model.HistoryEntry{}
	}
	return page, nil
}

// total returns the backend total, or n when the backend sent none.
func total(p *pagination, n int) int {
	if p == nil || p.Total == nil {
		return n
	}
	return *p.Total
}
