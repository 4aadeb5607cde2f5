package upstream

import (
	"context"

	"github.com/eagle-green/mysked/internal/model"
)

// MissingQuery selects one backend page of missing timecards.
type MissingQuery struct {
	Limit  int
	Offset int
}

// MissingPage is one page of missing timecards and the backend total.
type MissingPage struct {
	Timecards []model.MissingTimecard `json:"timecards"`
	Total     int                     `json:"total"`
}

// MissingTimecards fetches GET /timesheets/missing.
func (c *Client) MissingTimecards(ctx context.Context, q MissingQuery) (*MissingPage, error) {
	body, err := c.get(ctx, EndpointMissing, "/timesheets/missing", pageQuery(q.Limit, q.Offset))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			Timesheets []model.MissingTimecard `json:"timesheets"`
			Pagination *pagination             `json:"pagination"`
		} `json:"data"`
	}
	if err := decode(body, timesheetsSchema, &resp); err != nil {
		return nil, err
	}

	page := &MissingPage{
		Timecards: resp.Data.Timesheets,
		Total:     total(resp.Data.Pagination, len(resp.Data.Timesheets)),
	}
	if page.Timecards == nil {
		page.Timecards = []model.MissingTimecard{}
	}
	return page, nil
}

// StatusCounts fetches GET /timesheets/status-counts.
func (c *Client) StatusCounts(ctx context.Context) (model.StatusCounts, error) {
	body, err := c.get(ctx, EndpointStatusCounts, "/timesheets/status-counts", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			Counts model.StatusCounts `json:"counts"`
		} `json:"data"`
	}
	if err := decode(body, statusCountsSchema, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Counts == nil {
		resp.Data.Counts = model.StatusCounts{}
	}
	return resp.Data.Counts, nil
}
