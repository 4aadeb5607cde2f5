package model

import "time"

// MissingTimecard is a scheduled job assignment that is expected to produce
// a timesheet. TimesheetID is set once the timesheet exists.
type MissingTimecard struct {
	JobID              string    `json:"job_id"`
	JobNumber          string    `json:"job_number,omitempty"`
	WorkerID           string    `json:"worker_id"`
	WorkerName         string    `json:"worker_name,omitempty"`
	SiteName           string    `json:"site_name,omitempty"`
	ExpectedCompletion time.Time `json:"expected_completion"`
	TimesheetID        string    `json:"timesheet_id,omitempty"`
	Status             string    `json:"status,omitempty"`
}

// Satisfied reports whether a downstream timesheet exists.
func (m MissingTimecard) Satisfied() bool {
	return m.TimesheetID != ""
}

// Timesheet statuses reported by the status-count aggregate.
const (
	TimesheetDraft     = "draft"
	TimesheetSubmitted = "submitted"
	TimesheetApproved  = "approved"
	TimesheetRejected  = "rejected"
)

// StatusCounts maps a status to the number of records in it.
type StatusCounts map[string]int
