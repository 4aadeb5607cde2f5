package timeline

import (
	"time"

	"github.com/eagle-green/mysked/internal/model"
)

// Client-computed missing-timecard buckets.
const (
	CountTotal    = "total"
	CountOverdue  = "overdue"
	CountDueToday = "due_today"
	CountUpcoming = "upcoming"
)

// IsOverdue reports whether a scheduled item is overdue on now's date: its
// expected completion date is strictly before today and no timesheet exists.
// Dates are compared in now's location.
func IsOverdue(m model.MissingTimecard, now time.Time) bool {
	if m.Satisfied() {
		return false
	}
	return dayOf(m.ExpectedCompletion, now.Location()).Before(dayOf(now, now.Location()))
}

// CountMissing buckets unsatisfied items by due date relative to now.
func CountMissing(items []model.MissingTimecard, now time.Time) model.StatusCounts {
	counts := model.StatusCounts{CountTotal: 0, CountOverdue: 0, CountDueToday: 0, CountUpcoming: 0}
	today := dayOf(now, now.Location())
	for _, m := range items {
		if m.Satisfied() {
			continue
		}
		counts[CountTotal]++
		due := dayOf(m.ExpectedCompletion, now.Location())
		switch {
		case due.Before(today):
			counts[CountOverdue]++
		case due.Equal(today):
			counts[CountDueToday]++
		default:
			counts[CountUpcoming]++
		}
	}
	return counts
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
