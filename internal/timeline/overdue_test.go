package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eagle-green/mysked/internal/model"
)

func TestIsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item model.MissingTimecard
		want bool
	}{
		{"yesterday", model.MissingTimecard{ExpectedCompletion: now.AddDate(0, 0, -1)}, true},
		{"earlier today", model.MissingTimecard{ExpectedCompletion: now.Add(-7 * time.Hour)}, false},
		{"tomorrow", model.MissingTimecard{ExpectedCompletion: now.AddDate(0, 0, 1)}, false},
		{"yesterday with timesheet", model.MissingTimecard{ExpectedCompletion: now.AddDate(0, 0, -1), TimesheetID: "ts"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOverdue(tt.item, now))
		})
	}
}

func TestIsOverdueUsesNowLocation(t *testing.T) {
	vancouver := time.FixedZone("PST", -8*3600)
	now := time.Date(2024, 3, 10, 1, 0, 0, 0, vancouver)
	// 2024-03-10 02:00 UTC is still March 9 in Vancouver.
	due := time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC)
	assert.True(t, IsOverdue(model.MissingTimecard{ExpectedCompletion: due}, now))
}

func TestCountMissing(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	items := []model.MissingTimecard{
		{ExpectedCompletion: now.AddDate(0, 0, -3)},
		{ExpectedCompletion: now.AddDate(0, 0, -1)},
		{ExpectedCompletion: now.Add(2 * time.Hour)},
		{ExpectedCompletion: now.AddDate(0, 0, 2)},
		{ExpectedCompletion: now.AddDate(0, 0, -5), TimesheetID: "done"},
	}

	counts := CountMissing(items, now)
	assert.Equal(t, 4, counts[CountTotal])
	assert.Equal(t, 2, counts[CountOverdue])
	assert.Equal(t, 1, counts[CountDueToday])
	assert.Equal(t, 1, counts[CountUpcoming])
}
