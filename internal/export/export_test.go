package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eagle-green/mysked/internal/model"
	"github.com/eagle-green/mysked/internal/timeline"
)

func TestWriteTimeline(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tx := model.InventoryTransaction{
		ID:              "t1",
		TransactionType: model.TransactionSiteToVehicle,
		Quantity:        4,
		CreatedAt:       at,
		DriverName:      "Alice",
		SiteName:        "Main St",
		InventoryName:   "Cone",
	}
	items := timeline.Merge(
		[]model.HistoryEntry{{ID: "h1", ActionType: model.ActionCreated, ChangedAt: at.Add(time.Hour), Description: "Vehicle created"}},
		timeline.Group([]model.InventoryTransaction{tx}),
	)
	entries := timeline.Present(items, at.Add(2*time.Hour))

	var buf bytes.Buffer
	require.NoError(t, WriteTimeline(&buf, entries, time.UTC))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, SheetName, f.GetSheetName(0))
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"2024-01-01 10:00:00", "history", "Created", "Vehicle created", "System", "0"}, rows[1])
	assert.Equal(t, "2024-01-01 09:00:00", rows[2][0])
	assert.Equal(t, "transaction", rows[2][1])
	assert.Equal(t, "Alice picked up 4 × Cone from Main St to the vehicle (Job N/A)", rows[2][3])
	assert.Equal(t, "4", rows[2][5])
}

func TestWriteTimelineEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTimeline(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
