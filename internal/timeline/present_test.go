package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eagle-green/mysked/internal/model"
)

func TestDescribeHistoryUsesBackendDescription(t *testing.T) {
	h := model.HistoryEntry{
		ID:          "h1",
		ActionType:  model.ActionDriverAssigned,
		ChangedBy:   &model.Actor{ID: "u1", FirstName: "Jane", LastName: "Doe", PhotoURL: "https://cdn/jane.jpg"},
		ChangedAt:   base,
		Description: "Jane Doe assigned Alice to the vehicle",
	}

	d := Describe(model.HistoryItem(h), base.Add(2*time.Hour))
	assert.Equal(t, "user-plus", d.Icon)
	assert.Equal(t, ColorPrimary, d.Color)
	assert.Equal(t, "Driver Assigned", d.Title)
	assert.Equal(t, "Jane Doe assigned Alice to the vehicle", d.Description)
	assert.Equal(t, "Jane Doe", d.ActorName)
	assert.Equal(t, "https://cdn/jane.jpg", d.AvatarURL)
	assert.Equal(t, "2 hours ago", d.Relative)
}

func TestDescribeHistoryFromChanges(t *testing.T) {
	h := model.HistoryEntry{
		ActionType: model.ActionUpdated,
		ChangedAt:  base,
		Metadata: map[string]any{"changes": []any{
			map[string]any{"field_name": "license_plate", "old_value": "ABC 123", "new_value": "XYZ 789"},
		}},
	}

	d := Describe(model.HistoryItem(h), base)
	assert.Equal(t, "Updated license plate from ABC 123 to XYZ 789", d.Description)
	assert.Equal(t, "System", d.ActorName)
}

func TestDescribeTransactionFallbacks(t *testing.T) {
	tr := model.InventoryTransaction{
		ID:              "t1",
		TransactionType: model.TransactionVehicleToSite,
		Quantity:        3,
		CreatedAt:       base,
		InventoryName:   "Cone",
	}

	d := Describe(model.TransactionTimelineItem(model.TransactionItem{Transaction: &tr}), base)
	assert.Equal(t, "truck-unload", d.Icon)
	assert.Equal(t, "Vehicle to Site", d.Title)
	assert.Equal(t, "Unknown driver moved 3 × Cone from the vehicle to Unknown Site (Job N/A)", d.Description)
	assert.Equal(t, 3, d.Quantity)
}

func TestDescribeGroup(t *testing.T) {
	a := tx("a", 0, 2)
	a.SKU = "CONE-1"
	b := tx("b", time.Second, 3)
	b.SKU = "SIGN-2"
	b.CoverURL = "https://cdn/sign.jpg"

	items := Group([]model.InventoryTransaction{a, b})
	require.Len(t, items, 1)

	d := Describe(model.TransactionTimelineItem(items[0]), base)
	assert.Equal(t, "Alice dropped off 5 items (2 kinds) at Site S1 (Job J-100)", d.Description)
	assert.Equal(t, 5, d.Quantity)
	assert.Equal(t, "https://cdn/sign.jpg", d.ThumbnailURL)
	assert.Equal(t, "Sam Lee", d.ActorName)
}

func TestPresentKeepsOrder(t *testing.T) {
	items := Merge(
		[]model.HistoryEntry{{ID: "h", ActionType: model.ActionCreated, ChangedAt: base.Add(time.Hour)}},
		Group([]model.InventoryTransaction{tx("a", 0, 1)}),
	)
	entries := Present(items, base.Add(2*time.Hour))
	require.Len(t, entries, 2)
	assert.Equal(t, "h", entries[0].ID())
	assert.Equal(t, "a", entries[1].ID())
	assert.Equal(t, "add-circle", entries[0].Display.Icon)
}

func TestActionTitle(t *testing.T) {
	assert.Equal(t, "Inventory Added", ActionTitle(model.ActionInventoryAdded))
	assert.Equal(t, "Created", ActionTitle(model.ActionCreated))
}
