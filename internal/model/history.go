package model

import (
	"fmt"
	"strings"
	"time"
)

// ActionType is the kind of mutation recorded by a history entry.
type ActionType string

// History action types.
const (
	ActionCreated          ActionType = "created"
	ActionUpdated          ActionType = "updated"
	ActionPictureAdded     ActionType = "picture_added"
	ActionPictureDeleted   ActionType = "picture_deleted"
	ActionInventoryAdded   ActionType = "inventory_added"
	ActionInventoryUpdated ActionType = "inventory_updated"
	ActionInventoryRemoved ActionType = "inventory_removed"
	ActionInventoryAudit   ActionType = "inventory_audit"
	ActionDriverAssigned   ActionType = "driver_assigned"
	ActionDriverUnassigned ActionType = "driver_unassigned"
)

// ActionTypes lists every known action type in display order.
var ActionTypes = []ActionType{
	ActionCreated,
	ActionUpdated,
	ActionPictureAdded,
	ActionPictureDeleted,
	ActionInventoryAdded,
	ActionInventoryUpdated,
	ActionInventoryRemoved,
	ActionInventoryAudit,
	ActionDriverAssigned,
	ActionDriverUnassigned,
}

// Valid reports whether a is one of the known action types.
func (a ActionType) Valid() bool {
	for _, known := range ActionTypes {
		if a == known {
			return true
		}
	}
	return false
}

// Actor is a person referenced by a record (who changed, submitted or moved something).
type Actor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

// FullName returns "First Last", or an empty string for a nil actor.
func (a *Actor) FullName() string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// FieldChange is one entry of a history entry's metadata "changes" list.
type FieldChange struct {
	FieldName string `json:"field_name"`
	OldValue  any    `json:"old_value"`
	NewValue  any    `json:"new_value"`
}

// HistoryEntry is an immutable audit record produced by the backend.
type HistoryEntry struct {
	ID          string         `json:"id"`
	ActionType  ActionType     `json:"action_type"`
	ChangedBy   *Actor         `json:"changed_by,omitempty"`
	ChangedAt   time.Time      `json:"changed_at"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

// Changes decodes the metadata "changes" list. Entries that are not objects
// or have no field name are skipped.
func (h HistoryEntry) Changes() []FieldChange {
	raw, ok := h.Metadata["changes"].([]any)
	if !ok {
		return nil
	}

	var changes []FieldChange
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := fmt.Sprint(m["field_name"])
		if m["field_name"] == nil || name == "" {
			continue
		}
		changes = append(changes, FieldChange{
			FieldName: name,
			OldValue:  m["old_value"],
			NewValue:  m["new_value"],
		})
	}
	return changes
}
