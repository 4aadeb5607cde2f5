package model

import "time"

// TimelineKind tags the variant held by a TimelineItem.
type TimelineKind string

// Timeline kinds.
const (
	KindHistory            TimelineKind = "history"
	KindTransaction        TimelineKind = "transaction"
	KindGroupedTransaction TimelineKind = "grouped_transaction"
)

// TimelineItem is one element of the merged feed. Exactly one of History,
// Transaction or Group is set, matching Kind.
type TimelineItem struct {
	Kind        TimelineKind          `json:"kind"`
	SortDate    time.Time             `json:"sort_date"`
	History     *HistoryEntry         `json:"history,omitempty"`
	Transaction *InventoryTransaction `json:"transaction,omitempty"`
	Group       *GroupedTransaction   `json:"group,omitempty"`
}

// ID returns the id of the wrapped record.
func (t TimelineItem) ID() string {
	switch t.Kind {
	case KindHistory:
		return t.History.ID
	case KindGroupedTransaction:
		return t.Group.ID
	default:
		return t.Transaction.ID
	}
}

// HistoryItem tags a history entry with its changed_at time.
func HistoryItem(h HistoryEntry) TimelineItem {
	return TimelineItem{Kind: KindHistory, SortDate: h.ChangedAt, History: &h}
}

// TransactionTimelineItem tags a grouping output item with its created_at time.
func TransactionTimelineItem(t TransactionItem) TimelineItem {
	if t.Group != nil {
		return TimelineItem{Kind: KindGroupedTransaction, SortDate: t.Group.CreatedAt, Group: t.Group}
	}
	return TimelineItem{Kind: KindTransaction, SortDate: t.Transaction.CreatedAt, Transaction: t.Transaction}
}
