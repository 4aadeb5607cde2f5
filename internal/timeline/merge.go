package timeline

import (
	"sort"

	"github.com/eagle-green/mysked/internal/model"
)

// Merge tags history entries and grouping output with their sort dates and
// returns one feed ordered newest first. Entries with equal timestamps keep
// concatenation order: all history entries before all transactions.
func Merge(history []model.HistoryEntry, items []model.TransactionItem) []model.TimelineItem {
	out := make([]model.TimelineItem, 0, len(history)+len(items))
	for _, h := range history {
		out = append(out, model.HistoryItem(h))
	}
	for _, it := range items {
		out = append(out, model.TransactionTimelineItem(it))
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].SortDate.UnixMilli() > out[b].SortDate.UnixMilli()
	})
	return out
}

// TransactionsOnly tags grouping output for feeds that carry no history.
func TransactionsOnly(items []model.TransactionItem) []model.TimelineItem {
	return Merge(nil, items)
}

// HistoryOnly tags a backend page of history entries, keeping backend order.
func HistoryOnly(history []model.HistoryEntry) []model.TimelineItem {
	out := make([]model.TimelineItem, 0, len(history))
	for _, h := range history {
		out = append(out, model.HistoryItem(h))
	}
	return out
}
