// Package timeline groups inventory transactions into logical events, merges
// them with history entries into one time-ordered feed, paginates the feed and
// maps each entry to display fields.
package timeline

import (
	"sort"
	"time"

	"github.com/eagle-green/mysked/internal/model"
)

// GroupingWindow is the maximum distance from the seed transaction for a
// later transaction to join its group.
const GroupingWindow = 5 * time.Second

// Group clusters transactions recorded as one physical event. It scans the
// list once: each unprocessed transaction seeds a group and pulls in every
// later unprocessed transaction that matches the seed. The window is anchored
// to the seed, not to the previous member, so a chain of transactions spread
// over more than GroupingWindow is split.
//
// Groups come first in emission order, then ungrouped transactions in input
// order, and the result is stably sorted by creation time, newest first.
func Group(txs []model.InventoryTransaction) []model.TransactionItem {
	processed := make([]bool, len(txs))
	var groups []model.TransactionItem

	for i := range txs {
		if processed[i] {
			continue
		}
		seed := txs[i]
		members := []model.InventoryTransaction{seed}
		memberIdx := []int{i}

		for j := i + 1; j < len(txs); j++ {
			if processed[j] || !sameEvent(seed, txs[j]) {
				continue
			}
			members = append(members, txs[j])
			memberIdx = append(memberIdx, j)
		}

		if len(members) < 2 {
			continue
		}
		for _, idx := range memberIdx {
			processed[idx] = true
		}
		groups = append(groups, model.TransactionItem{Group: model.NewGroupedTransaction(members)})
	}

	out := make([]model.TransactionItem, 0, len(txs))
	out = append(out, groups...)
	for i := range txs {
		if !processed[i] {
			tx := txs[i]
			out = append(out, model.TransactionItem{Transaction: &tx})
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt().UnixMilli() > out[b].CreatedAt().UnixMilli()
	})
	return out
}

// sameEvent reports whether u belongs to the group seeded by seed.
func sameEvent(seed, u model.InventoryTransaction) bool {
	delta := seed.CreatedAt.Sub(u.CreatedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta <= GroupingWindow &&
		seed.DriverName == u.DriverName &&
		seed.SiteID == u.SiteID &&
		seed.SubmittedBy.ID == u.SubmittedBy.ID &&
		seed.JobID == u.JobID &&
		seed.TransactionType == u.TransactionType
}
