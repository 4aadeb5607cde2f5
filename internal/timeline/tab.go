package timeline

import (
	"fmt"

	"github.com/eagle-green/mysked/internal/model"
)

// Tab is the active filter of the history view. Besides TabSite and TabAll,
// every model.ActionType is a tab.
type Tab string

// Fixed tabs.
const (
	TabSite Tab = "site"
	TabAll  Tab = "all"
)

// Tabs lists every tab in display order.
func Tabs() []Tab {
	tabs := []Tab{TabAll, TabSite}
	for _, a := range model.ActionTypes {
		tabs = append(tabs, Tab(a))
	}
	return tabs
}

// ParseTab parses a tab name. The empty string selects TabAll.
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case "":
		return TabAll, nil
	case TabSite, TabAll:
		return Tab(s), nil
	}
	if model.ActionType(s).Valid() {
		return Tab(s), nil
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// Plan describes which sources a tab queries and how it paginates.
type Plan struct {
	Tab               Tab
	FetchHistory      bool
	FetchTransactions bool
	ActionFilter      model.ActionType
	Pagination        PaginationMode
}

// Plan returns the query plan for the tab.
func (t Tab) Plan() Plan {
	switch t {
	case TabSite:
		return Plan{Tab: t, FetchTransactions: true, Pagination: PaginationClient}
	case TabAll:
		return Plan{Tab: t, FetchHistory: true, FetchTransactions: true, Pagination: PaginationClient}
	default:
		return Plan{Tab: t, FetchHistory: true, ActionFilter: model.ActionType(t), Pagination: PaginationServer}
	}
}

// TabState is the selection state of one history view.
type TabState struct {
	Tab  Tab
	Page int
}

// NewTabState returns the initial state: the all tab, first page.
func NewTabState() TabState {
	return TabState{Tab: TabAll}
}

// Select switches to tab and resets the page.
func (s TabState) Select(tab Tab) TabState {
	return TabState{Tab: tab}
}

// GoTo moves to page within the current tab. Negative pages clamp to 0.
func (s TabState) GoTo(page int) TabState {
	if page < 0 {
		page = 0
	}
	return TabState{Tab: s.Tab, Page: page}
}
