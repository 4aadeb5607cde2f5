package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eagle-green/mysked/internal/model"
)

// Fallback display strings for missing optional fields.
const (
	UnknownSite   = "Unknown Site"
	UnknownDriver = "Unknown driver"
	NotAvailable  = "N/A"
)

// Display colors, named after the UI palette.
const (
	ColorPrimary   = "primary"
	ColorSecondary = "secondary"
	ColorSuccess   = "success"
	ColorInfo      = "info"
	ColorWarning   = "warning"
	ColorError     = "error"
	ColorDefault   = "default"
)

// Display holds the fields the UI renders for one timeline entry.
type Display struct {
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ActorName    string `json:"actor_name,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Quantity     int    `json:"quantity,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Relative     string `json:"relative"`
}

// Entry is a timeline item together with its display fields.
type Entry struct {
	model.TimelineItem
	Display Display `json:"display"`
}

type style struct {
	icon  string
	color string
}

var actionStyles = map[model.ActionType]style{
	model.ActionCreated:          {"add-circle", ColorSuccess},
	model.ActionUpdated:          {"pen", ColorInfo},
	model.ActionPictureAdded:     {"camera-add", ColorPrimary},
	model.ActionPictureDeleted:   {"camera-minimalistic", ColorError},
	model.ActionInventoryAdded:   {"box-add", ColorSuccess},
	model.ActionInventoryUpdated: {"box-edit", ColorInfo},
	model.ActionInventoryRemoved: {"box-remove", ColorError},
	model.ActionInventoryAudit:   {"clipboard-check", ColorSecondary},
	model.ActionDriverAssigned:   {"user-plus", ColorPrimary},
	model.ActionDriverUnassigned: {"user-minus", ColorWarning},
}

var transactionStyles = map[model.TransactionType]style{
	model.TransactionVehicleToSite: {"truck-unload", ColorWarning},
	model.TransactionSiteToVehicle: {"truck-load", ColorSuccess},
}

var titleCaser = cases.Title(language.English)

// Present maps every item to display fields. now anchors relative times.
func Present(items []model.TimelineItem, now time.Time) []Entry {
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		out = append(out, Entry{TimelineItem: it, Display: Describe(it, now)})
	}
	return out
}

// Describe returns the display fields for one item.
func Describe(it model.TimelineItem, now time.Time) Display {
	var d Display
	switch it.Kind {
	case model.KindHistory:
		d = describeHistory(*it.History)
	case model.KindGroupedTransaction:
		d = describeGroup(*it.Group)
	default:
		d = describeTransaction(*it.Transaction)
	}
	d.Relative = humanize.RelTime(it.SortDate, now, "ago", "from now")
	return d
}

// ActionTitle turns an action type into a heading, e.g. "Inventory Added".
func ActionTitle(a model.ActionType) string {
	return titleCaser.String(strings.ReplaceAll(string(a), "_", " "))
}

func describeHistory(h model.HistoryEntry) Display {
	st, ok := actionStyles[h.ActionType]
	if !ok {
		st = style{"history", ColorDefault}
	}

	d := Display{
		Icon:      st.icon,
		Color:     st.color,
		Title:     ActionTitle(h.ActionType),
		ActorName: h.ChangedBy.FullName(),
	}
	if h.ChangedBy != nil {
		d.AvatarURL = h.ChangedBy.PhotoURL
	}
	if d.ActorName == "" {
		d.ActorName = "System"
	}

	switch {
	case h.Description != "":
		d.Description = h.Description
	case len(h.Changes()) > 0:
		var parts []string
		for _, c := range h.Changes() {
			parts = append(parts, fmt.Sprintf("%s from %s to %s",
				humanField(c.FieldName), displayValue(c.OldValue), displayValue(c.NewValue)))
		}
		d.Description = "Updated " + strings.Join(parts, "; ")
	default:
		d.Description = d.Title
	}
	return d
}

func describeTransaction(t model.InventoryTransaction) Display {
	st := transactionStyle(t.TransactionType)
	d := Display{
		Icon:         st.icon,
		Color:        st.color,
		Title:        transactionTitle(t.TransactionType),
		ActorName:    t.SubmittedBy.FullName(),
		Quantity:     t.Quantity,
		ThumbnailURL: t.CoverURL,
	}
	if t.InitiatedBy != nil {
		d.AvatarURL = t.InitiatedBy.PhotoURL
	}

	driver := orDefault(t.DriverName, UnknownDriver)
	site := orDefault(t.SiteName, UnknownSite)
	job := orDefault(t.JobNumber, NotAvailable)
	item := orDefault(t.InventoryName, "item")

	if t.TransactionType == model.TransactionSiteToVehicle {
		d.Description = fmt.Sprintf("%s picked up %d × %s from %s to the vehicle (Job %s)", driver, t.Quantity, item, site, job)
	} else {
		d.Description = fmt.Sprintf("%s moved %d × %s from the vehicle to %s (Job %s)", driver, t.Quantity, item, site, job)
	}
	return d
}

func describeGroup(g model.GroupedTransaction) Display {
	st := transactionStyle(g.TransactionType)
	d := Display{
		Icon:      st.icon,
		Color:     st.color,
		Title:     transactionTitle(g.TransactionType),
		ActorName: g.SubmittedBy.FullName(),
		Quantity:  g.TotalQuantity,
	}
	if g.InitiatedBy != nil {
		d.AvatarURL = g.InitiatedBy.PhotoURL
	}
	for _, m := range g.Transactions {
		if m.CoverURL != "" {
			d.ThumbnailURL = m.CoverURL
			break
		}
	}

	kinds := make(map[string]struct{})
	for _, m := range g.Transactions {
		key := m.SKU
		if key == "" {
			key = m.InventoryName
		}
		kinds[key] = struct{}{}
	}

	driver := orDefault(g.DriverName, UnknownDriver)
	site := orDefault(g.SiteName, UnknownSite)
	job := orDefault(g.JobNumber, NotAvailable)
	verb, prep := "dropped off", "at"
	if g.TransactionType == model.TransactionSiteToVehicle {
		verb, prep = "picked up", "from"
	}
	d.Description = fmt.Sprintf("%s %s %d items (%d kinds) %s %s (Job %s)",
		driver, verb, g.TotalQuantity, len(kinds), prep, site, job)
	return d
}

func transactionStyle(t model.TransactionType) style {
	if st, ok := transactionStyles[t]; ok {
		return st
	}
	return style{"transfer", ColorDefault}
}

func transactionTitle(t model.TransactionType) string {
	switch t {
	case model.TransactionVehicleToSite:
		return "Vehicle to Site"
	case model.TransactionSiteToVehicle:
		return "Site to Vehicle"
	default:
		return "Inventory Transfer"
	}
}

func humanField(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

func displayValue(v any) string {
	if v == nil {
		return "(empty)"
	}
	s := fmt.Sprint(v)
	if s == "" {
		return "(empty)"
	}
	return s
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
