package model

import (
	"strings"
	"time"
)

// TransactionType is the direction of an inventory movement.
type TransactionType string

// Transaction types.
const (
	TransactionVehicleToSite TransactionType = "vehicle_to_site"
	TransactionSiteToVehicle TransactionType = "site_to_vehicle"
)

// SiteAddress holds the address fields the backend joins onto a transaction.
type SiteAddress struct {
	UnitNumber   string `json:"site_unit_number,omitempty"`
	StreetNumber string `json:"site_street_number,omitempty"`
	StreetName   string `json:"site_street_name,omitempty"`
	City         string `json:"site_city,omitempty"`
	Province     string `json:"site_province,omitempty"`
	PostalCode   string `json:"site_postal_code,omitempty"`
}

// String formats the address on one line, skipping empty parts.
func (a SiteAddress) String() string {
	street := strings.TrimSpace(a.StreetNumber + " " + a.StreetName)
	if a.UnitNumber != "" && street != "" {
		street = a.UnitNumber + "-" + street
	}

	var parts []string
	for _, p := range []string{street, a.City, strings.TrimSpace(a.Province + " " + a.PostalCode)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// InventoryTransaction is an immutable ledger record of one item movement
// between a vehicle and a site.
type InventoryTransaction struct {
	ID              string          `json:"id"`
	TransactionType TransactionType `json:"transaction_type"`
	Quantity        int             `json:"quantity"`
	CreatedAt       time.Time       `json:"created_at"`
	DriverName      string          `json:"driver_name,omitempty"`
	SiteID          string          `json:"site_id,omitempty"`
	SiteName        string          `json:"site_name,omitempty"`
	SiteAddress
	SubmittedBy   Actor  `json:"submitted_by"`
	JobID         string `json:"job_id,omitempty"`
	JobNumber     string `json:"job_number,omitempty"`
	InitiatedBy   *Actor `json:"initiated_by,omitempty"`
	InventoryName string `json:"inventory_name"`
	SKU           string `json:"sku,omitempty"`
	InventoryType string `json:"inventory_type,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
}

// GroupedTransaction is a derived cluster of two or more transactions judged
// to be the same physical event. Shared fields come from the first member.
type GroupedTransaction struct {
	ID              string          `json:"id"`
	TransactionType TransactionType `json:"transaction_type"`
	CreatedAt       time.Time       `json:"created_at"`
	DriverName      string          `json:"driver_name,omitempty"`
	SiteID          string          `json:"site_id,omitempty"`
	SiteName        string          `json:"site_name,omitempty"`
	SiteAddress
	SubmittedBy   Actor                  `json:"submitted_by"`
	JobID         string                 `json:"job_id,omitempty"`
	JobNumber     string                 `json:"job_number,omitempty"`
	InitiatedBy   *Actor                 `json:"initiated_by,omitempty"`
	Transactions  []InventoryTransaction `json:"transactions"`
	TotalQuantity int                    `json:"total_quantity"`
}

// GroupIDPrefix prefixes the first member id to form a group id.
const GroupIDPrefix = "grouped-"

// NewGroupedTransaction builds a group from members. It panics on an empty
// member list; callers only group two or more transactions.
func NewGroupedTransaction(members []InventoryTransaction) *GroupedTransaction {
	first := members[0]
	total := 0
	for _, m := range members {
		total += m.Quantity
	}
	return &GroupedTransaction{
		ID:              GroupIDPrefix + first.ID,
		TransactionType: first.TransactionType,
		CreatedAt:       first.CreatedAt,
		DriverName:      first.DriverName,
		SiteID:          first.SiteID,
		SiteName:        first.SiteName,
		SiteAddress:     first.SiteAddress,
		SubmittedBy:     first.SubmittedBy,
		JobID:           first.JobID,
		JobNumber:       first.JobNumber,
		InitiatedBy:     first.InitiatedBy,
		Transactions:    members,
		TotalQuantity:   total,
	}
}

// TransactionItem is the output element of grouping: exactly one of
// Transaction or Group is set.
type TransactionItem struct {
	Transaction *InventoryTransaction `json:"transaction,omitempty"`
	Group       *GroupedTransaction   `json:"group,omitempty"`
}

// IsGroup reports whether the item wraps a grouped transaction.
func (t TransactionItem) IsGroup() bool {
	return t.Group != nil
}

// ID returns the transaction id or the group id.
func (t TransactionItem) ID() string {
	if t.Group != nil {
		return t.Group.ID
	}
	return t.Transaction.ID
}

// CreatedAt returns the creation time used for ordering.
func (t TransactionItem) CreatedAt() time.Time {
	if t.Group != nil {
		return t.Group.CreatedAt
	}
	return t.Transaction.CreatedAt
}

// Quantity returns the single quantity or the group total.
func (t TransactionItem) Quantity() int {
	if t.Group != nil {
		return t.Group.TotalQuantity
	}
	return t.Transaction.Quantity
}

// Members returns the transactions behind the item.
func (t TransactionItem) Members() []InventoryTransaction {
	if t.Group != nil {
		return t.Group.Transactions
	}
	return []InventoryTransaction{*t.Transaction}
}
