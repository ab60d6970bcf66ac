package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role identifies what an authenticated actor is allowed to do.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleSiteSupervisor   Role = "site_supervisor"
	RoleWarehouseManager Role = "warehouse_manager"
	RoleFieldStaff       Role = "field_staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSiteSupervisor, RoleWarehouseManager, RoleFieldStaff:
		return true
	}
	return false
}

// Actor is the authenticated party performing an operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Scope selects which kind of inventory an entry belongs to.
type Scope string

const (
	ScopeSite      Scope = "site"
	ScopeWarehouse Scope = "warehouse"
)

// Valid reports whether s is a known inventory scope.
func (s Scope) Valid() bool {
	return s == ScopeSite || s == ScopeWarehouse
}

// PricingStatus is the pricing workflow state of a site supply entry.
type PricingStatus string

const (
	StatusPendingPricing PricingStatus = "pending_pricing"
	StatusPriced         PricingStatus = "priced"
)

// RawRow is one decoded spreadsheet record keyed by header text.
type RawRow map[string]string

// CanonicalRecord is a spreadsheet row resolved onto the canonical fields.
type CanonicalRecord struct {
	DisplayName string           `json:"displayName"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
}

// BatchItem is one logical item of an import after in-batch merging.
type BatchItem struct {
	DisplayName            string           `json:"displayName"`
	Quantity               decimal.Decimal  `json:"quantity"`
	Unit                   string           `json:"unit"`
	UnitPrice              *decimal.Decimal `json:"unitPrice,omitempty"`
	NormalizedKey          string           `json:"-"`
	MergedFromMultipleRows bool             `json:"mergedFromMultipleRows"`
}

// InventoryEntry is a stock line of a site or warehouse inventory.
//
// EntryPrice and CurrentPrice are deliberately separate. For warehouse stock
// EntryPrice is the acquisition cost, fixed at creation, and CurrentPrice is
// the market value that may be refreshed later. For site supplies EntryPrice
// holds the administrator-set cost and CurrentPrice is unused.
type InventoryEntry struct {
	ID           string           `json:"id"`
	Scope        Scope            `json:"scope"`
	OwnerID      string           `json:"ownerId"`
	DisplayName  string           `json:"displayName"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Unit         string           `json:"unit"`
	EntryPrice   *decimal.Decimal `json:"entryPrice,omitempty"`
	CurrentPrice *decimal.Decimal `json:"currentPrice,omitempty"`
	Status       PricingStatus    `json:"status"`
	Currency     string           `json:"currency,omitempty"`
	CreatedBy    string           `json:"createdBy,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// KnownPrice returns the best available price of the entry: the current
// price when set, otherwise the entry price.
func (e InventoryEntry) KnownPrice() *decimal.Decimal {
	if e.CurrentPrice != nil {
		return e.CurrentPrice
	}
	return e.EntryPrice
}

// Action is what committing a plan item does to inventory.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// PlanItem is one line of a reconciliation plan.
type PlanItem struct {
	BatchItem         BatchItem       `json:"batchItem"`
	Matched           *InventoryEntry `json:"matchedInventoryEntry,omitempty"`
	Action            Action          `json:"action"`
	ResultingQuantity decimal.Decimal `json:"resultingQuantity"`
	NameVariationNote string          `json:"nameVariationNote,omitempty"`
	NeedsPricing      bool            `json:"needsPricing"`
}

// RequestStatus is the state of a supply transfer request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Resolved reports whether the status is terminal.
func (s RequestStatus) Resolved() bool {
	return s == RequestApproved || s == RequestRejected
}

// SupplyRequest asks a warehouse to transfer stock to a site.
type SupplyRequest struct {
	ID                  string           `json:"id"`
	SiteID              string           `json:"siteId"`
	WarehouseID         string           `json:"warehouseId"`
	ItemName            string           `json:"itemName"`
	RequestedQuantity   decimal.Decimal  `json:"requestedQuantity"`
	Unit                string           `json:"unit"`
	Status              RequestStatus    `json:"status"`
	TransferredQuantity *decimal.Decimal `json:"transferredQuantity,omitempty"`
	RequestedBy         string           `json:"requestedBy,omitempty"`
	ResolvedBy          string           `json:"resolvedBy,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	ResolvedAt          *time.Time       `json:"resolvedAt,omitempty"`
}
