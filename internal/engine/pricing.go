package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SiteSupplyInput describes a new site supply entry.
type SiteSupplyInput struct {
	SiteID   string           `json:"siteId"`
	Name     string           `json:"name"`
	Quantity decimal.Decimal  `json:"quantity"`
	Unit     string           `json:"unit"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Currency string           `json:"currency,omitempty"`
}

// NewSiteSupply builds a site supply entry. Entries start pending_pricing;
// an administrator who supplies a price at creation gets a priced entry.
// Only administrators may supply a price.
func NewSiteSupply(actor Actor, in SiteSupplyInput, now time.Time) (InventoryEntry, error) {
	if !CanCreateSiteSupply(actor) {
		return InventoryEntry{}, fmt.Errorf("create site supply: %w", ErrForbidden)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.SiteID) == "" {
		return InventoryEntry{}, fmt.Errorf("create site supply: %w: name and site are required", ErrInvalidInput)
	}
	if err := checkQuantity(in.Quantity); err != nil {
		return InventoryEntry{}, fmt.Errorf("create site supply: %w", err)
	}

	e := InventoryEntry{
		Scope:       ScopeSite,
		OwnerID:     in.SiteID,
		DisplayName: name,
		Quantity:    in.Quantity,
		Unit:        strings.TrimSpace(in.Unit),
		Status:      StatusPendingPricing,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if in.Price != nil {
		if !CanSetPrice(actor) {
			return InventoryEntry{}, fmt.Errorf("create site supply with price: %w", ErrForbidden)
		}
		if err := checkPrice(*in.Price); err != nil {
			return InventoryEntry{}, fmt.Errorf("create site supply: %w", err)
		}
		e.EntryPrice = copyDecimal(in.Price)
		e.Currency = in.Currency
		e.Status = StatusPriced
	}
	return e, nil
}

// DetailsEdit carries the descriptive fields a supervisor may change. Nil
// fields are left as they are.
type DetailsEdit struct {
	Name     *string          `json:"name,omitempty"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Unit     *string          `json:"unit,omitempty"`
}

// EditDetails applies a supervisor edit. Price and status are untouched.
func EditDetails(actor Actor, e InventoryEntry, edit DetailsEdit, now time.Time) (InventoryEntry, error) {
	if !CanEditDetails(actor) {
		return e, fmt.Errorf("edit supply details: %w", ErrForbidden)
	}
	if e.Scope != ScopeSite {
		return e, fmt.Errorf("edit supply details: %w: not a site supply", ErrInvalidInput)
	}

	out := cloneEntry(e)
	if edit.Name != nil {
		name := strings.TrimSpace(*edit.Name)
		if name == "" {
			return e, fmt.Errorf("edit supply details: %w: name is required", ErrInvalidInput)
		}
		out.DisplayName = name
	}
	if edit.Quantity != nil {
		if err := checkQuantity(*edit.Quantity); err != nil {
			return e, fmt.Errorf("edit supply details: %w", err)
		}
		out.Quantity = *edit.Quantity
	}
	if edit.Unit != nil {
		out.Unit = strings.TrimSpace(*edit.Unit)
	}
	out.UpdatedAt = now
	return out, nil
}

// SetPrice prices a site supply, moving pending_pricing to priced or
// refreshing an already priced entry.
func SetPrice(actor Actor, e InventoryEntry, price decimal.Decimal, currency string, now time.Time) (InventoryEntry, error) {
	if !CanSetPrice(actor) {
		return e, fmt.Errorf("set price: %w", ErrForbidden)
	}
	if e.Scope != ScopeSite {
		return e, fmt.Errorf("set price: %w: not a site supply", ErrInvalidInput)
	}
	if err := checkPrice(price); err != nil {
		return e, fmt.Errorf("set price: %w", err)
	}

	out := cloneEntry(e)
	out.EntryPrice = &price
	if currency != "" {
		out.Currency = currency
	}
	out.Status = StatusPriced
	out.UpdatedAt = now
	return out, nil
}

// SetCurrentPrice refreshes a warehouse entry's market price. The entry price
// recorded at acquisition is never changed.
func SetCurrentPrice(actor Actor, e InventoryEntry, price decimal.Decimal, now time.Time) (InventoryEntry, error) {
	if !CanSetCurrentPrice(actor) {
		return e, fmt.Errorf("set current price: %w", ErrForbidden)
	}
	if e.Scope != ScopeWarehouse {
		return e, fmt.Errorf("set current price: %w: not a warehouse entry", ErrInvalidInput)
	}
	if err := checkPrice(price); err != nil {
		return e, fmt.Errorf("set current price: %w", err)
	}

	out := cloneEntry(e)
	out.CurrentPrice = &price
	out.Status = StatusPriced
	out.UpdatedAt = now
	return out, nil
}

// OrderForActor returns entries in listing order for the actor.
// Administrators see pending_pricing entries first; both groups keep their
// input order. Everyone else sees the input order unchanged.
func OrderForActor(actor Actor, entries []InventoryEntry) []InventoryEntry {
	out := make([]InventoryEntry, 0, len(entries))
	if actor.Role != RoleAdmin {
		return append(out, entries...)
	}
	for _, e := range entries {
		if e.Status == StatusPendingPricing {
			out = append(out, e)
		}
	}
	for _, e := range entries {
		if e.Status != StatusPendingPricing {
			out = append(out, e)
		}
	}
	return out
}
