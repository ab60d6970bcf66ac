package store

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sitestock/supplytrack/internal/engine"
)

// applyLine computes the entry that results from committing one bulk line.
// existing is nil when no entry matches the line's normalized name.
//
// Quantities are added to what the entry holds at commit time, so an entry
// edited after the preview keeps both changes. Prices follow the inventory's
// pricing model: site supplies take the line price as their cost and become
// priced; warehouse entries fix the entry price on creation and only move the
// current price afterwards.
func applyLine(existing *engine.InventoryEntry, line engine.BulkLine, scope engine.Scope, ownerID string, opts UpsertOptions, now time.Time) engine.InventoryEntry {
	price := positive(line.UnitPrice)

	if existing == nil {
		e := engine.InventoryEntry{
			Scope:       scope,
			OwnerID:     ownerID,
			DisplayName: line.ItemName,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			Status:      engine.StatusPendingPricing,
			Currency:    opts.Currency,
			CreatedBy:   opts.ActorID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if price != nil {
			e.EntryPrice = price
			if scope == engine.ScopeWarehouse {
				cur := *price
				e.CurrentPrice = &cur
			}
			e.Status = engine.StatusPriced
		}
		return e
	}

	e := *existing
	e.Quantity = e.Quantity.Add(line.Quantity)
	if e.Unit == "" {
		e.Unit = line.Unit
	}
	if price != nil {
		if scope == engine.ScopeWarehouse {
			e.CurrentPrice = price
			if e.EntryPrice == nil {
				ep := *price
				e.EntryPrice = &ep
			}
		} else {
			e.EntryPrice = price
		}
		e.Status = engine.StatusPriced
		if opts.Currency != "" {
			e.Currency = opts.Currency
		}
	}
	e.UpdatedAt = now
	return e
}

func positive(d *decimal.Decimal) *decimal.Decimal {
	if d == nil || !d.IsPositive() {
		return nil
	}
	c := *d
	return &c
}

// resolveStock computes the warehouse and site entries after moving qty.
// site is nil when the site has no entry for the item yet; the returned
// site entry then has an empty ID and must be created.
func resolveStock(warehouse engine.InventoryEntry, site *engine.InventoryEntry, req engine.SupplyRequest, qty decimal.Decimal, now time.Time) (engine.InventoryEntry, engine.InventoryEntry, error) {
	if warehouse.Quantity.LessThan(qty) {
		return warehouse, engine.InventoryEntry{}, ErrInsufficientStock
	}
	warehouse.Quantity = warehouse.Quantity.Sub(qty)
	warehouse.UpdatedAt = now

	if site == nil {
		unit := req.Unit
		if unit == "" {
			unit = warehouse.Unit
		}
		return warehouse, engine.InventoryEntry{
			Scope:       engine.ScopeSite,
			OwnerID:     req.SiteID,
			DisplayName: req.ItemName,
			Quantity:    qty,
			Unit:        unit,
			Status:      engine.StatusPendingPricing,
			CreatedBy:   req.ResolvedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, nil
	}

	s := *site
	s.Quantity = s.Quantity.Add(qty)
	s.UpdatedAt = now
	return warehouse, s, nil
}
