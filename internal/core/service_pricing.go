package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/logging"
)

// CreateSiteSupply adds a supply entry to a site inventory.
func (s *Service) CreateSiteSupply(ctx context.Context, actor engine.Actor, in engine.SiteSupplyInput) (engine.InventoryEntry, error) {
	e, err := engine.NewSiteSupply(actor, in, s.now())
	if err != nil {
		return engine.InventoryEntry{}, err
	}
	e, err = s.store.CreateEntry(ctx, e)
	if err != nil {
		return engine.InventoryEntry{}, fmt.Errorf("create site supply: %w", err)
	}

	logging.FromContext(ctx).Info("site supply created",
		"entry_id", e.ID, "site_id", e.OwnerID, "status", e.Status)
	return e, nil
}

// EditSiteSupplyDetails changes the name, quantity or unit of a site supply.
func (s *Service) EditSiteSupplyDetails(ctx context.Context, actor engine.Actor, id string, edit engine.DetailsEdit) (engine.InventoryEntry, error) {
	return s.mutateEntry(ctx, id, "site supply edited", func(e engine.InventoryEntry) (engine.InventoryEntry, error) {
		return engine.EditDetails(actor, e, edit, s.now())
	})
}

// SetPrice prices a site supply, moving it to priced.
func (s *Service) SetPrice(ctx context.Context, actor engine.Actor, id string, price decimal.Decimal, currency string) (engine.InventoryEntry, error) {
	return s.mutateEntry(ctx, id, "site supply priced", func(e engine.InventoryEntry) (engine.InventoryEntry, error) {
		return engine.SetPrice(actor, e, price, currency, s.now())
	})
}

// SetCurrentPrice refreshes the market price of a warehouse entry.
func (s *Service) SetCurrentPrice(ctx context.Context, actor engine.Actor, id string, price decimal.Decimal) (engine.InventoryEntry, error) {
	return s.mutateEntry(ctx, id, "warehouse current price updated", func(e engine.InventoryEntry) (engine.InventoryEntry, error) {
		return engine.SetCurrentPrice(actor, e, price, s.now())
	})
}

// mutateEntry loads an entry, applies a transition and stores the result.
func (s *Service) mutateEntry(ctx context.Context, id, event string, apply func(engine.InventoryEntry) (engine.InventoryEntry, error)) (engine.InventoryEntry, error) {
	cur, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return engine.InventoryEntry{}, err
	}
	next, err := apply(cur)
	if err != nil {
		return engine.InventoryEntry{}, err
	}
	saved, err := s.store.UpdateEntry(ctx, next)
	if err != nil {
		return engine.InventoryEntry{}, fmt.Errorf("save entry %s: %w", id, err)
	}

	logging.FromContext(ctx).Info(event, "entry_id", saved.ID, "status", saved.Status)
	return saved, nil
}
