package core

import (
	"context"
	"fmt"

	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/store"
)

// ListEntries returns an inventory in listing order for the actor:
// administrators see site supplies awaiting a price first.
func (s *Service) ListEntries(ctx context.Context, actor engine.Actor, scope engine.Scope, ownerID string) ([]engine.InventoryEntry, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("list entries: %w: unknown inventory scope %q", engine.ErrInvalidInput, scope)
	}
	entries, err := s.store.ListEntries(ctx, scope, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if scope != engine.ScopeSite {
		return entries, nil
	}
	return engine.OrderForActor(actor, entries), nil
}

// ListSupplyRequests returns requests matching f in creation order.
func (s *Service) ListSupplyRequests(ctx context.Context, f store.RequestFilter) ([]engine.SupplyRequest, error) {
	if f.Status != "" && f.Status != engine.RequestPending && !f.Status.Resolved() {
		return nil, fmt.Errorf("list supply requests: %w: unknown status %q", engine.ErrInvalidInput, f.Status)
	}
	reqs, err := s.store.ListRequests(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list supply requests: %w", err)
	}
	return reqs, nil
}
