package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/logging"
	"github.com/sitestock/supplytrack/internal/store"
)

// resolveAttempts bounds retries when a request changes while resolving.
const resolveAttempts = 3

// CreateSupplyRequest files a site's request for warehouse stock.
func (s *Service) CreateSupplyRequest(ctx context.Context, actor engine.Actor, in engine.SupplyRequestInput) (engine.SupplyRequest, error) {
	req, err := engine.NewSupplyRequest(actor, in, s.now())
	if err != nil {
		return engine.SupplyRequest{}, err
	}
	req, err = s.store.CreateRequest(ctx, req)
	if err != nil {
		return engine.SupplyRequest{}, fmt.Errorf("create supply request: %w", err)
	}

	logging.FromContext(ctx).Info("supply request created",
		"request_id", req.ID, "site_id", req.SiteID, "warehouse_id", req.WarehouseID,
		"item", req.ItemName, "quantity", req.RequestedQuantity.String())
	return req, nil
}

// ApproveTransfer approves a pending request for transferQuantity and moves
// that quantity from warehouse to site stock. Approving an approved request
// again returns it unchanged with AlreadyResolved set.
func (s *Service) ApproveTransfer(ctx context.Context, actor engine.Actor, id string, transferQuantity decimal.Decimal) (engine.Transition, error) {
	return s.resolve(ctx, id, func(req engine.SupplyRequest) (engine.Transition, error) {
		return engine.ApproveTransfer(actor, req, transferQuantity, s.now())
	})
}

// RejectTransfer rejects a pending request. No stock moves.
func (s *Service) RejectTransfer(ctx context.Context, actor engine.Actor, id string) (engine.Transition, error) {
	return s.resolve(ctx, id, func(req engine.SupplyRequest) (engine.Transition, error) {
		return engine.RejectTransfer(actor, req, s.now())
	})
}

// resolve applies a transition to the stored request. When another resolver
// wins the race, the request is re-read and the transition re-evaluated, so
// the caller sees either AlreadyResolved or ErrInvalidTransition.
func (s *Service) resolve(ctx context.Context, id string, transition func(engine.SupplyRequest) (engine.Transition, error)) (engine.Transition, error) {
	var lastErr error
	for attempt := 0; attempt < resolveAttempts; attempt++ {
		cur, err := s.store.GetRequest(ctx, id)
		if err != nil {
			return engine.Transition{}, err
		}
		tr, err := transition(cur)
		if err != nil || tr.AlreadyResolved {
			return tr, err
		}

		saved, err := s.store.ResolveRequest(ctx, tr.Request)
		if errors.Is(err, store.ErrConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return engine.Transition{Request: cur}, err
		}

		logger := logging.FromContext(ctx)
		logger.Info("supply request resolved",
			"request_id", saved.ID, "status", saved.Status, "transferred", transferred(saved))
		return engine.Transition{Request: saved}, nil
	}
	return engine.Transition{}, lastErr
}

func transferred(r engine.SupplyRequest) string {
	if r.TransferredQuantity == nil {
		return ""
	}
	return r.TransferredQuantity.String()
}
