package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SupplyRequestInput describes a site's request for warehouse stock.
type SupplyRequestInput struct {
	SiteID            string          `json:"siteId"`
	WarehouseID       string          `json:"warehouseId"`
	ItemName          string          `json:"itemName"`
	RequestedQuantity decimal.Decimal `json:"requestedQuantity"`
	Unit              string          `json:"unit"`
}

// NewSupplyRequest builds a pending supply request.
func NewSupplyRequest(actor Actor, in SupplyRequestInput, now time.Time) (SupplyRequest, error) {
	if !CanRequestSupplies(actor) {
		return SupplyRequest{}, fmt.Errorf("create supply request: %w", ErrForbidden)
	}
	name := strings.TrimSpace(in.ItemName)
	if name == "" || in.SiteID == "" || in.WarehouseID == "" {
		return SupplyRequest{}, fmt.Errorf("create supply request: %w: site, warehouse and item are required", ErrInvalidInput)
	}
	if err := checkQuantity(in.RequestedQuantity); err != nil {
		return SupplyRequest{}, fmt.Errorf("create supply request: %w", err)
	}
	return SupplyRequest{
		SiteID:            in.SiteID,
		WarehouseID:       in.WarehouseID,
		ItemName:          name,
		RequestedQuantity: in.RequestedQuantity,
		Unit:              strings.TrimSpace(in.Unit),
		Status:            RequestPending,
		RequestedBy:       actor.ID,
		CreatedAt:         now,
	}, nil
}

// Transition is the outcome of resolving a supply request.
type Transition struct {
	Request SupplyRequest `json:"request"`
	// AlreadyResolved is set when the same action was applied before; the
	// request is returned unchanged and no stock must move.
	AlreadyResolved bool `json:"alreadyResolved"`
}

// ApproveTransfer approves a pending request for transferQuantity, which may
// be less than the requested quantity. The caller moves the approved
// quantity from warehouse to site stock when AlreadyResolved is false.
func ApproveTransfer(actor Actor, req SupplyRequest, transferQuantity decimal.Decimal, now time.Time) (Transition, error) {
	if !CanResolveTransfer(actor) {
		return Transition{Request: req}, fmt.Errorf("approve transfer: %w", ErrForbidden)
	}
	switch req.Status {
	case RequestApproved:
		return Transition{Request: req, AlreadyResolved: true}, nil
	case RequestRejected:
		return Transition{Request: req}, fmt.Errorf("approve transfer: %w: request already rejected", ErrInvalidTransition)
	}

	if err := checkQuantity(transferQuantity); err != nil {
		return Transition{Request: req}, fmt.Errorf("approve transfer: transfer quantity: %w", err)
	}
	if transferQuantity.GreaterThan(req.RequestedQuantity) {
		return Transition{Request: req}, fmt.Errorf("approve transfer: %w: %s exceeds requested %s",
			ErrInvalidQuantity, transferQuantity, req.RequestedQuantity)
	}

	out := req
	out.Status = RequestApproved
	q := transferQuantity
	out.TransferredQuantity = &q
	out.ResolvedBy = actor.ID
	out.ResolvedAt = &now
	return Transition{Request: out}, nil
}

// RejectTransfer rejects a pending request. The transferred quantity is
// recorded as zero.
func RejectTransfer(actor Actor, req SupplyRequest, now time.Time) (Transition, error) {
	if !CanResolveTransfer(actor) {
		return Transition{Request: req}, fmt.Errorf("reject transfer: %w", ErrForbidden)
	}
	switch req.Status {
	case RequestRejected:
		return Transition{Request: req, AlreadyResolved: true}, nil
	case RequestApproved:
		return Transition{Request: req}, fmt.Errorf("reject transfer: %w: request already approved", ErrInvalidTransition)
	}

	out := req
	out.Status = RequestRejected
	zero := decimal.Zero
	out.TransferredQuantity = &zero
	out.ResolvedBy = actor.ID
	out.ResolvedAt = &now
	return Transition{Request: out}, nil
}
