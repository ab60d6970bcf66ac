package engine

import (
	"errors"
	"testing"
)

func pendingRequest(t *testing.T, qty string) SupplyRequest {
	t.Helper()
	req, err := NewSupplyRequest(supervisor, SupplyRequestInput{
		SiteID: "site-1", WarehouseID: "wh-1", ItemName: "Cement", RequestedQuantity: dec(qty), Unit: "bag",
	}, now)
	if err != nil {
		t.Fatalf("NewSupplyRequest() error = %v", err)
	}
	return req
}

func TestNewSupplyRequest(t *testing.T) {
	req := pendingRequest(t, "100")
	if req.Status != RequestPending {
		t.Errorf("Status = %q, want pending", req.Status)
	}
	if req.TransferredQuantity != nil {
		t.Errorf("TransferredQuantity = %s, want nil", req.TransferredQuantity)
	}

	in := SupplyRequestInput{SiteID: "s", WarehouseID: "w", ItemName: "Cement", RequestedQuantity: dec("1")}
	if _, err := NewSupplyRequest(keeper, in, now); !errors.Is(err, ErrForbidden) {
		t.Errorf("warehouse manager error = %v, want ErrForbidden", err)
	}
	in.RequestedQuantity = dec("0")
	if _, err := NewSupplyRequest(supervisor, in, now); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity error = %v, want ErrInvalidQuantity", err)
	}
}

func TestApproveTransfer_Partial(t *testing.T) {
	req := pendingRequest(t, "100")

	tr, err := ApproveTransfer(keeper, req, dec("40"), now)
	if err != nil {
		t.Fatalf("ApproveTransfer() error = %v", err)
	}
	if tr.AlreadyResolved {
		t.Error("AlreadyResolved = true on first approval")
	}
	if tr.Request.Status != RequestApproved {
		t.Errorf("Status = %q, want approved", tr.Request.Status)
	}
	if !tr.Request.TransferredQuantity.Equal(dec("40")) {
		t.Errorf("TransferredQuantity = %s, want 40", tr.Request.TransferredQuantity)
	}
	if tr.Request.ResolvedBy != keeper.ID || tr.Request.ResolvedAt == nil {
		t.Errorf("resolution not recorded: %+v", tr.Request)
	}
	if req.Status != RequestPending {
		t.Error("ApproveTransfer mutated its input")
	}
}

func TestApproveTransfer_Validation(t *testing.T) {
	req := pendingRequest(t, "100")

	tests := []struct {
		name    string
		actor   Actor
		qty     string
		wantErr error
	}{
		{"supervisor cannot approve", supervisor, "10", ErrForbidden},
		{"admin cannot approve", admin, "10", ErrForbidden},
		{"zero quantity", keeper, "0", ErrInvalidQuantity},
		{"over requested", keeper, "100.01", ErrInvalidQuantity},
		{"below storage scale", keeper, "0.00001", ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApproveTransfer(tt.actor, req, dec(tt.qty), now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ApproveTransfer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := ApproveTransfer(keeper, req, dec("100"), now); err != nil {
		t.Errorf("full approval error = %v", err)
	}
}

func TestRejectTransfer(t *testing.T) {
	req := pendingRequest(t, "100")

	tr, err := RejectTransfer(keeper, req, now)
	if err != nil {
		t.Fatalf("RejectTransfer() error = %v", err)
	}
	if tr.Request.Status != RequestRejected {
		t.Errorf("Status = %q, want rejected", tr.Request.Status)
	}
	if tr.Request.TransferredQuantity == nil || !tr.Request.TransferredQuantity.IsZero() {
		t.Errorf("TransferredQuantity = %v, want 0", tr.Request.TransferredQuantity)
	}
}

func TestResolvedRequests(t *testing.T) {
	approved, _ := ApproveTransfer(keeper, pendingRequest(t, "10"), dec("5"), now)
	rejected, _ := RejectTransfer(keeper, pendingRequest(t, "10"), now)

	again, err := ApproveTransfer(keeper, approved.Request, dec("10"), now)
	if err != nil {
		t.Fatalf("re-approve error = %v", err)
	}
	if !again.AlreadyResolved {
		t.Error("re-approve AlreadyResolved = false, want true")
	}
	if !again.Request.TransferredQuantity.Equal(dec("5")) {
		t.Errorf("re-approve changed TransferredQuantity to %s", again.Request.TransferredQuantity)
	}

	againRej, err := RejectTransfer(keeper, rejected.Request, now)
	if err != nil || !againRej.AlreadyResolved {
		t.Errorf("re-reject = %+v, %v; want already resolved", againRej, err)
	}

	if _, err := RejectTransfer(keeper, approved.Request, now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject approved error = %v, want ErrInvalidTransition", err)
	}
	if _, err := ApproveTransfer(keeper, rejected.Request, dec("1"), now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("approve rejected error = %v, want ErrInvalidTransition", err)
	}
}
