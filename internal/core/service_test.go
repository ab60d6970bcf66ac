package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sitestock/supplytrack/internal/config"
	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/store"
)

var (
	admin      = engine.Actor{ID: "ada", Role: engine.RoleAdmin}
	supervisor = engine.Actor{ID: "sam", Role: engine.RoleSiteSupervisor}
	keeper     = engine.Actor{ID: "kim", Role: engine.RoleWarehouseManager}
	staff      = engine.Actor{ID: "fay", Role: engine.RoleFieldStaff}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	cfg := &config.Config{Import: config.ImportConfig{
		MaxFileSize:   1 << 20,
		MaxRows:       100,
		MaxConcurrent: 2,
		MaxWaitTime:   20 * time.Millisecond,
		Timeout:       time.Minute,
	}}
	return NewService(mem, cfg), mem
}

func csvImport(scope engine.Scope, owner, body string, requirePrice bool) ImportRequest {
	return ImportRequest{
		Scope:        scope,
		OwnerID:      owner,
		Filename:     "stock.csv",
		File:         strings.NewReader(body),
		RequirePrice: requirePrice,
	}
}

func TestPreviewImport(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	mem.CreateEntry(ctx, engine.InventoryEntry{
		Scope: engine.ScopeSite, OwnerID: "site-1", DisplayName: "Cement Bags",
		Quantity: dec("50"), Unit: "bag", Status: engine.StatusPendingPricing,
	})

	body := "Item Name,Qty,Unit\ncement bag,20,bag\nCement bag,5,bag\nSand,,m3\nGravel,3,m3\n"
	p, err := svc.PreviewImport(ctx, supervisor, csvImport(engine.ScopeSite, "site-1", body, false))
	if err != nil {
		t.Fatalf("PreviewImport() error = %v", err)
	}

	if len(p.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(p.Items))
	}
	cement := p.Items[0]
	if cement.Action != engine.ActionUpdate || !cement.ResultingQuantity.Equal(dec("75")) {
		t.Errorf("cement = %s resulting %s, want update resulting 75", cement.Action, cement.ResultingQuantity)
	}
	if cement.NameVariationNote != "Will update 'Cement Bags'" {
		t.Errorf("NameVariationNote = %q", cement.NameVariationNote)
	}
	if !cement.BatchItem.MergedFromMultipleRows {
		t.Error("cement should be merged from multiple rows")
	}
	if p.Items[1].Action != engine.ActionCreate {
		t.Errorf("gravel Action = %s, want create", p.Items[1].Action)
	}

	if len(p.InvalidRows) != 1 || p.InvalidRows[0].Row != 4 {
		t.Errorf("InvalidRows = %+v, want one at row 4", p.InvalidRows)
	}
	want := PreviewSummary{TotalRows: 4, ValidRows: 3, InvalidRows: 1, Items: 2, Creates: 1, Updates: 1, Merged: 1, NameVariants: 1}
	if p.Summary != want {
		t.Errorf("Summary = %+v, want %+v", p.Summary, want)
	}
	if len(p.BulkPayload) != 2 || !p.BulkPayload[0].Quantity.Equal(dec("25")) {
		t.Errorf("BulkPayload = %+v", p.BulkPayload)
	}

	// Preview does not write.
	entries, _ := mem.ListEntries(ctx, engine.ScopeSite, "site-1")
	if len(entries) != 1 || !entries[0].Quantity.Equal(dec("50")) {
		t.Errorf("inventory changed by preview: %+v", entries)
	}
}

func TestPreviewImport_CommaDecimalCSV(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	body := "Item;Qty;Unit;Price\nSand;1,5;m3;1.234,50\n\nGravel;abc;m3;\nCement;2;bag;\n"
	p, err := svc.PreviewImport(ctx, supervisor, csvImport(engine.ScopeSite, "site-1", body, false))
	if err != nil {
		t.Fatalf("PreviewImport() error = %v", err)
	}

	if len(p.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(p.Items))
	}
	sand := p.Items[0].BatchItem
	if !sand.Quantity.Equal(dec("1.5")) {
		t.Errorf("Sand quantity = %s, want 1.5", sand.Quantity)
	}
	if sand.UnitPrice == nil || !sand.UnitPrice.Equal(dec("1234.5")) {
		t.Errorf("Sand price = %v, want 1234.5", sand.UnitPrice)
	}
	// Gravel sits on line 4 of the file; the blank line before it counts.
	if len(p.InvalidRows) != 1 || p.InvalidRows[0].Row != 4 {
		t.Errorf("InvalidRows = %+v, want one at line 4", p.InvalidRows)
	}
}

func TestPreviewImport_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing unit column", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.PreviewImport(ctx, supervisor, csvImport(engine.ScopeSite, "s", "Name,Qty\nSand,1\n", false))
		var ve *engine.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("error = %v, want *ValidationError", err)
		}
		if len(ve.MissingColumns) != 1 || ve.MissingColumns[0] != "Unit" {
			t.Errorf("MissingColumns = %v, want [Unit]", ve.MissingColumns)
		}
	})

	t.Run("price required", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.PreviewImport(ctx, keeper, csvImport(engine.ScopeWarehouse, "w", "Name,Qty,Unit\nSand,1,m3\n", true))
		if MapError(err).Code != "IMP001" {
			t.Errorf("error = %v, want IMP001", err)
		}
	})

	t.Run("field staff cannot import", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.PreviewImport(ctx, staff, csvImport(engine.ScopeSite, "s", "Name,Qty,Unit\nSand,1,m3\n", false))
		if !errors.Is(err, engine.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("supervisor cannot import warehouse stock", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.PreviewImport(ctx, supervisor, csvImport(engine.ScopeWarehouse, "w", "Name,Qty,Unit\nSand,1,m3\n", false))
		if !errors.Is(err, engine.ErrForbidden) {
			t.Errorf("error = %v, want ErrForbidden", err)
		}
	})

	t.Run("file too large", func(t *testing.T) {
		svc, _ := newTestService(t)
		svc.cfg.MaxFileSize = 10
		_, err := svc.PreviewImport(ctx, supervisor, csvImport(engine.ScopeSite, "s", "Name,Qty,Unit\nSand,1,m3\n", false))
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("error = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("limiter full", func(t *testing.T) {
		svc, _ := newTestService(t)
		for svc.limiter.Available() > 0 {
			if err := svc.limiter.Acquire(ctx); err != nil {
				t.Fatalf("Acquire() error = %v", err)
			}
		}
		_, err := svc.PreviewImport(ctx, supervisor, csvImport(engine.ScopeSite, "s", "Name,Qty,Unit\nSand,1,m3\n", false))
		if !errors.Is(err, ErrTooManyImports) {
			t.Errorf("error = %v, want ErrTooManyImports", err)
		}
	})
}

func TestCommitImport_SiteSupervisorPricesIgnored(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	lines := []engine.BulkLine{{ItemName: "Sand", Quantity: dec("4"), Unit: "m3", UnitPrice: decPtr("30")}}
	res, err := svc.CommitImport(ctx, supervisor, engine.ScopeSite, "site-1", lines)
	if err != nil {
		t.Fatalf("CommitImport() error = %v", err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("Created = %d, want 1", len(res.Created))
	}
	e := res.Created[0]
	if e.Status != engine.StatusPendingPricing || e.EntryPrice != nil {
		t.Errorf("entry = %+v, want pending_pricing without price", e)
	}
}

func TestCommitImport_WarehouseTwoPrices(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)

	first := []engine.BulkLine{{ItemName: "Steel Rod", Quantity: dec("100"), Unit: "pcs", UnitPrice: decPtr("5")}}
	if _, err := svc.CommitImport(ctx, keeper, engine.ScopeWarehouse, "wh-1", first); err != nil {
		t.Fatalf("first CommitImport() error = %v", err)
	}
	second := []engine.BulkLine{{ItemName: "steel rods", Quantity: dec("20"), Unit: "pcs", UnitPrice: decPtr("6")}}
	res, err := svc.CommitImport(ctx, keeper, engine.ScopeWarehouse, "wh-1", second)
	if err != nil {
		t.Fatalf("second CommitImport() error = %v", err)
	}
	if len(res.Updated) != 1 {
		t.Fatalf("Updated = %d, want 1", len(res.Updated))
	}

	entries, _ := mem.ListEntries(ctx, engine.ScopeWarehouse, "wh-1")
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	if !e.Quantity.Equal(dec("120")) {
		t.Errorf("Quantity = %s, want 120", e.Quantity)
	}
	if !e.EntryPrice.Equal(dec("5")) || !e.CurrentPrice.Equal(dec("6")) {
		t.Errorf("prices entry=%s current=%s, want 5 and 6", e.EntryPrice, e.CurrentPrice)
	}
}

func TestCommitImport_RejectsBadPayload(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CommitImport(context.Background(), admin, engine.ScopeSite, "s",
		[]engine.BulkLine{{ItemName: "Sand", Quantity: dec("0")}})
	if !errors.Is(err, engine.ErrInvalidQuantity) {
		t.Errorf("error = %v, want ErrInvalidQuantity", err)
	}
}

func TestPricingWorkflow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	priced, err := svc.CreateSiteSupply(ctx, admin, engine.SiteSupplyInput{
		SiteID: "site-1", Name: "Nails", Quantity: dec("10"), Unit: "box", Price: decPtr("2"),
	})
	if err != nil {
		t.Fatalf("CreateSiteSupply(admin) error = %v", err)
	}
	pending, err := svc.CreateSiteSupply(ctx, supervisor, engine.SiteSupplyInput{
		SiteID: "site-1", Name: "Plywood", Quantity: dec("8"), Unit: "sheet",
	})
	if err != nil {
		t.Fatalf("CreateSiteSupply(supervisor) error = %v", err)
	}
	if pending.Status != engine.StatusPendingPricing {
		t.Errorf("Status = %s, want pending_pricing", pending.Status)
	}

	adminView, _ := svc.ListEntries(ctx, admin, engine.ScopeSite, "site-1")
	if adminView[0].ID != pending.ID || adminView[1].ID != priced.ID {
		t.Error("admin listing should show pending entries first")
	}
	supView, _ := svc.ListEntries(ctx, supervisor, engine.ScopeSite, "site-1")
	if supView[0].ID != priced.ID {
		t.Error("supervisor listing should keep insertion order")
	}

	if _, err := svc.SetPrice(ctx, supervisor, pending.ID, dec("15"), "PHP"); !errors.Is(err, engine.ErrForbidden) {
		t.Errorf("SetPrice(supervisor) error = %v, want ErrForbidden", err)
	}
	got, err := svc.SetPrice(ctx, admin, pending.ID, dec("15"), "PHP")
	if err != nil {
		t.Fatalf("SetPrice(admin) error = %v", err)
	}
	if got.Status != engine.StatusPriced || !got.EntryPrice.Equal(dec("15")) || got.Currency != "PHP" {
		t.Errorf("SetPrice() = %+v", got)
	}

	name := "Marine Plywood"
	edited, err := svc.EditSiteSupplyDetails(ctx, supervisor, pending.ID, engine.DetailsEdit{Name: &name})
	if err != nil {
		t.Fatalf("EditSiteSupplyDetails() error = %v", err)
	}
	if edited.DisplayName != name || edited.Status != engine.StatusPriced {
		t.Errorf("edit changed status or missed name: %+v", edited)
	}

	if _, err := svc.SetPrice(ctx, admin, "missing", dec("1"), ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SetPrice(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSetCurrentPrice(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	e, _ := mem.CreateEntry(ctx, engine.InventoryEntry{
		Scope: engine.ScopeWarehouse, OwnerID: "wh-1", DisplayName: "Cement",
		Quantity: dec("5"), EntryPrice: decPtr("200"), CurrentPrice: decPtr("200"), Status: engine.StatusPriced,
	})

	got, err := svc.SetCurrentPrice(ctx, keeper, e.ID, dec("240"))
	if err != nil {
		t.Fatalf("SetCurrentPrice() error = %v", err)
	}
	if !got.EntryPrice.Equal(dec("200")) || !got.CurrentPrice.Equal(dec("240")) {
		t.Errorf("prices entry=%s current=%s, want 200 and 240", got.EntryPrice, got.CurrentPrice)
	}
	if _, err := svc.SetCurrentPrice(ctx, supervisor, e.ID, dec("1")); !errors.Is(err, engine.ErrForbidden) {
		t.Errorf("SetCurrentPrice(supervisor) error = %v, want ErrForbidden", err)
	}
}

func TestTransferWorkflow(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	wh, _ := mem.CreateEntry(ctx, engine.InventoryEntry{
		Scope: engine.ScopeWarehouse, OwnerID: "wh-1", DisplayName: "Gravel", Quantity: dec("100"), Unit: "m3",
	})

	req, err := svc.CreateSupplyRequest(ctx, supervisor, engine.SupplyRequestInput{
		SiteID: "site-1", WarehouseID: "wh-1", ItemName: "Gravel", RequestedQuantity: dec("50"), Unit: "m3",
	})
	if err != nil {
		t.Fatalf("CreateSupplyRequest() error = %v", err)
	}

	if _, err := svc.ApproveTransfer(ctx, keeper, req.ID, dec("60")); !errors.Is(err, engine.ErrInvalidQuantity) {
		t.Errorf("ApproveTransfer(60) error = %v, want ErrInvalidQuantity", err)
	}
	if _, err := svc.ApproveTransfer(ctx, supervisor, req.ID, dec("40")); !errors.Is(err, engine.ErrForbidden) {
		t.Errorf("ApproveTransfer(supervisor) error = %v, want ErrForbidden", err)
	}

	tr, err := svc.ApproveTransfer(ctx, keeper, req.ID, dec("40"))
	if err != nil {
		t.Fatalf("ApproveTransfer() error = %v", err)
	}
	if tr.AlreadyResolved || tr.Request.Status != engine.RequestApproved || !tr.Request.TransferredQuantity.Equal(dec("40")) {
		t.Errorf("transition = %+v", tr)
	}

	gotWh, _ := mem.GetEntry(ctx, wh.ID)
	if !gotWh.Quantity.Equal(dec("60")) {
		t.Errorf("warehouse Quantity = %s, want 60", gotWh.Quantity)
	}
	site, _ := mem.ListEntries(ctx, engine.ScopeSite, "site-1")
	if len(site) != 1 || !site[0].Quantity.Equal(dec("40")) {
		t.Errorf("site entries = %+v, want one of 40", site)
	}

	again, err := svc.ApproveTransfer(ctx, keeper, req.ID, dec("40"))
	if err != nil || !again.AlreadyResolved {
		t.Errorf("repeat ApproveTransfer() = %+v, %v; want AlreadyResolved", again, err)
	}
	gotWh, _ = mem.GetEntry(ctx, wh.ID)
	if !gotWh.Quantity.Equal(dec("60")) {
		t.Errorf("repeat approval moved stock: warehouse = %s", gotWh.Quantity)
	}

	if _, err := svc.RejectTransfer(ctx, keeper, req.ID); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Errorf("RejectTransfer(approved) error = %v, want ErrInvalidTransition", err)
	}

	pending, _ := svc.ListSupplyRequests(ctx, store.RequestFilter{Status: engine.RequestPending})
	if len(pending) != 0 {
		t.Errorf("pending requests = %d, want 0", len(pending))
	}
}

func TestTransfer_InsufficientStockAndReject(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService(t)
	mem.CreateEntry(ctx, engine.InventoryEntry{
		Scope: engine.ScopeWarehouse, OwnerID: "wh-1", DisplayName: "Gravel", Quantity: dec("10"),
	})
	req, _ := svc.CreateSupplyRequest(ctx, admin, engine.SupplyRequestInput{
		SiteID: "site-1", WarehouseID: "wh-1", ItemName: "gravel", RequestedQuantity: dec("50"),
	})

	if _, err := svc.ApproveTransfer(ctx, keeper, req.ID, dec("20")); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("ApproveTransfer() error = %v, want ErrInsufficientStock", err)
	}

	tr, err := svc.RejectTransfer(ctx, keeper, req.ID)
	if err != nil {
		t.Fatalf("RejectTransfer() error = %v", err)
	}
	if tr.Request.Status != engine.RequestRejected || !tr.Request.TransferredQuantity.IsZero() {
		t.Errorf("transition = %+v", tr)
	}
	again, err := svc.RejectTransfer(ctx, keeper, req.ID)
	if err != nil || !again.AlreadyResolved {
		t.Errorf("repeat RejectTransfer() = %+v, %v; want AlreadyResolved", again, err)
	}
}

func TestListSupplyRequests_BadStatus(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ListSupplyRequests(context.Background(), store.RequestFilter{Status: "archived"})
	if !errors.Is(err, engine.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}
