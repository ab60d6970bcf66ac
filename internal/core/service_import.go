package core

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/logging"
	"github.com/sitestock/supplytrack/internal/store"
	"github.com/sitestock/supplytrack/internal/tabular"
)

// ImportRequest identifies the upload and the inventory it targets.
type ImportRequest struct {
	Scope        engine.Scope
	OwnerID      string
	Filename     string
	File         io.Reader
	RequirePrice bool
}

// PreviewSummary counts rows and planned actions of an import.
type PreviewSummary struct {
	TotalRows    int `json:"totalRows"`
	ValidRows    int `json:"validRows"`
	InvalidRows  int `json:"invalidRows"`
	Items        int `json:"items"`
	Creates      int `json:"creates"`
	Updates      int `json:"updates"`
	Merged       int `json:"merged"`
	NameVariants int `json:"nameVariants"`
	NeedsPricing int `json:"needsPricing"`
}

// ImportPreview is the reviewed-before-commit view of an import.
type ImportPreview struct {
	Scope        engine.Scope      `json:"scope"`
	OwnerID      string            `json:"ownerId"`
	Format       tabular.Format    `json:"format"`
	Headers      []string          `json:"headers"`
	RequirePrice bool              `json:"requirePrice"`
	Items        []engine.PlanItem `json:"items"`
	InvalidRows  []engine.RowError `json:"invalidRows"`
	Summary      PreviewSummary    `json:"summary"`
	BulkPayload  []engine.BulkLine `json:"bulkPayload"`
}

// PreviewImport decodes an uploaded spreadsheet and reconciles it against
// the target inventory. Nothing is written.
//
// A structurally invalid file (unknown format, missing required columns, no
// data rows) fails with an error; individual bad rows are reported in
// InvalidRows and left out of the plan.
func (s *Service) PreviewImport(ctx context.Context, actor engine.Actor, req ImportRequest) (*ImportPreview, error) {
	if err := checkImportTarget(actor, req.Scope, req.OwnerID); err != nil {
		return nil, fmt.Errorf("preview import: %w", err)
	}
	if req.File == nil {
		return nil, fmt.Errorf("preview import: no file provided")
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("preview import: %w", err)
	}
	defer s.limiter.Release()

	data, err := readLimited(req.File, s.cfg.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("preview import: %w", err)
	}

	table, err := tabular.Decode(bytes.NewReader(data), req.Filename, tabular.Options{MaxRows: s.cfg.MaxRows})
	if err != nil {
		return nil, fmt.Errorf("preview import: %w", err)
	}
	if err := engine.CheckHeaders(table.Headers, req.RequirePrice); err != nil {
		return nil, err
	}

	mapped, err := engine.MapRecordsWithLines(table.Rows, table.Lines, req.RequirePrice)
	if err != nil {
		return nil, err
	}
	batch := engine.Deduplicate(mapped.Records)

	snapshot, err := s.store.ListEntries(ctx, req.Scope, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("preview import: load inventory: %w", err)
	}

	plan, err := engine.Reconcile(batch, snapshot, engine.ReconcileOptions{Priced: req.RequirePrice})
	if err != nil {
		return nil, err
	}

	ps := engine.Summarize(plan)
	invalid := mapped.InvalidRows
	if invalid == nil {
		invalid = []engine.RowError{}
	}
	preview := &ImportPreview{
		Scope:        req.Scope,
		OwnerID:      req.OwnerID,
		Format:       table.Format,
		Headers:      table.Headers,
		RequirePrice: req.RequirePrice,
		Items:        plan,
		InvalidRows:  invalid,
		BulkPayload:  engine.BuildBulkPayload(plan),
		Summary: PreviewSummary{
			TotalRows:    len(table.Rows),
			ValidRows:    len(mapped.Records),
			InvalidRows:  len(invalid),
			Items:        ps.Items,
			Creates:      ps.Creates,
			Updates:      ps.Updates,
			Merged:       ps.Merged,
			NameVariants: ps.NameVariants,
			NeedsPricing: ps.NeedsPricing,
		},
	}

	logger := logging.WithFields(ctx, "scope", req.Scope, "owner_id", req.OwnerID, "format", table.Format)
	if len(invalid) > 0 {
		logger.Warn("import rows skipped", "invalid_rows", len(invalid))
	}
	logger.Info("import previewed",
		"rows", len(table.Rows),
		"items", ps.Items,
		"creates", ps.Creates,
		"updates", ps.Updates,
	)
	return preview, nil
}

// CommitImport upserts reviewed bulk lines into the target inventory. Each
// line is applied on its own; per-line failures are returned in the result's
// Errors alongside the lines that succeeded.
//
// On site inventories only administrators price entries: prices sent by
// anyone else are dropped and the entries stay pending_pricing.
func (s *Service) CommitImport(ctx context.Context, actor engine.Actor, scope engine.Scope, ownerID string, lines []engine.BulkLine) (engine.CommitResult, error) {
	if err := checkImportTarget(actor, scope, ownerID); err != nil {
		return engine.CommitResult{}, fmt.Errorf("commit import: %w", err)
	}

	lines, err := engine.ValidateBulkLines(lines)
	if err != nil {
		return engine.CommitResult{}, fmt.Errorf("commit import: %w", err)
	}
	dropped := 0
	if scope == engine.ScopeSite && !engine.CanSetPrice(actor) {
		lines, dropped = stripPrices(lines)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return engine.CommitResult{}, fmt.Errorf("commit import: %w", err)
	}
	defer s.limiter.Release()

	commitCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	res, err := s.store.BulkUpsert(commitCtx, scope, ownerID, lines, store.UpsertOptions{
		ActorID:  actor.ID,
		Currency: s.cfg.Currency,
	})
	if err != nil {
		return res, fmt.Errorf("commit import: %w", err)
	}

	logger := logging.WithFields(ctx, "scope", scope, "owner_id", ownerID, "batch_id", res.BatchID)
	if dropped > 0 {
		logger.Warn("import prices ignored for non-admin actor", "lines", dropped, "role", actor.Role)
	}
	for _, ce := range res.Errors {
		logger.Warn("import item failed", "item", ce.ItemName, "reason", ce.Reason)
	}
	logger.Info("import committed",
		"created", len(res.Created),
		"updated", len(res.Updated),
		"failed", res.Failed(),
	)
	return res, nil
}

func checkImportTarget(actor engine.Actor, scope engine.Scope, ownerID string) error {
	if !scope.Valid() {
		return fmt.Errorf("%w: unknown inventory scope %q", engine.ErrInvalidInput, scope)
	}
	if ownerID == "" {
		return fmt.Errorf("%w: inventory owner is required", engine.ErrInvalidInput)
	}
	if !engine.CanImport(actor, scope) {
		return engine.ErrForbidden
	}
	return nil
}

// stripPrices clears line prices and reports how many lines carried one.
func stripPrices(lines []engine.BulkLine) ([]engine.BulkLine, int) {
	n := 0
	for i := range lines {
		if lines[i].UnitPrice != nil {
			lines[i].UnitPrice = nil
			n++
		}
	}
	return lines, n
}

// readLimited reads r fully, failing with ErrFileTooLarge past max bytes.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, max)
	}
	return data, nil
}
