package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sitestock/supplytrack/internal/engine"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is a Store backed by PostgreSQL.
//
// Numeric columns travel as text (::numeric on write, ::text on read) so that
// decimal values never pass through float64.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgres wraps an open pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

const entryColumns = `id::text, scope, owner_id, display_name, quantity::text, unit,
	entry_price::text, current_price::text, status, currency, created_by, created_at, updated_at`

const requestColumns = `id::text, site_id, warehouse_id, item_name, requested_quantity::text, unit,
	status, transferred_quantity::text, requested_by, resolved_by, created_at, resolved_at`

func (p *Postgres) ListEntries(ctx context.Context, scope engine.Scope, ownerID string) ([]engine.InventoryEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM inventory_entries
		 WHERE scope = $1 AND owner_id = $2 ORDER BY seq`, string(scope), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (engine.InventoryEntry, error) {
		return scanEntry(r)
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (p *Postgres) GetEntry(ctx context.Context, id string) (engine.InventoryEntry, error) {
	return getEntry(ctx, p.pool, id, false)
}

func (p *Postgres) CreateEntry(ctx context.Context, e engine.InventoryEntry) (engine.InventoryEntry, error) {
	return insertEntry(ctx, p.pool, e, p.now())
}

func (p *Postgres) UpdateEntry(ctx context.Context, e engine.InventoryEntry) (engine.InventoryEntry, error) {
	return updateEntry(ctx, p.pool, e)
}

// BulkUpsert commits each line in its own transaction. An advisory lock on
// the inventory and item key serializes concurrent commits of the same item.
func (p *Postgres) BulkUpsert(ctx context.Context, scope engine.Scope, ownerID string, lines []engine.BulkLine, opts UpsertOptions) (engine.CommitResult, error) {
	res := engine.CommitResult{
		BatchID: uuid.NewString(),
		Created: []engine.InventoryEntry{},
		Updated: []engine.InventoryEntry{},
		Errors:  []engine.CommitError{},
	}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e, created, err := p.upsertLine(ctx, scope, ownerID, line, opts)
		if err != nil {
			slog.Warn("bulk upsert line failed",
				"batch_id", res.BatchID, "item", line.ItemName, "error", err)
			res.Errors = append(res.Errors, engine.CommitError{ItemName: line.ItemName, Reason: err.Error()})
			continue
		}
		if created {
			res.Created = append(res.Created, e)
		} else {
			res.Updated = append(res.Updated, e)
		}
	}
	return res, nil
}

func (p *Postgres) upsertLine(ctx context.Context, scope engine.Scope, ownerID string, line engine.BulkLine, opts UpsertOptions) (engine.InventoryEntry, bool, error) {
	key := engine.Normalize(line.ItemName)
	if key == "" {
		return engine.InventoryEntry{}, false, errors.New("missing item name")
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return engine.InventoryEntry{}, false, err
	}
	defer tx.Rollback(ctx) // no-op after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(scope, ownerID, key)); err != nil {
		return engine.InventoryEntry{}, false, err
	}

	existing, err := findByKey(ctx, tx, scope, ownerID, key)
	if err != nil {
		return engine.InventoryEntry{}, false, err
	}

	next := applyLine(existing, line, scope, ownerID, opts, p.now())
	var out engine.InventoryEntry
	if existing == nil {
		out, err = insertEntry(ctx, tx, next, p.now())
	} else {
		out, err = updateEntry(ctx, tx, next)
	}
	if err != nil {
		return engine.InventoryEntry{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return engine.InventoryEntry{}, false, err
	}
	return out, existing == nil, nil
}

func (p *Postgres) CreateRequest(ctx context.Context, r engine.SupplyRequest) (engine.SupplyRequest, error) {
	r.ID = uuid.NewString()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = p.now()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO supply_requests
		   (id, site_id, warehouse_id, item_name, requested_quantity, unit, status, requested_by, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5::numeric, $6, $7, $8, $9)`,
		r.ID, r.SiteID, r.WarehouseID, r.ItemName, r.RequestedQuantity.String(), r.Unit,
		string(r.Status), r.RequestedBy, r.CreatedAt)
	if err != nil {
		return engine.SupplyRequest{}, fmt.Errorf("create request: %w", err)
	}
	return r, nil
}

func (p *Postgres) GetRequest(ctx context.Context, id string) (engine.SupplyRequest, error) {
	return getRequest(ctx, p.pool, id, false)
}

func (p *Postgres) ListRequests(ctx context.Context, f RequestFilter) ([]engine.SupplyRequest, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, val string) {
		args = append(args, val)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if f.SiteID != "" {
		add("site_id", f.SiteID)
	}
	if f.WarehouseID != "" {
		add("warehouse_id", f.WarehouseID)
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}

	q := `SELECT ` + requestColumns + ` FROM supply_requests`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY seq`

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	reqs, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (engine.SupplyRequest, error) {
		return scanRequest(r)
	})
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return reqs, nil
}

// ResolveRequest locks the request row, then the warehouse and site entries,
// and applies the resolution in one transaction.
func (p *Postgres) ResolveRequest(ctx context.Context, r engine.SupplyRequest) (engine.SupplyRequest, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return engine.SupplyRequest{}, fmt.Errorf("resolve request: %w", err)
	}
	defer tx.Rollback(ctx)

	cur, err := getRequest(ctx, tx, r.ID, true)
	if err != nil {
		return engine.SupplyRequest{}, err
	}
	if cur.Status != engine.RequestPending {
		return cur, fmt.Errorf("request %s: %w", r.ID, ErrConflict)
	}

	if r.Status == engine.RequestApproved {
		if err := p.moveStock(ctx, tx, r); err != nil {
			return engine.SupplyRequest{}, fmt.Errorf("request %s: %w", r.ID, err)
		}
	}

	var transferred *string
	if r.TransferredQuantity != nil {
		s := r.TransferredQuantity.String()
		transferred = &s
	}
	_, err = tx.Exec(ctx,
		`UPDATE supply_requests
		 SET status = $2, transferred_quantity = $3::numeric, resolved_by = $4, resolved_at = $5
		 WHERE id = $1::uuid`,
		r.ID, string(r.Status), transferred, r.ResolvedBy, r.ResolvedAt)
	if err != nil {
		return engine.SupplyRequest{}, fmt.Errorf("resolve request: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return engine.SupplyRequest{}, fmt.Errorf("resolve request: %w", err)
	}
	return r, nil
}

func (p *Postgres) moveStock(ctx context.Context, tx pgx.Tx, r engine.SupplyRequest) error {
	if r.TransferredQuantity == nil {
		return fmt.Errorf("%w: no transfer quantity", engine.ErrInvalidQuantity)
	}
	key := engine.Normalize(r.ItemName)

	// Lock order is always warehouse then site.
	for _, lk := range []string{
		lockKey(engine.ScopeWarehouse, r.WarehouseID, key),
		lockKey(engine.ScopeSite, r.SiteID, key),
	} {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lk); err != nil {
			return err
		}
	}

	wh, err := findByKey(ctx, tx, engine.ScopeWarehouse, r.WarehouseID, key)
	if err != nil {
		return err
	}
	if wh == nil {
		return fmt.Errorf("%w: %q not stocked", ErrInsufficientStock, r.ItemName)
	}
	site, err := findByKey(ctx, tx, engine.ScopeSite, r.SiteID, key)
	if err != nil {
		return err
	}

	now := p.now()
	newWh, newSite, err := resolveStock(*wh, site, r, *r.TransferredQuantity, now)
	if err != nil {
		return err
	}
	if _, err := updateEntry(ctx, tx, newWh); err != nil {
		return err
	}
	if site == nil {
		_, err = insertEntry(ctx, tx, newSite, now)
	} else {
		_, err = updateEntry(ctx, tx, newSite)
	}
	return err
}

func lockKey(scope engine.Scope, ownerID, key string) string {
	return string(scope) + "\x00" + ownerID + "\x00" + key
}

func findByKey(ctx context.Context, db DBTX, scope engine.Scope, ownerID, key string) (*engine.InventoryEntry, error) {
	e, err := scanEntry(db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM inventory_entries
		 WHERE scope = $1 AND owner_id = $2 AND name_key = $3
		 ORDER BY seq LIMIT 1 FOR UPDATE`, string(scope), ownerID, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return &e, nil
}

func getEntry(ctx context.Context, db DBTX, id string, lock bool) (engine.InventoryEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return engine.InventoryEntry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	q := `SELECT ` + entryColumns + ` FROM inventory_entries WHERE id = $1::uuid`
	if lock {
		q += ` FOR UPDATE`
	}
	e, err := scanEntry(db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.InventoryEntry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return engine.InventoryEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func insertEntry(ctx context.Context, db DBTX, e engine.InventoryEntry, now time.Time) (engine.InventoryEntry, error) {
	e.ID = uuid.NewString()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	_, err := db.Exec(ctx,
		`INSERT INTO inventory_entries
		   (id, scope, owner_id, display_name, name_key, quantity, unit, entry_price, current_price,
		    status, currency, created_by, created_at, updated_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6::numeric, $7, $8::numeric, $9::numeric, $10, $11, $12, $13, $14)`,
		e.ID, string(e.Scope), e.OwnerID, e.DisplayName, engine.Normalize(e.DisplayName),
		e.Quantity.String(), e.Unit, decimalText(e.EntryPrice), decimalText(e.CurrentPrice),
		string(e.Status), e.Currency, e.CreatedBy, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return engine.InventoryEntry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

func updateEntry(ctx context.Context, db DBTX, e engine.InventoryEntry) (engine.InventoryEntry, error) {
	tag, err := db.Exec(ctx,
		`UPDATE inventory_entries
		 SET display_name = $2, name_key = $3, quantity = $4::numeric, unit = $5,
		     entry_price = $6::numeric, current_price = $7::numeric,
		     status = $8, currency = $9, updated_at = $10
		 WHERE id = $1::uuid`,
		e.ID, e.DisplayName, engine.Normalize(e.DisplayName), e.Quantity.String(), e.Unit,
		decimalText(e.EntryPrice), decimalText(e.CurrentPrice), string(e.Status), e.Currency, e.UpdatedAt)
	if err != nil {
		return engine.InventoryEntry{}, fmt.Errorf("update entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.InventoryEntry{}, fmt.Errorf("entry %s: %w", e.ID, ErrNotFound)
	}
	return e, nil
}

func getRequest(ctx context.Context, db DBTX, id string, lock bool) (engine.SupplyRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return engine.SupplyRequest{}, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	q := `SELECT ` + requestColumns + ` FROM supply_requests WHERE id = $1::uuid`
	if lock {
		q += ` FOR UPDATE`
	}
	r, err := scanRequest(db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.SupplyRequest{}, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return engine.SupplyRequest{}, fmt.Errorf("get request: %w", err)
	}
	return r, nil
}

func scanEntry(row pgx.Row) (engine.InventoryEntry, error) {
	var (
		e                    engine.InventoryEntry
		scope, status, qty   string
		entryPrice, curPrice *string
	)
	err := row.Scan(&e.ID, &scope, &e.OwnerID, &e.DisplayName, &qty, &e.Unit,
		&entryPrice, &curPrice, &status, &e.Currency, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return engine.InventoryEntry{}, err
	}
	e.Scope = engine.Scope(scope)
	e.Status = engine.PricingStatus(status)
	if e.Quantity, err = decimal.NewFromString(qty); err != nil {
		return engine.InventoryEntry{}, fmt.Errorf("scan quantity: %w", err)
	}
	if e.EntryPrice, err = parseDecimalText(entryPrice); err != nil {
		return engine.InventoryEntry{}, err
	}
	if e.CurrentPrice, err = parseDecimalText(curPrice); err != nil {
		return engine.InventoryEntry{}, err
	}
	return e, nil
}

func scanRequest(row pgx.Row) (engine.SupplyRequest, error) {
	var (
		r           engine.SupplyRequest
		status, qty string
		transferred *string
	)
	err := row.Scan(&r.ID, &r.SiteID, &r.WarehouseID, &r.ItemName, &qty, &r.Unit,
		&status, &transferred, &r.RequestedBy, &r.ResolvedBy, &r.CreatedAt, &r.ResolvedAt)
	if err != nil {
		return engine.SupplyRequest{}, err
	}
	r.Status = engine.RequestStatus(status)
	if r.RequestedQuantity, err = decimal.NewFromString(qty); err != nil {
		return engine.SupplyRequest{}, fmt.Errorf("scan requested quantity: %w", err)
	}
	if r.TransferredQuantity, err = parseDecimalText(transferred); err != nil {
		return engine.SupplyRequest{}, err
	}
	return r, nil
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimalText(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("scan decimal %q: %w", *s, err)
	}
	return &d, nil
}
