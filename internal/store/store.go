// Package store persists inventory entries and supply requests.
//
// Two implementations satisfy [Store]: [Postgres], backed by a pgx pool,
// and [Memory], used by tests and local development. Both share the
// per-line upsert rules in upsert.go, so a bulk commit behaves the same
// whichever backend is configured.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sitestock/supplytrack/internal/engine"
)

var (
	// ErrNotFound is returned when an entry or request does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a request changed state between read
	// and write. Callers re-read and re-apply the transition.
	ErrConflict = errors.New("concurrent modification")

	// ErrInsufficientStock is returned when a warehouse cannot cover an
	// approved transfer.
	ErrInsufficientStock = errors.New("insufficient warehouse stock")
)

// DBTX is the subset of pgx used by the Postgres store.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// UpsertOptions carries commit-wide settings for BulkUpsert.
type UpsertOptions struct {
	ActorID  string
	Currency string
}

// RequestFilter narrows ListRequests. Empty fields match everything.
type RequestFilter struct {
	SiteID      string
	WarehouseID string
	Status      engine.RequestStatus
}

// Store is the storage collaborator of the service layer.
type Store interface {
	// ListEntries returns an inventory in insertion order.
	ListEntries(ctx context.Context, scope engine.Scope, ownerID string) ([]engine.InventoryEntry, error)
	GetEntry(ctx context.Context, id string) (engine.InventoryEntry, error)
	CreateEntry(ctx context.Context, e engine.InventoryEntry) (engine.InventoryEntry, error)
	// UpdateEntry overwrites the mutable fields of an existing entry.
	UpdateEntry(ctx context.Context, e engine.InventoryEntry) (engine.InventoryEntry, error)

	// BulkUpsert applies each line in its own transaction. A failing line is
	// reported in the result's Errors and does not stop the others.
	BulkUpsert(ctx context.Context, scope engine.Scope, ownerID string, lines []engine.BulkLine, opts UpsertOptions) (engine.CommitResult, error)

	CreateRequest(ctx context.Context, r engine.SupplyRequest) (engine.SupplyRequest, error)
	GetRequest(ctx context.Context, id string) (engine.SupplyRequest, error)
	ListRequests(ctx context.Context, f RequestFilter) ([]engine.SupplyRequest, error)

	// ResolveRequest persists an approval or rejection of a pending request.
	// For approvals the transferred quantity is moved from the warehouse
	// entry to the site entry in the same transaction. ErrConflict is
	// returned if the request is no longer pending.
	ResolveRequest(ctx context.Context, r engine.SupplyRequest) (engine.SupplyRequest, error)

	Ping(ctx context.Context) error
}
