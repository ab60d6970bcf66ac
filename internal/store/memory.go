package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sitestock/supplytrack/internal/engine"
)

// Memory is an in-process Store. All operations hold a single mutex, which
// makes every bulk line and stock move atomic.
type Memory struct {
	mu       sync.Mutex
	entries  []engine.InventoryEntry
	requests []engine.SupplyRequest
	now      func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{now: func() time.Time { return time.Now().UTC() }}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) ListEntries(_ context.Context, scope engine.Scope, ownerID string) ([]engine.InventoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []engine.InventoryEntry{}
	for _, e := range m.entries {
		if e.Scope == scope && e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) GetEntry(_ context.Context, id string) (engine.InventoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.entryIndex(id)
	if i < 0 {
		return engine.InventoryEntry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return m.entries[i], nil
}

func (m *Memory) CreateEntry(_ context.Context, e engine.InventoryEntry) (engine.InventoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertEntry(e), nil
}

func (m *Memory) UpdateEntry(_ context.Context, e engine.InventoryEntry) (engine.InventoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.entryIndex(e.ID)
	if i < 0 {
		return engine.InventoryEntry{}, fmt.Errorf("entry %s: %w", e.ID, ErrNotFound)
	}
	// Identity and provenance fields are not editable.
	cur := m.entries[i]
	e.Scope, e.OwnerID, e.CreatedBy, e.CreatedAt = cur.Scope, cur.OwnerID, cur.CreatedBy, cur.CreatedAt
	m.entries[i] = e
	return e, nil
}

func (m *Memory) BulkUpsert(_ context.Context, scope engine.Scope, ownerID string, lines []engine.BulkLine, opts UpsertOptions) (engine.CommitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := engine.CommitResult{
		BatchID: uuid.NewString(),
		Created: []engine.InventoryEntry{},
		Updated: []engine.InventoryEntry{},
		Errors:  []engine.CommitError{},
	}
	for _, line := range lines {
		if engine.Normalize(line.ItemName) == "" {
			res.Errors = append(res.Errors, engine.CommitError{ItemName: line.ItemName, Reason: "missing item name"})
			continue
		}
		i := m.findByName(scope, ownerID, line.ItemName)
		if i < 0 {
			res.Created = append(res.Created, m.insertEntry(applyLine(nil, line, scope, ownerID, opts, m.now())))
			continue
		}
		updated := applyLine(&m.entries[i], line, scope, ownerID, opts, m.now())
		m.entries[i] = updated
		res.Updated = append(res.Updated, updated)
	}
	return res, nil
}

func (m *Memory) CreateRequest(_ context.Context, r engine.SupplyRequest) (engine.SupplyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = uuid.NewString()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now()
	}
	m.requests = append(m.requests, r)
	return r, nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (engine.SupplyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.requestIndex(id)
	if i < 0 {
		return engine.SupplyRequest{}, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	return m.requests[i], nil
}

func (m *Memory) ListRequests(_ context.Context, f RequestFilter) ([]engine.SupplyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []engine.SupplyRequest{}
	for _, r := range m.requests {
		if f.SiteID != "" && r.SiteID != f.SiteID {
			continue
		}
		if f.WarehouseID != "" && r.WarehouseID != f.WarehouseID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) ResolveRequest(_ context.Context, r engine.SupplyRequest) (engine.SupplyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ri := m.requestIndex(r.ID)
	if ri < 0 {
		return engine.SupplyRequest{}, fmt.Errorf("request %s: %w", r.ID, ErrNotFound)
	}
	if m.requests[ri].Status != engine.RequestPending {
		return m.requests[ri], fmt.Errorf("request %s: %w", r.ID, ErrConflict)
	}

	if r.Status == engine.RequestApproved {
		if r.TransferredQuantity == nil {
			return engine.SupplyRequest{}, fmt.Errorf("request %s: %w: no transfer quantity", r.ID, engine.ErrInvalidQuantity)
		}
		wi := m.findByName(engine.ScopeWarehouse, r.WarehouseID, r.ItemName)
		if wi < 0 {
			return engine.SupplyRequest{}, fmt.Errorf("request %s: %w: %q not stocked", r.ID, ErrInsufficientStock, r.ItemName)
		}
		si := m.findByName(engine.ScopeSite, r.SiteID, r.ItemName)
		var site *engine.InventoryEntry
		if si >= 0 {
			site = &m.entries[si]
		}

		wh, st, err := resolveStock(m.entries[wi], site, r, *r.TransferredQuantity, m.now())
		if err != nil {
			return engine.SupplyRequest{}, fmt.Errorf("request %s: %w", r.ID, err)
		}
		m.entries[wi] = wh
		if si >= 0 {
			m.entries[si] = st
		} else {
			m.insertEntry(st)
		}
	}

	m.requests[ri] = r
	return r, nil
}

func (m *Memory) insertEntry(e engine.InventoryEntry) engine.InventoryEntry {
	e.ID = uuid.NewString()
	now := m.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	m.entries = append(m.entries, e)
	return e
}

func (m *Memory) entryIndex(id string) int {
	for i := range m.entries {
		if m.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) requestIndex(id string) int {
	for i := range m.requests {
		if m.requests[i].ID == id {
			return i
		}
	}
	return -1
}

// findByName returns the first entry of the inventory whose normalized name
// matches name, or -1.
func (m *Memory) findByName(scope engine.Scope, ownerID, name string) int {
	key := engine.Normalize(name)
	for i := range m.entries {
		e := &m.entries[i]
		if e.Scope == scope && e.OwnerID == ownerID && engine.Normalize(e.DisplayName) == key {
			return i
		}
	}
	return -1
}
