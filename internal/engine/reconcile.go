package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReconcileOptions controls how a batch is diffed against inventory.
type ReconcileOptions struct {
	// Priced marks inventories whose entries must carry a price; plan items
	// without a usable price are flagged NeedsPricing.
	Priced bool
}

// Reconcile diffs a batch against an inventory snapshot.
//
// Each batch item is matched to the first snapshot entry whose display name
// normalizes to the item's key. Unmatched items become creates; matched items
// become updates whose resulting quantity is the existing quantity plus the
// imported quantity. Neither input is modified, so the same inputs always
// yield the same plan.
func Reconcile(batch []BatchItem, snapshot []InventoryEntry, opts ReconcileOptions) ([]PlanItem, error) {
	index := make(map[string]int, len(snapshot))
	for i := range snapshot {
		key := Normalize(snapshot[i].DisplayName)
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}

	plan := make([]PlanItem, 0, len(batch))
	seen := make(map[string]bool, len(batch))
	for _, item := range batch {
		if err := checkBatchItem(item, seen); err != nil {
			return nil, err
		}

		pi := PlanItem{BatchItem: cloneBatchItem(item)}

		i, ok := index[item.NormalizedKey]
		if !ok {
			pi.Action = ActionCreate
			pi.ResultingQuantity = item.Quantity
			pi.NeedsPricing = opts.Priced && !usablePrice(item.UnitPrice)
			plan = append(plan, pi)
			continue
		}

		matched := cloneEntry(snapshot[i])
		pi.Matched = &matched
		pi.Action = ActionUpdate
		pi.ResultingQuantity = matched.Quantity.Add(item.Quantity)
		if !sameDisplayName(matched.DisplayName, item.DisplayName) {
			pi.NameVariationNote = fmt.Sprintf("Will update '%s'", matched.DisplayName)
		}

		price := item.UnitPrice
		if price == nil {
			price = matched.KnownPrice()
		}
		pi.NeedsPricing = opts.Priced && !usablePrice(price)

		plan = append(plan, pi)
	}
	return plan, nil
}

// checkBatchItem enforces the invariants Deduplicate guarantees.
func checkBatchItem(item BatchItem, seen map[string]bool) error {
	switch {
	case item.DisplayName == "":
		return &ReconciliationError{Item: item.NormalizedKey, Reason: "empty display name"}
	case item.NormalizedKey != Normalize(item.DisplayName):
		return &ReconciliationError{Item: item.DisplayName, Reason: "normalized key does not match display name"}
	case !item.Quantity.IsPositive():
		return &ReconciliationError{Item: item.DisplayName, Reason: "quantity must be positive"}
	case seen[item.NormalizedKey]:
		return &ReconciliationError{Item: item.DisplayName, Reason: "duplicate normalized key in batch"}
	}
	seen[item.NormalizedKey] = true
	return nil
}

func usablePrice(p *decimal.Decimal) bool {
	return p != nil && p.IsPositive()
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func cloneBatchItem(b BatchItem) BatchItem {
	b.UnitPrice = copyDecimal(b.UnitPrice)
	return b
}

func cloneEntry(e InventoryEntry) InventoryEntry {
	e.EntryPrice = copyDecimal(e.EntryPrice)
	e.CurrentPrice = copyDecimal(e.CurrentPrice)
	return e
}

// PlanSummary counts the outcome of a reconciliation plan.
type PlanSummary struct {
	Items        int `json:"items"`
	Creates      int `json:"creates"`
	Updates      int `json:"updates"`
	Merged       int `json:"merged"`
	NameVariants int `json:"nameVariants"`
	NeedsPricing int `json:"needsPricing"`
}

// Summarize counts actions and flags across a plan.
func Summarize(plan []PlanItem) PlanSummary {
	s := PlanSummary{Items: len(plan)}
	for _, pi := range plan {
		if pi.Action == ActionCreate {
			s.Creates++
		} else {
			s.Updates++
		}
		if pi.BatchItem.MergedFromMultipleRows {
			s.Merged++
		}
		if pi.NameVariationNote != "" {
			s.NameVariants++
		}
		if pi.NeedsPricing {
			s.NeedsPricing++
		}
	}
	return s
}
