package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BulkLine is one item of the flattened commit payload.
type BulkLine struct {
	ItemName  string           `json:"itemName" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Unit      string           `json:"unit"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

// BuildBulkPayload flattens a plan into commit lines, one per plan item.
// Quantities are the imported deltas; the storage layer adds them to the
// entries it holds at commit time.
func BuildBulkPayload(plan []PlanItem) []BulkLine {
	lines := make([]BulkLine, 0, len(plan))
	for _, pi := range plan {
		lines = append(lines, BulkLine{
			ItemName:  pi.BatchItem.DisplayName,
			Quantity:  pi.BatchItem.Quantity,
			Unit:      pi.BatchItem.Unit,
			UnitPrice: copyDecimal(pi.BatchItem.UnitPrice),
		})
	}
	return lines
}

// ValidateBulkLines checks commit lines before they are sent to storage.
// Lines are collapsed again by normalized name so a hand-edited payload cannot
// upsert the same item twice.
func ValidateBulkLines(lines []BulkLine) ([]BulkLine, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty commit payload", ErrInvalidInput)
	}

	records := make([]CanonicalRecord, 0, len(lines))
	for i, l := range lines {
		if Normalize(l.ItemName) == "" {
			return nil, fmt.Errorf("%w: line %d has no item name", ErrInvalidInput, i+1)
		}
		if err := checkQuantity(l.Quantity); err != nil {
			return nil, fmt.Errorf("line %d (%s): %w", i+1, l.ItemName, err)
		}
		if l.UnitPrice != nil {
			if l.UnitPrice.IsNegative() {
				return nil, fmt.Errorf("%w: line %d (%s)", ErrInvalidPrice, i+1, l.ItemName)
			}
			if p := amountProblem(*l.UnitPrice); p != "" {
				return nil, fmt.Errorf("%w: line %d (%s): %s", ErrInvalidPrice, i+1, l.ItemName, p)
			}
		}
		records = append(records, CanonicalRecord{
			DisplayName: l.ItemName,
			Quantity:    l.Quantity,
			Unit:        l.Unit,
			UnitPrice:   l.UnitPrice,
		})
	}

	items := Deduplicate(records)
	out := make([]BulkLine, 0, len(items))
	for _, it := range items {
		out = append(out, BulkLine{ItemName: it.DisplayName, Quantity: it.Quantity, Unit: it.Unit, UnitPrice: it.UnitPrice})
	}
	return out, nil
}

// CommitResult aggregates per-item outcomes of a bulk commit. A failed item
// never blocks the others.
type CommitResult struct {
	BatchID string           `json:"batchId,omitempty"`
	Created []InventoryEntry `json:"created"`
	Updated []InventoryEntry `json:"updated"`
	Errors  []CommitError    `json:"errors"`
}

// Failed reports how many items could not be committed.
func (r CommitResult) Failed() int {
	return len(r.Errors)
}
