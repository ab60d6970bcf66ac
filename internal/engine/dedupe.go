package engine

// Deduplicate merges records that normalize to the same identity.
//
// The first record seen for a key fixes the display name and unit. Later
// records add their quantity and mark the item as merged. When records carry
// prices, the highest observed price is kept. Output follows the order in
// which each key was first seen.
func Deduplicate(records []CanonicalRecord) []BatchItem {
	items := make([]BatchItem, 0, len(records))
	byKey := make(map[string]int, len(records))

	for _, rec := range records {
		key := Normalize(rec.DisplayName)

		i, seen := byKey[key]
		if !seen {
			byKey[key] = len(items)
			items = append(items, BatchItem{
				DisplayName:   rec.DisplayName,
				Quantity:      rec.Quantity,
				Unit:          rec.Unit,
				UnitPrice:     copyDecimal(rec.UnitPrice),
				NormalizedKey: key,
			})
			continue
		}

		item := &items[i]
		item.Quantity = item.Quantity.Add(rec.Quantity)
		item.MergedFromMultipleRows = true
		if rec.UnitPrice != nil && (item.UnitPrice == nil || rec.UnitPrice.GreaterThan(*item.UnitPrice)) {
			item.UnitPrice = copyDecimal(rec.UnitPrice)
		}
	}
	return items
}
