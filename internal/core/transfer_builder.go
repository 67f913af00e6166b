package core

import "github.com/shopspring/decimal"

// TransferTarget is a destination shelf that needs quantity of an item.
type TransferTarget struct {
	ItemID   string
	ShelfID  string
	Quantity decimal.Decimal
}

// BuildTransferLines allocates sources for every target and returns the flat list of
// transfer lines. Quantity handed to one target is no longer available to the next
// target of the same item. An empty result means nothing can be moved.
func BuildTransferLines(targets []TransferTarget, sourcesByItem map[string][]ShelfRequirement, trackingByItem map[string]Tracking) []TransferLine {
	remaining := make(map[string][]ShelfRequirement, len(sourcesByItem))
	for itemID, shelves := range sourcesByItem {
		remaining[itemID] = append([]ShelfRequirement(nil), shelves...)
	}

	var lines []TransferLine
	for _, t := range targets {
		shelves := remaining[t.ItemID]
		tracking := trackingByItem[t.ItemID]

		for _, alloc := range SelectSources(t.Quantity, shelves, t.ShelfID) {
			if alloc.ShelfID == t.ShelfID || !alloc.Quantity.IsPositive() {
				continue
			}
			expanded := ExpandSerialLines(TransferLine{
				ItemID:                 t.ItemID,
				FromShelfID:            alloc.ShelfID,
				ToShelfID:              t.ShelfID,
				Quantity:               alloc.Quantity,
				RequiresSerialTracking: tracking.Serial,
				RequiresBatchTracking:  tracking.Batch,
			})
			if len(expanded) == 0 {
				continue
			}
			consume(shelves, alloc)
			lines = append(lines, expanded...)
		}
	}
	return lines
}

// ExpandSerialLines splits a serial-tracked line into one line per unit.
// Serial-tracked lines with a fractional quantity are dropped entirely.
func ExpandSerialLines(line TransferLine) []TransferLine {
	if !line.Quantity.IsPositive() {
		return nil
	}
	if !line.RequiresSerialTracking {
		return []TransferLine{line}
	}
	if !line.Quantity.IsInteger() {
		return nil
	}

	n := line.Quantity.IntPart()
	out := make([]TransferLine, 0, n)
	for i := int64(0); i < n; i++ {
		unit := line
		unit.Quantity = decimal.NewFromInt(1)
		out = append(out, unit)
	}
	return out
}

// consume marks alloc as spoken for on its source shelf.
func consume(shelves []ShelfRequirement, alloc SourceAllocation) {
	for i := range shelves {
		if shelves[i].ShelfID == alloc.ShelfID {
			shelves[i].QuantityRequired = shelves[i].QuantityRequired.Add(alloc.Quantity)
			return
		}
	}
}
