package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SourceAllocation is the quantity taken from one source shelf.
type SourceAllocation struct {
	ShelfID  string
	Quantity decimal.Decimal
}

// SelectSources greedily covers required from the candidate shelves with the most
// available stock, skipping excludeShelfID and shelves with nothing available.
// Ties on available quantity are broken by shelf id ascending.
//
// The result may sum to less than required; the caller decides what to do about the
// remaining shortfall.
func SelectSources(required decimal.Decimal, candidates []ShelfRequirement, excludeShelfID string) []SourceAllocation {
	if !required.IsPositive() {
		return nil
	}

	eligible := make([]ShelfRequirement, 0, len(candidates))
	for _, c := range candidates {
		if c.ShelfID == excludeShelfID || !c.QuantityAvailable().IsPositive() {
			continue
		}
		eligible = append(eligible, c)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		ai, aj := eligible[i].QuantityAvailable(), eligible[j].QuantityAvailable()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return eligible[i].ShelfID < eligible[j].ShelfID
	})

	remaining := required
	var allocations []SourceAllocation
	for _, c := range eligible {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, c.QuantityAvailable())
		allocations = append(allocations, SourceAllocation{ShelfID: c.ShelfID, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return allocations
}
