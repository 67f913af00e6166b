package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

type forecastKey struct {
	itemID, locationID, periodID string
}

// AggregateForecasts sums entries sharing (item, location, period) so that each key
// appears once in an upsert batch. Output is sorted by item, location, then period.
// The source type of the first entry seen for a key is kept.
func AggregateForecasts(entries []SupplyForecastEntry) []SupplyForecastEntry {
	index := make(map[forecastKey]int, len(entries))
	out := make([]SupplyForecastEntry, 0, len(entries))
	for _, e := range entries {
		k := forecastKey{e.ItemID, e.LocationID, e.PeriodID}
		if i, ok := index[k]; ok {
			out[i].ForecastQuantity = out[i].ForecastQuantity.Add(e.ForecastQuantity)
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}

	for i := range out {
		out[i].ForecastQuantity = out[i].ForecastQuantity.Round(QuantityPlaces)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		return a.PeriodID < b.PeriodID
	})
	return out
}

// forecastEntriesFor converts the planned orders bought for one item into forecast
// deltas in the item's inventory unit of measure.
func forecastEntriesFor(orders []PlannedOrder, locationID string, conversionFactor decimal.Decimal) []SupplyForecastEntry {
	factor := conversionFactor
	if !factor.IsPositive() {
		factor = decimal.NewFromInt(1)
	}
	entries := make([]SupplyForecastEntry, 0, len(orders))
	for _, o := range orders {
		entries = append(entries, SupplyForecastEntry{
			ItemID:           o.ItemID,
			LocationID:       locationID,
			PeriodID:         o.PeriodID,
			ForecastQuantity: o.Quantity.Mul(factor),
			SourceType:       ForecastSourceBuy,
		})
	}
	return entries
}
