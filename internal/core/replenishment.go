package core

// Classification splits order items by how they are replenished.
// Missing holds items without a usable replenishment record.
type Classification struct {
	Buy     []OrderItem
	Make    []OrderItem
	Missing []OrderItem
}

// Classify buckets items by replenishment system. "Buy and Make" plans as "Buy".
func Classify(items []OrderItem, replenishmentByItem map[string]ItemReplenishment) Classification {
	var c Classification
	for _, item := range items {
		rep, ok := replenishmentByItem[item.ItemID]
		if !ok {
			c.Missing = append(c.Missing, item)
			continue
		}
		switch rep.ReplenishmentSystem.Normalize() {
		case ReplenishBuy:
			c.Buy = append(c.Buy, item)
		case ReplenishMake:
			c.Make = append(c.Make, item)
		default:
			c.Missing = append(c.Missing, item)
		}
	}
	return c
}
