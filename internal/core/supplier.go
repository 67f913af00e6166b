package core

// AssignSupplier picks the preferred supplier's part when one is on offer, otherwise
// the first part in input order. It returns nil when the item has no supplier parts.
func AssignSupplier(parts []SupplierPart, preferredSupplierID string) *SupplierPart {
	if len(parts) == 0 {
		return nil
	}
	if preferredSupplierID != "" {
		for i := range parts {
			if parts[i].SupplierID == preferredSupplierID {
				p := parts[i]
				return &p
			}
		}
	}
	p := parts[0]
	return &p
}

// SupplierAssignment is an item bound to the supplier part it will be bought through.
type SupplierAssignment struct {
	ItemID string
	Part   SupplierPart
	Orders []PlannedOrder
}

// SupplierGroup collects the assignments bought from one supplier.
type SupplierGroup struct {
	SupplierID  string
	Assignments []SupplierAssignment
}

// GroupBySupplier groups assignments by supplier, keeping first-seen order of both
// suppliers and items.
func GroupBySupplier(assignments []SupplierAssignment) []SupplierGroup {
	index := make(map[string]int)
	var groups []SupplierGroup
	for _, a := range assignments {
		i, ok := index[a.Part.SupplierID]
		if !ok {
			i = len(groups)
			index[a.Part.SupplierID] = i
			groups = append(groups, SupplierGroup{SupplierID: a.Part.SupplierID})
		}
		groups[i].Assignments = append(groups[i].Assignments, a)
	}
	return groups
}
