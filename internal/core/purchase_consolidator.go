package core

import "github.com/shopspring/decimal"

// ConsolidatePurchase merges the planned orders of one (item, supplier) pair into a
// single purchase-order line.
//
// Quantities are summed and then rounded, never rounded per order. The minimum order
// quantity is a floor on the total. Price, tax, description and unit of measure come
// from the first order.
func ConsolidatePurchase(orders []PlannedOrder, minimumOrderQuantity decimal.Decimal) PurchaseOrderLine {
	var line PurchaseOrderLine
	if len(orders) == 0 {
		return line
	}

	first := orders[0]
	line.ItemID = first.ItemID
	line.Description = first.Description
	line.PurchaseUnitOfMeasureCode = first.UnitOfMeasureCode
	if first.UnitPrice != nil {
		line.SupplierUnitPrice = *first.UnitPrice
	}

	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Quantity)
		if o.DueDate == nil {
			continue
		}
		if line.PromisedDate == nil || o.DueDate.Before(*line.PromisedDate) {
			d := *o.DueDate
			line.PromisedDate = &d
		}
	}
	if minimumOrderQuantity.IsPositive() {
		total = decimal.Max(total, minimumOrderQuantity)
	}
	line.PurchaseQuantity = total.Round(QuantityPlaces)

	if first.TaxPercent != nil {
		line.SupplierTaxAmount = line.PurchaseQuantity.
			Mul(line.SupplierUnitPrice).
			Mul(*first.TaxPercent).
			Round(MoneyPlaces)
	}
	return line
}
