package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// PlanPurchasing consolidates planned buy orders into purchase-order lines, reusing
// an open purchase order per supplier, and records the resulting supply forecast.
func (p *planner) PlanPurchasing(ctx context.Context, req PurchasingRequest) (*RunReport, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyBatch
	}

	report := &RunReport{Kind: RunPurchasing, TotalItems: len(req.Items)}
	p.purchase(ctx, req.CompanyID, req.LocationID, req.Items, nil, report)
	return report, nil
}

// purchase runs the buy path. replenishment may be nil, in which case it is looked up.
// Repeated item ids are merged so each (item, supplier) pair yields one line.
func (p *planner) purchase(ctx context.Context, companyID, locationID string, items []PlanningItem, replenishment map[string]ItemReplenishment, report *RunReport) {
	items, entries := mergePlanningItems(items)
	itemIDs := make([]string, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ID)
	}
	from, to := p.dueRange(items)

	var (
		parts   map[string][]SupplierPart
		periods []Period
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		parts, err = p.store.SupplierParts(gctx, companyID, itemIDs)
		if err != nil {
			return fmt.Errorf("load supplier parts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		periods, err = p.store.Periods(gctx, from, to)
		if err != nil {
			return fmt.Errorf("load periods: %w", err)
		}
		return nil
	})
	if replenishment == nil {
		g.Go(func() error {
			var err error
			replenishment, err = p.store.ItemReplenishment(gctx, companyID, itemIDs)
			if err != nil {
				return fmt.Errorf("load item replenishment: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, item := range items {
			report.fail(stepLookup, item.ID, fmt.Errorf("item %s: %w", item.ID, err))
		}
		return
	}

	var assignments []SupplierAssignment
	for _, item := range items {
		rep := replenishment[item.ID]
		if rep.PurchasingBlocked {
			report.skip(stepBuy, item.ID, fmt.Sprintf("item %s: purchasing is blocked", item.ID))
			continue
		}
		part := AssignSupplier(parts[item.ID], rep.PreferredSupplierID)
		if part == nil {
			report.skip(stepBuy, item.ID, fmt.Sprintf("item %s: no supplier part", item.ID))
			continue
		}

		orders, err := p.priceOrders(item, *part, periods)
		if err != nil {
			report.fail(stepBuy, item.ID, err)
			continue
		}
		if len(orders) == 0 {
			report.skip(stepBuy, item.ID, fmt.Sprintf("item %s: no orders", item.ID))
			continue
		}
		assignments = append(assignments, SupplierAssignment{ItemID: item.ID, Part: *part, Orders: orders})
	}

	var forecasts []SupplyForecastEntry
	for _, group := range GroupBySupplier(assignments) {
		poID, err := p.openPurchaseOrder(ctx, companyID, group.SupplierID, locationID)
		if err != nil {
			for _, a := range group.Assignments {
				report.fail(stepPurchasing, a.ItemID, fmt.Errorf("item %s: %w", a.ItemID, err))
			}
			continue
		}

		inserted := false
		for _, a := range group.Assignments {
			line := ConsolidatePurchase(a.Orders, a.Part.MinimumOrderQuantity)
			line.LocationID = locationID
			line.ConversionFactor = a.Part.ConversionFactor
			if _, err := p.store.InsertPurchaseOrderLine(ctx, companyID, poID, line); err != nil {
				report.fail(stepPurchasing, a.ItemID, fmt.Errorf("insert purchase order line for item %s: %w", a.ItemID, err))
				continue
			}
			inserted = true
			report.ok(stepBuy, a.ItemID)
			report.ProcessedItems += entries[a.ItemID]
			forecasts = append(forecasts, forecastEntriesFor(a.Orders, locationID, a.Part.ConversionFactor)...)
		}
		if inserted {
			report.HasPurchaseOrder = true
			report.PurchaseOrderIDs = appendUnique(report.PurchaseOrderIDs, poID)
		}
	}

	if len(forecasts) == 0 {
		return
	}
	if err := p.store.UpsertSupplyForecasts(ctx, companyID, AggregateForecasts(forecasts)); err != nil {
		report.fail(stepForecast, "", fmt.Errorf("upsert supply forecasts: %w", err))
	}
}

// priceOrders fills supplier terms and periods into an item's planned orders.
// Orders without a positive quantity are dropped.
func (p *planner) priceOrders(item PlanningItem, part SupplierPart, periods []Period) ([]PlannedOrder, error) {
	today := dateOnly(p.now())
	orders := make([]PlannedOrder, 0, len(item.Orders))
	for _, o := range item.Orders {
		if !o.Quantity.IsPositive() {
			continue
		}
		o.ItemID = item.ID
		o.SupplierID = part.SupplierID
		if o.UnitPrice == nil {
			price := part.UnitPrice
			o.UnitPrice = &price
		}
		if o.TaxPercent == nil {
			tax := part.TaxPercent
			o.TaxPercent = &tax
		}
		if o.UnitOfMeasureCode == "" {
			o.UnitOfMeasureCode = part.SupplierUnitOfMeasureCode
		}
		if o.PeriodID == "" {
			due := today
			if o.DueDate != nil {
				due = *o.DueDate
			}
			periodID, err := ResolvePeriod(due, periods)
			if err != nil {
				return nil, fmt.Errorf("resolve period for item %s: %w", item.ID, err)
			}
			o.PeriodID = periodID
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// openPurchaseOrder finds the supplier's open purchase order at the location or
// creates a Draft one.
func (p *planner) openPurchaseOrder(ctx context.Context, companyID, supplierID, locationID string) (string, error) {
	id, ok, err := p.store.FindOpenPurchaseOrder(ctx, companyID, supplierID, locationID)
	if err != nil {
		return "", fmt.Errorf("find open purchase order for supplier %s: %w", supplierID, err)
	}
	if ok {
		return id, nil
	}

	id, err = p.store.CreatePurchaseOrder(ctx, PurchaseOrder{
		CompanyID:  companyID,
		SupplierID: supplierID,
		LocationID: locationID,
		Status:     PurchaseOrderDraft,
	})
	if err != nil {
		return "", fmt.Errorf("create purchase order for supplier %s: %w", supplierID, err)
	}
	return id, nil
}

// dueRange spans today and every due date in items.
func (p *planner) dueRange(items []PlanningItem) (from, to time.Time) {
	today := dateOnly(p.now())
	from, to = today, today
	for _, item := range items {
		for _, o := range item.Orders {
			if o.DueDate == nil {
				continue
			}
			d := dateOnly(*o.DueDate)
			if d.Before(from) {
				from = d
			}
			if d.After(to) {
				to = d
			}
		}
	}
	return from, to
}

// mergePlanningItems folds repeated item ids into one entry in first-seen order and
// returns how many request entries each merged item stands for.
func mergePlanningItems(items []PlanningItem) ([]PlanningItem, map[string]int) {
	index := make(map[string]int, len(items))
	entries := make(map[string]int, len(items))
	out := make([]PlanningItem, 0, len(items))
	for _, item := range items {
		entries[item.ID]++
		if i, ok := index[item.ID]; ok {
			out[i].Orders = append(out[i].Orders, item.Orders...)
			continue
		}
		index[item.ID] = len(out)
		item.Orders = append([]PlannedOrder(nil), item.Orders...)
		out = append(out, item)
	}
	return out, entries
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
