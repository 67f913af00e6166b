package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// PlanStockTransfer replenishes every shelf at the location whose stock falls short of
// its requirement, drawing from the other shelves of the same location. A held run
// lock is returned as ErrLockHeld rather than recorded in the report.
func (p *planner) PlanStockTransfer(ctx context.Context, req StockTransferRequest) (*RunReport, error) {
	report := &RunReport{Kind: RunStockTransfer}

	var targets []TransferTarget
	id, lines, err := p.transfer(ctx, StockTransfer{
		CompanyID:  req.CompanyID,
		LocationID: req.LocationID,
		Status:     StockTransferDraft,
	}, req.ItemIDs, func(snapshot []ShelfRequirement) ([]TransferTarget, map[string]Tracking, error) {
		targets = ShortfallTargets(snapshot)
		if len(targets) == 0 {
			return nil, nil, nil
		}
		itemIDs := make([]string, 0, len(targets))
		for _, t := range targets {
			itemIDs = append(itemIDs, t.ItemID)
		}
		tracking, err := p.store.ItemTracking(ctx, req.CompanyID, itemIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("load item tracking: %w", err)
		}
		return targets, tracking, nil
	}, report)
	if err != nil {
		if errors.Is(err, ErrLockHeld) {
			return nil, err
		}
		report.fail(stepTransfer, "", fmt.Errorf("create stock transfer: %w", err))
		return report, nil
	}

	report.TotalItems = len(targets)
	if id != "" {
		report.StockTransferID = id
		report.HasTransfer = true
	}
	report.recordTargets(targets, lines)
	return report, nil
}

// ShortfallTargets returns one target per shelf that needs more than it has on hand
// and incoming, ordered by item then shelf.
func ShortfallTargets(snapshot []ShelfRequirement) []TransferTarget {
	var targets []TransferTarget
	for _, s := range snapshot {
		if short := s.Shortfall(); short.IsPositive() {
			targets = append(targets, TransferTarget{ItemID: s.ItemID, ShelfID: s.ShelfID, Quantity: short})
		}
	}
	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].ItemID != targets[j].ItemID {
			return targets[i].ItemID < targets[j].ItemID
		}
		return targets[i].ShelfID < targets[j].ShelfID
	})
	return targets
}
