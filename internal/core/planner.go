package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run kinds reported on RunReport.Kind.
const (
	RunJobMaterials  = "job-materials"
	RunStockTransfer = "stock-transfer"
	RunPurchasing    = "purchasing"
)

// Step names used in StepResult.Step.
const (
	stepTransfer   = "transfer"
	stepLookup     = "lookup"
	stepMake       = "make"
	stepProduction = "production"
	stepBuy        = "buy"
	stepPurchasing = "purchase-order"
	stepForecast   = "supply-forecast"
	stepReplenish  = "replenishment"
	stepRunLock    = "run-lock"
)

// JobMaterialsRequest asks for the materials of one job to be transferred or ordered.
type JobMaterialsRequest struct {
	CompanyID    string
	JobID        string
	LocationID   string
	JobStartDate *time.Time
	Items        []OrderItem
}

// StockTransferRequest asks for shelves at a location to be replenished from other
// shelves of the same location. Empty ItemIDs considers every item.
type StockTransferRequest struct {
	CompanyID  string
	LocationID string
	ItemIDs    []string
}

// PurchasingRequest carries planned buy orders grouped by item.
type PurchasingRequest struct {
	CompanyID  string
	LocationID string
	Items      []PlanningItem
}

// Planner runs allocation and replenishment planning.
type Planner interface {
	PlanJobMaterials(ctx context.Context, req JobMaterialsRequest) (*RunReport, error)
	PlanStockTransfer(ctx context.Context, req StockTransferRequest) (*RunReport, error)
	PlanPurchasing(ctx context.Context, req PurchasingRequest) (*RunReport, error)
}

type planner struct {
	store      Store
	production ProductionPlanner
	locker     Locker
	now        func() time.Time
}

// NewPlanner constructs a Planner. locker may be nil, in which case runs are not
// serialized.
func NewPlanner(store Store, production ProductionPlanner, locker Locker) Planner {
	return NewPlannerWithClock(store, production, locker, time.Now)
}

// NewPlannerWithClock is NewPlanner with an explicit clock for "today".
func NewPlannerWithClock(store Store, production ProductionPlanner, locker Locker, now func() time.Time) Planner {
	return &planner{store: store, production: production, locker: locker, now: now}
}

// PlanJobMaterials partitions the items by action and runs the transfer and order
// paths independently. A failure in one path never prevents the other.
func (p *planner) PlanJobMaterials(ctx context.Context, req JobMaterialsRequest) (*RunReport, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyBatch
	}

	report := &RunReport{Kind: RunJobMaterials, TotalItems: len(req.Items)}

	var transfers, orders []OrderItem
	for _, item := range req.Items {
		switch item.Action {
		case ActionTransfer:
			transfers = append(transfers, item)
		case ActionOrder:
			orders = append(orders, item)
		default:
			report.skip(stepLookup, item.ItemID, fmt.Sprintf("item %s: unknown action %q", item.label(), item.Action))
		}
	}

	if len(transfers) > 0 {
		p.transferJobMaterials(ctx, req, transfers, report)
	}
	if len(orders) > 0 {
		p.orderJobMaterials(ctx, req, orders, report)
	}
	return report, nil
}

// transferJobMaterials moves stock to the shelves the job items name.
func (p *planner) transferJobMaterials(ctx context.Context, req JobMaterialsRequest, items []OrderItem, report *RunReport) {
	var targets []TransferTarget
	var itemIDs []string
	tracking := make(map[string]Tracking)
	for _, item := range items {
		if item.ShelfID == "" {
			report.skip(stepTransfer, item.ItemID, fmt.Sprintf("item %s: no destination shelf", item.label()))
			continue
		}
		if !item.Quantity.IsPositive() {
			report.skip(stepTransfer, item.ItemID, fmt.Sprintf("item %s: nothing to transfer", item.label()))
			continue
		}
		targets = append(targets, TransferTarget{ItemID: item.ItemID, ShelfID: item.ShelfID, Quantity: item.Quantity})
		if _, seen := tracking[item.ItemID]; !seen {
			itemIDs = append(itemIDs, item.ItemID)
		}
		tracking[item.ItemID] = Tracking{Serial: item.RequiresSerialTracking, Batch: item.RequiresBatchTracking}
	}
	if len(targets) == 0 {
		return
	}

	id, lines, err := p.transfer(ctx, StockTransfer{
		CompanyID:  req.CompanyID,
		LocationID: req.LocationID,
		JobID:      req.JobID,
		Status:     StockTransferDraft,
	}, itemIDs, func([]ShelfRequirement) ([]TransferTarget, map[string]Tracking, error) {
		return targets, tracking, nil
	}, report)
	if err != nil {
		report.fail(stepTransfer, "", fmt.Errorf("create stock transfer: %w", err))
		return
	}

	if id != "" {
		report.StockTransferID = id
		report.HasTransfer = true
	}
	report.recordTargets(targets, lines)
}

// recordTargets marks targets that received at least one line as processed and
// the rest as skipped.
func (r *RunReport) recordTargets(targets []TransferTarget, lines []TransferLine) {
	served := make(map[[2]string]bool, len(lines))
	for _, l := range lines {
		served[[2]string{l.ItemID, l.ToShelfID}] = true
	}
	for _, t := range targets {
		if !served[[2]string{t.ItemID, t.ShelfID}] {
			r.skip(stepTransfer, t.ItemID, fmt.Sprintf("item %s: no stock available for shelf %s", t.ItemID, t.ShelfID))
			continue
		}
		r.ok(stepTransfer, t.ItemID)
		r.ProcessedItems++
	}
}

// targetFunc decides what to move once the snapshot is known.
type targetFunc func(snapshot []ShelfRequirement) ([]TransferTarget, map[string]Tracking, error)

// transfer takes the run lock, snapshots the location, builds lines and persists them
// as one stock transfer. It returns "" and no lines when there is nothing to move. If
// the lines cannot be written the transfer is deleted again. A failed lock release is
// recorded on report.
func (p *planner) transfer(ctx context.Context, header StockTransfer, itemIDs []string, pick targetFunc, report *RunReport) (string, []TransferLine, error) {
	if p.locker != nil {
		release, err := p.locker.Lock(ctx, RunLockKey(header.CompanyID, header.LocationID))
		if err != nil {
			return "", nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				report.fail(stepRunLock, "", fmt.Errorf("release run lock: %w", err))
			}
		}()
	}

	snapshot, err := p.store.ShelfSnapshot(ctx, header.CompanyID, header.LocationID, itemIDs)
	if err != nil {
		return "", nil, fmt.Errorf("load shelf snapshot: %w", err)
	}

	targets, tracking, err := pick(snapshot)
	if err != nil {
		return "", nil, err
	}

	lines := BuildTransferLines(targets, groupByItem(snapshot), tracking)
	if len(lines) == 0 {
		return "", nil, nil
	}

	header.Lines = lines
	id, err := p.store.CreateStockTransfer(ctx, header)
	if err != nil {
		return "", nil, fmt.Errorf("insert stock transfer: %w", err)
	}
	if err := p.store.InsertTransferLines(ctx, header.CompanyID, id, lines); err != nil {
		if delErr := p.store.DeleteStockTransfer(context.WithoutCancel(ctx), header.CompanyID, id); delErr != nil {
			return "", nil, fmt.Errorf("insert transfer lines: %w (delete transfer %s: %v)", err, id, delErr)
		}
		return "", nil, fmt.Errorf("insert transfer lines: %w", err)
	}
	return id, lines, nil
}

// orderJobMaterials classifies order items and runs the make and buy paths.
func (p *planner) orderJobMaterials(ctx context.Context, req JobMaterialsRequest, items []OrderItem, report *RunReport) {
	itemIDs := make([]string, 0, len(items))
	for _, item := range items {
		itemIDs = append(itemIDs, item.ItemID)
	}

	due, _ := orderDates(req.JobStartDate, p.now(), 0)

	var (
		replenishment map[string]ItemReplenishment
		periods       []Period
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		replenishment, err = p.store.ItemReplenishment(gctx, req.CompanyID, itemIDs)
		if err != nil {
			return fmt.Errorf("load item replenishment: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		periods, err = p.store.Periods(gctx, due, due)
		if err != nil {
			return fmt.Errorf("load periods: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		for _, item := range items {
			report.fail(stepLookup, item.ItemID, fmt.Errorf("item %s: %w", item.label(), err))
		}
		return
	}

	c := Classify(items, replenishment)
	for _, item := range c.Missing {
		report.skip(stepReplenish, item.ItemID, fmt.Sprintf("item %s: no replenishment record", item.label()))
	}

	if len(c.Make) > 0 {
		p.makeJobMaterials(ctx, req, c.Make, replenishment, periods, report)
	}
	if len(c.Buy) > 0 {
		p.buyJobMaterials(ctx, req, c.Buy, replenishment, periods, report)
	}
}

// makeJobMaterials submits lot-sized make orders to production planning in one call.
func (p *planner) makeJobMaterials(ctx context.Context, req JobMaterialsRequest, items []OrderItem, replenishment map[string]ItemReplenishment, periods []Period, report *RunReport) {
	var planned []PlanningItem
	var planItems []OrderItem
	for _, item := range items {
		orders, err := PlanMakeOrders(item, replenishment[item.ItemID], req.JobStartDate, p.now(), periods)
		if err != nil {
			report.fail(stepMake, item.ItemID, err)
			continue
		}
		planned = append(planned, PlanningItem{ID: item.ItemID, Orders: orders})
		planItems = append(planItems, item)
	}
	if len(planned) == 0 {
		return
	}
	if p.production == nil {
		report.fail(stepProduction, "", errors.New("production planning is not configured"))
		return
	}

	err := p.production.Submit(ctx, req.CompanyID, PlanningSubmission{
		Action:     PlanningActionOrder,
		LocationID: req.LocationID,
		Items:      planned,
	})
	if err != nil {
		report.fail(stepProduction, "", fmt.Errorf("submit production orders: %w", err))
		return
	}

	report.HasJobs = true
	for _, item := range planItems {
		report.ok(stepMake, item.ItemID)
		report.ProcessedItems++
		report.JobsSubmitted++
	}
}

// buyJobMaterials turns buy items into one planned order each and hands them to the
// purchasing path.
func (p *planner) buyJobMaterials(ctx context.Context, req JobMaterialsRequest, items []OrderItem, replenishment map[string]ItemReplenishment, periods []Period, report *RunReport) {
	var planned []PlanningItem
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			report.skip(stepBuy, item.ItemID, fmt.Sprintf("item %s: nothing to order", item.label()))
			continue
		}
		rep := replenishment[item.ItemID]
		due, start := orderDates(req.JobStartDate, p.now(), rep.LeadTime)
		periodID, err := ResolvePeriod(due, periods)
		if err != nil {
			report.fail(stepBuy, item.ItemID, fmt.Errorf("resolve period for item %s: %w", item.label(), err))
			continue
		}
		planned = append(planned, PlanningItem{
			ID: item.ItemID,
			Orders: []PlannedOrder{{
				ItemID:      item.ItemID,
				Description: item.Description,
				Quantity:    item.Quantity,
				DueDate:     &due,
				StartDate:   &start,
				PeriodID:    periodID,
			}},
		})
	}
	if len(planned) == 0 {
		return
	}

	p.purchase(ctx, req.CompanyID, req.LocationID, planned, replenishment, report)
}

func groupByItem(snapshot []ShelfRequirement) map[string][]ShelfRequirement {
	out := make(map[string][]ShelfRequirement)
	for _, s := range snapshot {
		out[s.ItemID] = append(out[s.ItemID], s)
	}
	return out
}
