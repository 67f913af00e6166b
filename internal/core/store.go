package core

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned by a Locker when another run holds the key.
var ErrLockHeld = errors.New("planning run already in progress")

// ErrEmptyBatch is returned when a run is started with no items.
var ErrEmptyBatch = errors.New("no items to plan")

// Store is the storage capability set the planner needs. Every method is scoped by
// company; nothing is held as ambient state.
type Store interface {
	// ShelfSnapshot returns shelf-level quantities at a location. An empty itemIDs
	// returns every item stocked at the location.
	ShelfSnapshot(ctx context.Context, companyID, locationID string, itemIDs []string) ([]ShelfRequirement, error)
	ItemReplenishment(ctx context.Context, companyID string, itemIDs []string) (map[string]ItemReplenishment, error)
	ItemTracking(ctx context.Context, companyID string, itemIDs []string) (map[string]Tracking, error)
	SupplierParts(ctx context.Context, companyID string, itemIDs []string) (map[string][]SupplierPart, error)
	// Periods returns periods overlapping [from, to] plus the nearest period on each
	// side, sorted ascending by start date.
	Periods(ctx context.Context, from, to time.Time) ([]Period, error)

	CreateStockTransfer(ctx context.Context, t StockTransfer) (string, error)
	InsertTransferLines(ctx context.Context, companyID, transferID string, lines []TransferLine) error
	DeleteStockTransfer(ctx context.Context, companyID, transferID string) error

	// FindOpenPurchaseOrder returns a Draft or Planned order for the supplier at the
	// location, if one exists.
	FindOpenPurchaseOrder(ctx context.Context, companyID, supplierID, locationID string) (string, bool, error)
	CreatePurchaseOrder(ctx context.Context, po PurchaseOrder) (string, error)
	InsertPurchaseOrderLine(ctx context.Context, companyID, purchaseOrderID string, line PurchaseOrderLine) (string, error)

	// UpsertSupplyForecasts adds each entry's quantity to the stored forecast for its
	// key. Entries must already be aggregated.
	UpsertSupplyForecasts(ctx context.Context, companyID string, entries []SupplyForecastEntry) error
}

// ProductionPlanner accepts make orders for scheduling as production jobs.
type ProductionPlanner interface {
	Submit(ctx context.Context, companyID string, submission PlanningSubmission) error
}

// Locker serializes planning runs that touch the same key. Lock returns
// ErrLockHeld when the key is taken; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(context.Context) error, error)
}

// RunLockKey is the lock key for runs at one company location.
func RunLockKey(companyID, locationID string) string {
	return "planning:" + companyID + ":" + locationID
}
