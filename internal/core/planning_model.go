package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rounding applied once after consolidation (sum-then-round).
const (
	QuantityPlaces int32 = 4
	MoneyPlaces    int32 = 2
)

// ReplenishmentSystem is an item's supply policy.
type ReplenishmentSystem string

const (
	ReplenishBuy        ReplenishmentSystem = "Buy"
	ReplenishMake       ReplenishmentSystem = "Make"
	ReplenishBuyAndMake ReplenishmentSystem = "Buy and Make"
)

// Normalize folds "Buy and Make" into "Buy" for planning purposes.
func (r ReplenishmentSystem) Normalize() ReplenishmentSystem {
	if r == ReplenishBuyAndMake {
		return ReplenishBuy
	}
	return r
}

// MaterialAction is what the caller wants done about a required item.
type MaterialAction string

const (
	ActionOrder    MaterialAction = "order"
	ActionTransfer MaterialAction = "transfer"
)

const (
	StockTransferDraft  = "Draft"
	PurchaseOrderDraft  = "Draft"
	ForecastSourceBuy   = "Purchase Order"
	PlanningActionOrder = "order"
)

// ShelfRequirement is one shelf's quantities for an item at a location.
// It is computed per query and never persisted by the planner.
type ShelfRequirement struct {
	ItemID           string
	ShelfID          string
	QuantityOnHand   decimal.Decimal
	QuantityRequired decimal.Decimal
	QuantityIncoming decimal.Decimal
}

// QuantityAvailable is on-hand stock not already spoken for at this shelf.
func (s ShelfRequirement) QuantityAvailable() decimal.Decimal {
	return s.QuantityOnHand.Sub(s.QuantityRequired)
}

// Shortfall is what the shelf still needs after on-hand and incoming stock.
func (s ShelfRequirement) Shortfall() decimal.Decimal {
	return s.QuantityRequired.Sub(s.QuantityOnHand).Sub(s.QuantityIncoming)
}

// Tracking holds an item's serial/batch tracking flags.
type Tracking struct {
	Serial bool
	Batch  bool
}

// TransferLine moves a quantity of one item between two shelves of the same location.
type TransferLine struct {
	ItemID                 string
	FromShelfID            string
	ToShelfID              string
	Quantity               decimal.Decimal
	RequiresSerialTracking bool
	RequiresBatchTracking  bool
}

// StockTransfer owns its lines; deleting it deletes the lines.
type StockTransfer struct {
	ID         string
	CompanyID  string
	LocationID string
	JobID      string
	Status     string
	Lines      []TransferLine
}

// OrderItem is one required material handed in by the job-materials planner.
type OrderItem struct {
	ID                     string
	ItemID                 string
	ItemReadableID         string
	Description            string
	Action                 MaterialAction
	Quantity               decimal.Decimal
	RequiresSerialTracking bool
	RequiresBatchTracking  bool
	ShelfID                string
}

// label is the identifier used in error messages.
func (o OrderItem) label() string {
	if o.ItemReadableID != "" {
		return o.ItemReadableID
	}
	return o.ItemID
}

// ItemReplenishment is the read-only planning record of an item.
type ItemReplenishment struct {
	ItemID              string
	ReplenishmentSystem ReplenishmentSystem
	LeadTime            int // days
	LotSize             decimal.Decimal
	PreferredSupplierID string
	PurchasingBlocked   bool
}

// PlannedOrder is a single make or buy order produced during a run.
type PlannedOrder struct {
	ItemID            string           `json:"itemId"`
	Description       string           `json:"description,omitempty"`
	Quantity          decimal.Decimal  `json:"quantity"`
	DueDate           *time.Time       `json:"dueDate,omitempty"`
	StartDate         *time.Time       `json:"startDate,omitempty"`
	PeriodID          string           `json:"periodId"`
	SupplierID        string           `json:"supplierId,omitempty"`
	UnitPrice         *decimal.Decimal `json:"unitPrice,omitempty"`
	TaxPercent        *decimal.Decimal `json:"taxPercent,omitempty"`
	UnitOfMeasureCode string           `json:"unitOfMeasureCode,omitempty"`
}

// SupplierPart links an item to a supplier with purchasing terms.
type SupplierPart struct {
	ItemID                    string
	SupplierID                string
	SupplierUnitOfMeasureCode string
	ConversionFactor          decimal.Decimal
	UnitPrice                 decimal.Decimal
	MinimumOrderQuantity      decimal.Decimal
	TaxPercent                decimal.Decimal
}

// PurchaseOrder is a purchase order header.
type PurchaseOrder struct {
	ID         string
	CompanyID  string
	SupplierID string
	LocationID string
	Status     string
}

// PurchaseOrderLine is the consolidation of all planned orders for one (item, supplier) pair in a run.
type PurchaseOrderLine struct {
	ItemID                    string
	Description               string
	LocationID                string
	PurchaseQuantity          decimal.Decimal
	PurchaseUnitOfMeasureCode string
	ConversionFactor          decimal.Decimal
	PromisedDate              *time.Time
	SupplierUnitPrice         decimal.Decimal
	SupplierTaxAmount         decimal.Decimal
}

// SupplyForecastEntry is a projected inbound quantity keyed by (item, location, period).
type SupplyForecastEntry struct {
	ItemID           string
	LocationID       string
	PeriodID         string
	ForecastQuantity decimal.Decimal
	SourceType       string
}

// Period is a planning calendar bucket. Dates are inclusive.
type Period struct {
	ID        string
	StartDate time.Time
	EndDate   time.Time
}

// PlanningSubmission is the payload sent to the production-planning collaborator.
type PlanningSubmission struct {
	Action     string         `json:"action"`
	LocationID string         `json:"locationId"`
	Items      []PlanningItem `json:"items"`
}

// PlanningItem groups the planned orders of one item.
type PlanningItem struct {
	ID     string         `json:"id"`
	Orders []PlannedOrder `json:"orders"`
}
