package app

import "github.com/shopspring/decimal"

// MaterialsPlanRequest is the input for planning the materials of one job.
type MaterialsPlanRequest struct {
	CompanyID    string         `json:"companyId" validate:"required"`
	JobID        string         `json:"jobId" validate:"required"`
	LocationID   string         `json:"locationId" validate:"required"`
	JobStartDate string         `json:"jobStartDate,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"format=date"`
	Items        []MaterialItem `json:"items" validate:"required,min=1,dive"`
}

// MaterialItem is one required material of a job.
type MaterialItem struct {
	ID                     string          `json:"id" validate:"required"`
	ItemID                 string          `json:"itemId" validate:"required"`
	ItemReadableID         string          `json:"itemReadableId,omitempty"`
	Description            string          `json:"description,omitempty"`
	Action                 string          `json:"action" validate:"required,oneof=order transfer" jsonschema:"enum=order,enum=transfer"`
	Quantity               decimal.Decimal `json:"quantity" validate:"gte=0"`
	RequiresSerialTracking bool            `json:"requiresSerialTracking"`
	RequiresBatchTracking  bool            `json:"requiresBatchTracking"`
	ShelfID                string          `json:"shelfId,omitempty" validate:"required_if=Action transfer"`
}

// StockTransferPlanRequest is the input for the stock-transfer wizard.
type StockTransferPlanRequest struct {
	CompanyID  string   `json:"companyId" validate:"required"`
	LocationID string   `json:"locationId" validate:"required"`
	ItemIDs    []string `json:"itemIds,omitempty" validate:"omitempty,dive,required"`
}

// PurchasingPlanRequest carries planned buy orders grouped by item.
type PurchasingPlanRequest struct {
	CompanyID  string           `json:"companyId" validate:"required"`
	Action     string           `json:"action" validate:"required,eq=order" jsonschema:"enum=order"`
	LocationID string           `json:"locationId" validate:"required"`
	Items      []PurchasingItem `json:"items" validate:"required,min=1,dive"`
}

// PurchasingItem groups the planned orders of one item.
type PurchasingItem struct {
	ID     string            `json:"id" validate:"required"`
	Orders []PurchasingOrder `json:"orders" validate:"required,min=1,dive"`
}

// PurchasingOrder is one planned buy order. Empty fields are filled from the
// item's supplier part.
type PurchasingOrder struct {
	Description       string           `json:"description,omitempty"`
	Quantity          decimal.Decimal  `json:"quantity" validate:"gt=0"`
	DueDate           string           `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"format=date"`
	StartDate         string           `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"format=date"`
	PeriodID          string           `json:"periodId,omitempty"`
	UnitPrice         *decimal.Decimal `json:"unitPrice,omitempty" validate:"omitempty,gte=0"`
	UnitOfMeasureCode string           `json:"unitOfMeasureCode,omitempty"`
}
