package app

import (
	"context"

	"github.com/invopop/jsonschema"
)

// PlanningService is the single interface all adapters (CLI, Web) call.
// Implementations hold no display logic; adapters format PlanResult themselves.
type PlanningService interface {
	// PlanMaterials transfers or orders the materials of one job. Per-item failures
	// are folded into the result message; only validation and lock errors are returned.
	PlanMaterials(ctx context.Context, req MaterialsPlanRequest) (*PlanResult, error)

	// PlanStockTransfer replenishes short shelves at a location from its other shelves.
	PlanStockTransfer(ctx context.Context, req StockTransferPlanRequest) (*PlanResult, error)

	// PlanPurchasing turns planned buy orders into purchase-order lines and supply forecasts.
	PlanPurchasing(ctx context.Context, req PurchasingPlanRequest) (*PlanResult, error)

	// Schema returns the JSON Schema of a named request body.
	Schema(name string) (*jsonschema.Schema, error)
}

// EventPublisher receives a RunEvent after every planning run.
type EventPublisher interface {
	Publish(ctx context.Context, ev RunEvent) error
}
