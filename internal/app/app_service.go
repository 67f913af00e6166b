package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"erp-planning/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrUnknownSchema is returned by Schema for names it does not publish.
var ErrUnknownSchema = errors.New("unknown schema")

// Schema names published by Schema.
const (
	SchemaMaterialsPlan     = "materials-plan"
	SchemaPurchasingPlan    = "purchasing-plan"
	SchemaStockTransferPlan = "stock-transfer-plan"
)

type planningService struct {
	planner  core.Planner
	events   EventPublisher
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewPlanningService constructs a PlanningService. events may be nil.
func NewPlanningService(planner core.Planner, events EventPublisher, log *zap.Logger) PlanningService {
	if log == nil {
		log = zap.NewNop()
	}
	return &planningService{
		planner:  planner,
		events:   events,
		log:      log,
		validate: newValidator(),
		now:      time.Now,
	}
}

// PlanMaterials validates the job's materials and runs the job-materials planner.
func (s *planningService) PlanMaterials(ctx context.Context, req MaterialsPlanRequest) (*PlanResult, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	var jobStart *time.Time
	if req.JobStartDate != "" {
		t, err := parseDate(req.JobStartDate)
		if err != nil {
			return nil, err
		}
		jobStart = &t
	}

	items := make([]core.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, core.OrderItem{
			ID:                     it.ID,
			ItemID:                 it.ItemID,
			ItemReadableID:         it.ItemReadableID,
			Description:            it.Description,
			Action:                 core.MaterialAction(it.Action),
			Quantity:               it.Quantity,
			RequiresSerialTracking: it.RequiresSerialTracking,
			RequiresBatchTracking:  it.RequiresBatchTracking,
			ShelfID:                it.ShelfID,
		})
	}

	report, err := s.planner.PlanJobMaterials(ctx, core.JobMaterialsRequest{
		CompanyID:    req.CompanyID,
		JobID:        req.JobID,
		LocationID:   req.LocationID,
		JobStartDate: jobStart,
		Items:        items,
	})
	if err != nil {
		return nil, s.planError(err)
	}
	return s.finish(ctx, report, req.CompanyID, req.LocationID, req.JobID), nil
}

// PlanStockTransfer validates the request and runs the stock-transfer wizard.
func (s *planningService) PlanStockTransfer(ctx context.Context, req StockTransferPlanRequest) (*PlanResult, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	report, err := s.planner.PlanStockTransfer(ctx, core.StockTransferRequest{
		CompanyID:  req.CompanyID,
		LocationID: req.LocationID,
		ItemIDs:    req.ItemIDs,
	})
	if err != nil {
		return nil, s.planError(err)
	}
	return s.finish(ctx, report, req.CompanyID, req.LocationID, ""), nil
}

// PlanPurchasing validates planned buy orders and runs the purchasing planner.
func (s *planningService) PlanPurchasing(ctx context.Context, req PurchasingPlanRequest) (*PlanResult, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	items := make([]core.PlanningItem, 0, len(req.Items))
	for i, it := range req.Items {
		orders := make([]core.PlannedOrder, 0, len(it.Orders))
		for j, o := range it.Orders {
			po := core.PlannedOrder{
				ItemID:            it.ID,
				Description:       o.Description,
				Quantity:          o.Quantity,
				PeriodID:          o.PeriodID,
				UnitPrice:         o.UnitPrice,
				UnitOfMeasureCode: o.UnitOfMeasureCode,
			}
			var err error
			if po.DueDate, err = optionalDate(o.DueDate, fmt.Sprintf("items[%d].orders[%d].dueDate", i, j)); err != nil {
				return nil, err
			}
			if po.StartDate, err = optionalDate(o.StartDate, fmt.Sprintf("items[%d].orders[%d].startDate", i, j)); err != nil {
				return nil, err
			}
			orders = append(orders, po)
		}
		items = append(items, core.PlanningItem{ID: it.ID, Orders: orders})
	}

	report, err := s.planner.PlanPurchasing(ctx, core.PurchasingRequest{
		CompanyID:  req.CompanyID,
		LocationID: req.LocationID,
		Items:      items,
	})
	if err != nil {
		return nil, s.planError(err)
	}
	return s.finish(ctx, report, req.CompanyID, req.LocationID, ""), nil
}

// Schema returns the JSON Schema for a request body.
func (s *planningService) Schema(name string) (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper:                    decimalSchema,
	}
	switch name {
	case SchemaMaterialsPlan:
		return reflector.Reflect(&MaterialsPlanRequest{}), nil
	case SchemaPurchasingPlan:
		return reflector.Reflect(&PurchasingPlanRequest{}), nil
	case SchemaStockTransferPlan:
		return reflector.Reflect(&StockTransferPlanRequest{}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
}

// decimalSchema describes decimal.Decimal, which decodes from a number or a numeric string.
func decimalSchema(t reflect.Type) *jsonschema.Schema {
	if t != reflect.TypeOf(decimal.Decimal{}) {
		return nil
	}
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "number"},
			{Type: "string", Pattern: `^-?[0-9]+(\.[0-9]+)?$`},
		},
	}
}

func (s *planningService) planError(err error) error {
	if errors.Is(err, core.ErrEmptyBatch) {
		return &ValidationError{Fields: map[string]string{"items": "must have at least 1 entries"}}
	}
	return err
}

// finish logs the run, publishes its event and summarizes it for the caller.
func (s *planningService) finish(ctx context.Context, report *core.RunReport, companyID, locationID, jobID string) *PlanResult {
	runID := uuid.NewString()
	outcome := report.Summary()

	log := s.log.With(
		zap.String("run_id", runID),
		zap.String("kind", report.Kind),
		zap.String("company_id", companyID),
		zap.String("location_id", locationID),
	)
	for _, step := range report.Steps {
		if step.Status == core.StepOK {
			continue
		}
		fields := []zap.Field{
			zap.String("step", step.Step),
			zap.String("item_id", step.ItemID),
			zap.String("status", string(step.Status)),
		}
		if step.Err != nil {
			log.Error("planning step failed", append(fields, zap.Error(step.Err))...)
		} else {
			log.Warn("planning step skipped", append(fields, zap.String("reason", step.Reason))...)
		}
	}
	log.Info("planning run completed",
		zap.Bool("success", outcome.Success),
		zap.Int("items_total", report.TotalItems),
		zap.Int("items_processed", report.ProcessedItems),
		zap.String("stock_transfer_id", report.StockTransferID),
		zap.Strings("purchase_order_ids", report.PurchaseOrderIDs),
		zap.Int("jobs_submitted", report.JobsSubmitted),
	)

	if s.events != nil {
		ev := RunEvent{
			RunID:            runID,
			Kind:             report.Kind,
			CompanyID:        companyID,
			LocationID:       locationID,
			JobID:            jobID,
			Success:          outcome.Success,
			Message:          outcome.Message,
			StockTransferID:  report.StockTransferID,
			PurchaseOrderIDs: report.PurchaseOrderIDs,
			JobsSubmitted:    report.JobsSubmitted,
			Errors:           report.Errors(),
			CompletedAt:      s.now().UTC(),
		}
		if err := s.events.Publish(ctx, ev); err != nil {
			log.Warn("publish planning run event", zap.Error(err))
		}
	}

	return &PlanResult{
		RunID:           runID,
		Success:         outcome.Success,
		Message:         outcome.Message,
		StockTransferID: report.StockTransferID,
	}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func optionalDate(s, field string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{field: "must be a date (YYYY-MM-DD)"}}
	}
	return &t, nil
}
