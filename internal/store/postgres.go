package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"erp-planning/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a core.Store backed by PostgreSQL.
func NewStore(pool *pgxpool.Pool) core.Store {
	return &postgresStore{pool: pool}
}

// nullableIDs turns an empty filter into NULL so the query matches every row.
func nullableIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func (s *postgresStore) ShelfSnapshot(ctx context.Context, companyID, locationID string, itemIDs []string) ([]core.ShelfRequirement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT si.item_id, si.shelf_id, si.quantity_on_hand, si.quantity_required, si.quantity_incoming
		FROM shelf_inventory si
		JOIN shelves sh ON sh.id = si.shelf_id
		WHERE si.company_id = $1
		  AND sh.location_id = $2
		  AND ($3::text[] IS NULL OR si.item_id = ANY($3::text[]))
		ORDER BY si.item_id, si.shelf_id`,
		companyID, locationID, nullableIDs(itemIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("query shelf inventory: %w", err)
	}
	defer rows.Close()

	var out []core.ShelfRequirement
	for rows.Next() {
		var r core.ShelfRequirement
		if err := rows.Scan(&r.ItemID, &r.ShelfID, &r.QuantityOnHand, &r.QuantityRequired, &r.QuantityIncoming); err != nil {
			return nil, fmt.Errorf("scan shelf inventory: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *postgresStore) ItemReplenishment(ctx context.Context, companyID string, itemIDs []string) (map[string]core.ItemReplenishment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, replenishment_system, lead_time, lot_size,
		       COALESCE(preferred_supplier_id, ''), purchasing_blocked
		FROM items
		WHERE company_id = $1 AND id = ANY($2::text[])`,
		companyID, itemIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query item replenishment: %w", err)
	}
	defer rows.Close()

	out := make(map[string]core.ItemReplenishment)
	for rows.Next() {
		var r core.ItemReplenishment
		var system string
		if err := rows.Scan(&r.ItemID, &system, &r.LeadTime, &r.LotSize, &r.PreferredSupplierID, &r.PurchasingBlocked); err != nil {
			return nil, fmt.Errorf("scan item replenishment: %w", err)
		}
		r.ReplenishmentSystem = core.ReplenishmentSystem(system)
		out[r.ItemID] = r
	}
	return out, rows.Err()
}

func (s *postgresStore) ItemTracking(ctx context.Context, companyID string, itemIDs []string) (map[string]core.Tracking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, requires_serial_tracking, requires_batch_tracking
		FROM items
		WHERE company_id = $1 AND id = ANY($2::text[])`,
		companyID, itemIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query item tracking: %w", err)
	}
	defer rows.Close()

	out := make(map[string]core.Tracking)
	for rows.Next() {
		var id string
		var t core.Tracking
		if err := rows.Scan(&id, &t.Serial, &t.Batch); err != nil {
			return nil, fmt.Errorf("scan item tracking: %w", err)
		}
		out[id] = t
	}
	return out, rows.Err()
}

// SupplierParts returns parts per item in creation order, which is the fallback
// order used when an item has no preferred supplier.
func (s *postgresStore) SupplierParts(ctx context.Context, companyID string, itemIDs []string) (map[string][]core.SupplierPart, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sp.item_id, sp.supplier_id, sp.supplier_unit_of_measure_code, sp.conversion_factor,
		       sp.unit_price, sp.minimum_order_quantity, su.tax_percent
		FROM supplier_parts sp
		JOIN suppliers su ON su.id = sp.supplier_id
		WHERE sp.company_id = $1 AND sp.item_id = ANY($2::text[])
		ORDER BY sp.item_id, sp.created_at, sp.id`,
		companyID, itemIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query supplier parts: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]core.SupplierPart)
	for rows.Next() {
		var p core.SupplierPart
		if err := rows.Scan(&p.ItemID, &p.SupplierID, &p.SupplierUnitOfMeasureCode, &p.ConversionFactor,
			&p.UnitPrice, &p.MinimumOrderQuantity, &p.TaxPercent); err != nil {
			return nil, fmt.Errorf("scan supplier part: %w", err)
		}
		out[p.ItemID] = append(out[p.ItemID], p)
	}
	return out, rows.Err()
}

func (s *postgresStore) Periods(ctx context.Context, from, to time.Time) ([]core.Period, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, start_date, end_date FROM (
			(SELECT id, start_date, end_date FROM periods
			 WHERE start_date <= $2::date AND end_date >= $1::date)
			UNION
			(SELECT id, start_date, end_date FROM periods
			 WHERE end_date < $1::date ORDER BY end_date DESC LIMIT 1)
			UNION
			(SELECT id, start_date, end_date FROM periods
			 WHERE start_date > $2::date ORDER BY start_date LIMIT 1)
		) p
		ORDER BY start_date`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	defer rows.Close()

	var out []core.Period
	for rows.Next() {
		var p core.Period
		if err := rows.Scan(&p.ID, &p.StartDate, &p.EndDate); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *postgresStore) CreateStockTransfer(ctx context.Context, t core.StockTransfer) (string, error) {
	id := uuid.NewString()
	var jobID *string
	if t.JobID != "" {
		jobID = &t.JobID
	}
	status := t.Status
	if status == "" {
		status = core.StockTransferDraft
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO stock_transfers (id, company_id, location_id, job_id, status)
		VALUES ($1, $2, $3, $4, $5)`,
		id, t.CompanyID, t.LocationID, jobID, status,
	); err != nil {
		return "", fmt.Errorf("insert stock transfer: %w", err)
	}
	return id, nil
}

// InsertTransferLines writes all lines in one transaction; either every line is
// stored or none is.
func (s *postgresStore) InsertTransferLines(ctx context.Context, companyID, transferID string, lines []core.TransferLine) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, l := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_transfer_lines
			            (id, stock_transfer_id, company_id, item_id, from_shelf_id, to_shelf_id,
			             quantity, requires_serial_tracking, requires_batch_tracking)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.NewString(), transferID, companyID, l.ItemID, l.FromShelfID, l.ToShelfID,
			l.Quantity, l.RequiresSerialTracking, l.RequiresBatchTracking,
		); err != nil {
			return fmt.Errorf("insert transfer line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transfer lines: %w", err)
	}
	return nil
}

func (s *postgresStore) DeleteStockTransfer(ctx context.Context, companyID, transferID string) error {
	if _, err := s.pool.Exec(ctx,
		"DELETE FROM stock_transfers WHERE company_id = $1 AND id = $2",
		companyID, transferID,
	); err != nil {
		return fmt.Errorf("delete stock transfer %s: %w", transferID, err)
	}
	return nil
}

func (s *postgresStore) FindOpenPurchaseOrder(ctx context.Context, companyID, supplierID, locationID string) (string, bool, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT id FROM purchase_orders
		WHERE company_id = $1 AND supplier_id = $2 AND location_id = $3
		  AND status IN ('Draft', 'Planned')
		ORDER BY created_at DESC, id
		LIMIT 1`,
		companyID, supplierID, locationID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query open purchase order: %w", err)
	}
	return id, true, nil
}

func (s *postgresStore) CreatePurchaseOrder(ctx context.Context, po core.PurchaseOrder) (string, error) {
	id := uuid.NewString()
	status := po.Status
	if status == "" {
		status = core.PurchaseOrderDraft
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO purchase_orders (id, company_id, supplier_id, location_id, status)
		VALUES ($1, $2, $3, $4, $5)`,
		id, po.CompanyID, po.SupplierID, po.LocationID, status,
	); err != nil {
		return "", fmt.Errorf("insert purchase order: %w", err)
	}
	return id, nil
}

func (s *postgresStore) InsertPurchaseOrderLine(ctx context.Context, companyID, purchaseOrderID string, line core.PurchaseOrderLine) (string, error) {
	id := uuid.NewString()
	conversion := line.ConversionFactor
	if !conversion.IsPositive() {
		conversion = decimal.NewFromInt(1)
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO purchase_order_lines
		            (id, purchase_order_id, company_id, item_id, description, location_id,
		             purchase_quantity, purchase_unit_of_measure_code, conversion_factor,
		             promised_date, supplier_unit_price, supplier_tax_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::date, $11, $12)`,
		id, purchaseOrderID, companyID, line.ItemID, line.Description, line.LocationID,
		line.PurchaseQuantity, line.PurchaseUnitOfMeasureCode, conversion,
		line.PromisedDate, line.SupplierUnitPrice, line.SupplierTaxAmount,
	); err != nil {
		return "", fmt.Errorf("insert purchase order line: %w", err)
	}
	return id, nil
}

// UpsertSupplyForecasts adds each quantity onto the stored forecast in one statement.
// A key repeated inside entries makes PostgreSQL reject the whole statement.
func (s *postgresStore) UpsertSupplyForecasts(ctx context.Context, companyID string, entries []core.SupplyForecastEntry) error {
	if len(entries) == 0 {
		return nil
	}

	items := make([]string, len(entries))
	locations := make([]string, len(entries))
	periods := make([]string, len(entries))
	sources := make([]string, len(entries))
	quantities := make([]string, len(entries))
	for i, e := range entries {
		items[i] = e.ItemID
		locations[i] = e.LocationID
		periods[i] = e.PeriodID
		sources[i] = e.SourceType
		quantities[i] = e.ForecastQuantity.String()
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO supply_forecasts (company_id, item_id, location_id, period_id, source_type, forecast_quantity)
		SELECT $1, u.item_id, u.location_id, u.period_id, u.source_type, u.quantity::numeric
		FROM unnest($2::text[], $3::text[], $4::text[], $5::text[], $6::text[])
		     AS u(item_id, location_id, period_id, source_type, quantity)
		ON CONFLICT (company_id, item_id, location_id, period_id, source_type)
		DO UPDATE SET forecast_quantity = supply_forecasts.forecast_quantity + EXCLUDED.forecast_quantity,
		              updated_at = now()`,
		companyID, items, locations, periods, sources, quantities,
	); err != nil {
		return fmt.Errorf("upsert supply forecasts: %w", err)
	}
	return nil
}
