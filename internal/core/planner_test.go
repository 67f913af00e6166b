package core_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"erp-planning/internal/core"
)

// memStore is an in-memory core.Store.
type memStore struct {
	mu sync.Mutex

	shelves       []core.ShelfRequirement
	replenishment map[string]core.ItemReplenishment
	tracking      map[string]core.Tracking
	parts         map[string][]core.SupplierPart
	periods       []core.Period

	transfers     map[string]core.StockTransfer
	purchaseOrder map[string]core.PurchaseOrder
	poLines       map[string][]core.PurchaseOrderLine
	forecasts     map[string]core.SupplyForecastEntry
	seq           int

	failTransferLines bool
	failForecasts     bool
	deletedTransfers  []string
}

func newMemStore() *memStore {
	return &memStore{
		replenishment: map[string]core.ItemReplenishment{},
		tracking:      map[string]core.Tracking{},
		parts:         map[string][]core.SupplierPart{},
		periods: []core.Period{
			{ID: "P1", StartDate: date("2026-01-01"), EndDate: date("2026-01-31")},
			{ID: "P2", StartDate: date("2026-02-01"), EndDate: date("2026-02-28")},
		},
		transfers:     map[string]core.StockTransfer{},
		purchaseOrder: map[string]core.PurchaseOrder{},
		poLines:       map[string][]core.PurchaseOrderLine{},
		forecasts:     map[string]core.SupplyForecastEntry{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) ShelfSnapshot(_ context.Context, _, _ string, itemIDs []string) ([]core.ShelfRequirement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range itemIDs {
		want[id] = true
	}
	var out []core.ShelfRequirement
	for _, s := range m.shelves {
		if len(want) == 0 || want[s.ItemID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ItemReplenishment(_ context.Context, _ string, itemIDs []string) (map[string]core.ItemReplenishment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]core.ItemReplenishment{}
	for _, id := range itemIDs {
		if r, ok := m.replenishment[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func (m *memStore) ItemTracking(_ context.Context, _ string, itemIDs []string) (map[string]core.Tracking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]core.Tracking{}
	for _, id := range itemIDs {
		out[id] = m.tracking[id]
	}
	return out, nil
}

func (m *memStore) SupplierParts(_ context.Context, _ string, itemIDs []string) (map[string][]core.SupplierPart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string][]core.SupplierPart{}
	for _, id := range itemIDs {
		if p, ok := m.parts[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memStore) Periods(context.Context, time.Time, time.Time) ([]core.Period, error) {
	return m.periods, nil
}

func (m *memStore) CreateStockTransfer(_ context.Context, t core.StockTransfer) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID("st")
	t.Lines = nil
	m.transfers[t.ID] = t
	return t.ID, nil
}

func (m *memStore) InsertTransferLines(_ context.Context, _, transferID string, lines []core.TransferLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTransferLines {
		return errors.New("lines rejected")
	}
	t := m.transfers[transferID]
	t.Lines = append(t.Lines, lines...)
	m.transfers[transferID] = t
	return nil
}

func (m *memStore) DeleteStockTransfer(_ context.Context, _, transferID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transfers, transferID)
	m.deletedTransfers = append(m.deletedTransfers, transferID)
	return nil
}

func (m *memStore) FindOpenPurchaseOrder(_ context.Context, _, supplierID, locationID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, po := range m.purchaseOrder {
		if po.SupplierID == supplierID && po.LocationID == locationID && po.Status == core.PurchaseOrderDraft {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (m *memStore) CreatePurchaseOrder(_ context.Context, po core.PurchaseOrder) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po.ID = m.nextID("po")
	m.purchaseOrder[po.ID] = po
	return po.ID, nil
}

func (m *memStore) InsertPurchaseOrderLine(_ context.Context, _, purchaseOrderID string, line core.PurchaseOrderLine) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poLines[purchaseOrderID] = append(m.poLines[purchaseOrderID], line)
	return m.nextID("pol"), nil
}

func (m *memStore) UpsertSupplyForecasts(_ context.Context, _ string, entries []core.SupplyForecastEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failForecasts {
		return errors.New("forecast table locked")
	}
	for _, e := range entries {
		key := e.ItemID + "|" + e.LocationID + "|" + e.PeriodID
		if existing, ok := m.forecasts[key]; ok {
			e.ForecastQuantity = existing.ForecastQuantity.Add(e.ForecastQuantity)
		}
		m.forecasts[key] = e
	}
	return nil
}

type fakeProduction struct {
	err         error
	submissions []core.PlanningSubmission
}

func (f *fakeProduction) Submit(_ context.Context, _ string, s core.PlanningSubmission) error {
	f.submissions = append(f.submissions, s)
	return f.err
}

type heldLocker struct{}

func (heldLocker) Lock(context.Context, string) (func(context.Context) error, error) {
	return nil, core.ErrLockHeld
}

func fixedClock() time.Time { return date("2026-01-15") }

func TestPlanJobMaterials_TransferEndToEnd(t *testing.T) {
	store := newMemStore()
	store.shelves = []core.ShelfRequirement{
		shelf("X", "A", "150", "20"),
		shelf("X", "B", "0", "100"),
	}
	planner := core.NewPlannerWithClock(store, &fakeProduction{}, nil, fixedClock)

	report, err := planner.PlanJobMaterials(context.Background(), core.JobMaterialsRequest{
		CompanyID: "c1", JobID: "J1", LocationID: "L",
		Items: []core.OrderItem{{ItemID: "X", Action: core.ActionTransfer, Quantity: d("100"), ShelfID: "B"}},
	})
	if err != nil {
		t.Fatalf("PlanJobMaterials: %v", err)
	}
	if !report.HasTransfer || report.StockTransferID == "" {
		t.Fatalf("expected a stock transfer, got %+v", report)
	}

	st := store.transfers[report.StockTransferID]
	if st.JobID != "J1" || st.Status != core.StockTransferDraft {
		t.Errorf("unexpected transfer header %+v", st)
	}
	if len(st.Lines) != 1 {
		t.Fatalf("expected 1 line, got %v", st.Lines)
	}
	l := st.Lines[0]
	if l.FromShelfID != "A" || l.ToShelfID != "B" || !l.Quantity.Equal(d("100")) {
		t.Errorf("unexpected line %+v", l)
	}
	if out := report.Summary(); !out.Success || out.Message != "Successfully created a stock transfer" {
		t.Errorf("unexpected summary %+v", out)
	}
}

func TestPlanJobMaterials_PartialFailureIsolation(t *testing.T) {
	store := newMemStore()
	store.failTransferLines = true
	store.shelves = []core.ShelfRequirement{shelf("X", "A", "150", "20")}
	store.replenishment["BUY"] = core.ItemReplenishment{ItemID: "BUY", ReplenishmentSystem: core.ReplenishBuy, LeadTime: 3}
	store.replenishment["MAKE"] = core.ItemReplenishment{ItemID: "MAKE", ReplenishmentSystem: core.ReplenishMake, LotSize: d("10")}
	store.parts["BUY"] = []core.SupplierPart{{
		ItemID: "BUY", SupplierID: "S1", ConversionFactor: d("2"), UnitPrice: d("4"), MinimumOrderQuantity: d("10"),
	}}
	production := &fakeProduction{}
	planner := core.NewPlannerWithClock(store, production, nil, fixedClock)

	report, err := planner.PlanJobMaterials(context.Background(), core.JobMaterialsRequest{
		CompanyID: "c1", JobID: "J1", LocationID: "L",
		Items: []core.OrderItem{
			{ItemID: "X", Action: core.ActionTransfer, Quantity: d("100"), ShelfID: "B"},
			{ItemID: "BUY", Action: core.ActionOrder, Quantity: d("4")},
			{ItemID: "MAKE", Action: core.ActionOrder, Quantity: d("25")},
		},
	})
	if err != nil {
		t.Fatalf("PlanJobMaterials: %v", err)
	}

	if report.HasTransfer || len(store.transfers) != 0 || len(store.deletedTransfers) != 1 {
		t.Errorf("expected transfer to be rolled back: report=%+v transfers=%v deleted=%v",
			report, store.transfers, store.deletedTransfers)
	}
	if !report.HasPurchaseOrder || !report.HasJobs {
		t.Fatalf("order path did not proceed: %+v", report)
	}
	if report.ProcessedItems != 2 || report.TotalItems != 3 {
		t.Errorf("processed %d of %d, want 2 of 3", report.ProcessedItems, report.TotalItems)
	}

	lines := store.poLines[report.PurchaseOrderIDs[0]]
	if len(lines) != 1 || !lines[0].PurchaseQuantity.Equal(d("10")) {
		t.Errorf("expected one line floored to 10, got %+v", lines)
	}
	if f, ok := store.forecasts["BUY|L|P1"]; !ok || !f.ForecastQuantity.Equal(d("8")) {
		t.Errorf("expected forecast 4*2=8 in P1, got %+v", store.forecasts)
	}

	if len(production.submissions) != 1 {
		t.Fatalf("expected one production submission, got %d", len(production.submissions))
	}
	sub := production.submissions[0]
	if sub.Action != "order" || sub.LocationID != "L" || len(sub.Items) != 1 || len(sub.Items[0].Orders) != 3 {
		t.Errorf("unexpected submission %+v", sub)
	}

	out := report.Summary()
	if !out.Success || !strings.HasPrefix(out.Message, "Processed 2 of 3 items") || !strings.Contains(out.Message, "lines rejected") {
		t.Errorf("unexpected summary %q", out.Message)
	}
}

func TestPlanJobMaterials_ProductionFailureKeepsPurchasing(t *testing.T) {
	store := newMemStore()
	store.replenishment["BUY"] = core.ItemReplenishment{ReplenishmentSystem: core.ReplenishBuyAndMake}
	store.replenishment["MAKE"] = core.ItemReplenishment{ReplenishmentSystem: core.ReplenishMake}
	store.parts["BUY"] = []core.SupplierPart{{ItemID: "BUY", SupplierID: "S1", ConversionFactor: d("1")}}
	planner := core.NewPlannerWithClock(store, &fakeProduction{err: errors.New("planner offline")}, nil, fixedClock)

	report, err := planner.PlanJobMaterials(context.Background(), core.JobMaterialsRequest{
		CompanyID: "c1", LocationID: "L",
		Items: []core.OrderItem{
			{ItemID: "BUY", Action: core.ActionOrder, Quantity: d("4")},
			{ItemID: "MAKE", Action: core.ActionOrder, Quantity: d("1")},
		},
	})
	if err != nil {
		t.Fatalf("PlanJobMaterials: %v", err)
	}
	if report.HasJobs || !report.HasPurchaseOrder {
		t.Errorf("expected purchase order without jobs, got %+v", report)
	}
	if !strings.Contains(report.Summary().Message, "planner offline") {
		t.Errorf("summary should mention production error: %q", report.Summary().Message)
	}
}

func TestPlanJobMaterials_AllFailed(t *testing.T) {
	store := newMemStore()
	planner := core.NewPlannerWithClock(store, &fakeProduction{}, nil, fixedClock)

	report, err := planner.PlanJobMaterials(context.Background(), core.JobMaterialsRequest{
		CompanyID: "c1", LocationID: "L",
		Items: []core.OrderItem{{ItemID: "GHOST", ItemReadableID: "G-001", Action: core.ActionOrder, Quantity: d("1")}},
	})
	if err != nil {
		t.Fatalf("PlanJobMaterials: %v", err)
	}
	out := report.Summary()
	if out.Success || out.Message != "Failed to process items: item G-001: no replenishment record" {
		t.Errorf("unexpected summary %+v", out)
	}
}

func TestPlanJobMaterials_EmptyBatch(t *testing.T) {
	planner := core.NewPlanner(newMemStore(), nil, nil)
	if _, err := planner.PlanJobMaterials(context.Background(), core.JobMaterialsRequest{}); !errors.Is(err, core.ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestPlanPurchasing_ReusesOpenOrderAndAggregatesForecast(t *testing.T) {
	store := newMemStore()
	store.purchaseOrder["po-open"] = core.PurchaseOrder{ID: "po-open", SupplierID: "S1", LocationID: "L", Status: core.PurchaseOrderDraft}
	store.replenishment["A"] = core.ItemReplenishment{PreferredSupplierID: "S1"}
	store.replenishment["B"] = core.ItemReplenishment{}
	store.replenishment["BLOCKED"] = core.ItemReplenishment{PurchasingBlocked: true}
	store.parts["A"] = []core.SupplierPart{
		{ItemID: "A", SupplierID: "S2", ConversionFactor: d("1")},
		{ItemID: "A", SupplierID: "S1", ConversionFactor: d("12"), UnitPrice: d("3"), TaxPercent: d("0.1")},
	}
	store.parts["B"] = []core.SupplierPart{{ItemID: "B", SupplierID: "S2", ConversionFactor: d("1")}}
	store.parts["BLOCKED"] = []core.SupplierPart{{ItemID: "BLOCKED", SupplierID: "S1"}}
	planner := core.NewPlannerWithClock(store, nil, nil, fixedClock)

	feb := date("2026-02-10")
	report, err := planner.PlanPurchasing(context.Background(), core.PurchasingRequest{
		CompanyID: "c1", LocationID: "L",
		Items: []core.PlanningItem{
			{ID: "A", Orders: []core.PlannedOrder{
				{Quantity: d("2"), DueDate: &feb},
				{Quantity: d("3"), DueDate: &feb},
			}},
			{ID: "B", Orders: []core.PlannedOrder{{Quantity: d("7")}}},
			{ID: "BLOCKED", Orders: []core.PlannedOrder{{Quantity: d("1")}}},
		},
	})
	if err != nil {
		t.Fatalf("PlanPurchasing: %v", err)
	}

	if len(report.PurchaseOrderIDs) != 2 || report.PurchaseOrderIDs[0] != "po-open" {
		t.Errorf("expected reuse of po-open plus one new order, got %v", report.PurchaseOrderIDs)
	}
	lines := store.poLines["po-open"]
	if len(lines) != 1 || !lines[0].PurchaseQuantity.Equal(d("5")) || !lines[0].SupplierTaxAmount.Equal(d("1.5")) {
		t.Errorf("unexpected lines on po-open %+v", lines)
	}
	if f := store.forecasts["A|L|P2"]; !f.ForecastQuantity.Equal(d("60")) {
		t.Errorf("expected one aggregated forecast of 60 for A, got %+v", store.forecasts)
	}
	if f := store.forecasts["B|L|P1"]; !f.ForecastQuantity.Equal(d("7")) {
		t.Errorf("expected forecast of 7 for B in today's period, got %+v", store.forecasts)
	}
	if report.ProcessedItems != 2 || !strings.Contains(report.Summary().Message, "purchasing is blocked") {
		t.Errorf("unexpected report %+v / %q", report, report.Summary().Message)
	}
}

func TestPlanPurchasing_ForecastFailureIsReported(t *testing.T) {
	store := newMemStore()
	store.failForecasts = true
	store.parts["A"] = []core.SupplierPart{{ItemID: "A", SupplierID: "S1", ConversionFactor: d("1")}}
	planner := core.NewPlannerWithClock(store, nil, nil, fixedClock)

	report, err := planner.PlanPurchasing(context.Background(), core.PurchasingRequest{
		CompanyID: "c1", LocationID: "L",
		Items:     []core.PlanningItem{{ID: "A", Orders: []core.PlannedOrder{{Quantity: d("1")}}}},
	})
	if err != nil {
		t.Fatalf("PlanPurchasing: %v", err)
	}
	if !report.HasPurchaseOrder || len(report.Errors()) != 1 {
		t.Errorf("expected purchase order plus one forecast error, got %+v", report)
	}
}

func TestPlanStockTransfer(t *testing.T) {
	store := newMemStore()
	store.shelves = []core.ShelfRequirement{
		shelf("X", "A", "40", "0"),
		shelf("X", "B", "2", "10"),
		shelf("S", "A", "5", "0"),
		{ItemID: "S", ShelfID: "C", QuantityOnHand: d("0"), QuantityRequired: d("3"), QuantityIncoming: d("1")},
	}
	store.tracking["S"] = core.Tracking{Serial: true}
	planner := core.NewPlannerWithClock(store, nil, nil, fixedClock)

	report, err := planner.PlanStockTransfer(context.Background(), core.StockTransferRequest{CompanyID: "c1", LocationID: "L"})
	if err != nil {
		t.Fatalf("PlanStockTransfer: %v", err)
	}
	if !report.HasTransfer {
		t.Fatalf("expected a transfer, got %+v", report)
	}
	lines := store.transfers[report.StockTransferID].Lines
	// S: shortfall 2 expanded into two serial lines; X: shortfall 8 in one line.
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %+v", lines)
	}
	if lines[0].ItemID != "S" || !lines[0].RequiresSerialTracking || lines[2].ItemID != "X" || !lines[2].Quantity.Equal(d("8")) {
		t.Errorf("unexpected lines %+v", lines)
	}
}

func TestPlanStockTransfer_NothingToDo(t *testing.T) {
	store := newMemStore()
	store.shelves = []core.ShelfRequirement{shelf("X", "A", "40", "0")}
	planner := core.NewPlanner(store, nil, nil)

	report, err := planner.PlanStockTransfer(context.Background(), core.StockTransferRequest{CompanyID: "c1", LocationID: "L"})
	if err != nil {
		t.Fatalf("PlanStockTransfer: %v", err)
	}
	if report.HasTransfer || report.Summary().Message != "No shelves require replenishment" {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestPlanStockTransfer_LockHeld(t *testing.T) {
	planner := core.NewPlanner(newMemStore(), nil, heldLocker{})

	_, err := planner.PlanStockTransfer(context.Background(), core.StockTransferRequest{CompanyID: "c1", LocationID: "L"})
	if !errors.Is(err, core.ErrLockHeld) {
		t.Errorf("expected ErrLockHeld, got %v", err)
	}
}

func TestPlanJobMaterials_LockHeldOnlyFailsTransfer(t *testing.T) {
	store := newMemStore()
	store.parts["BUY"] = []core.SupplierPart{{ItemID: "BUY", SupplierID: "S1", ConversionFactor: d("1")}}
	store.replenishment["BUY"] = core.ItemReplenishment{ReplenishmentSystem: core.ReplenishBuy}
	planner := core.NewPlannerWithClock(store, nil, heldLocker{}, fixedClock)

	report, err := planner.PlanJobMaterials(context.Background(), core.JobMaterialsRequest{
		CompanyID: "c1", LocationID: "L",
		Items: []core.OrderItem{
			{ItemID: "X", Action: core.ActionTransfer, Quantity: d("1"), ShelfID: "B"},
			{ItemID: "BUY", Action: core.ActionOrder, Quantity: d("1")},
		},
	})
	if err != nil {
		t.Fatalf("PlanJobMaterials: %v", err)
	}
	if report.HasTransfer || !report.HasPurchaseOrder {
		t.Errorf("expected purchase order only, got %+v", report)
	}
	if errs := report.Errors(); len(errs) != 1 || !strings.Contains(errs[0], core.ErrLockHeld.Error()) {
		t.Errorf("unexpected errors %v", errs)
	}
}

func TestPlanJobMaterials_RepeatedBuyItemIsConsolidated(t *testing.T) {
	store := newMemStore()
	store.replenishment["X"] = core.ItemReplenishment{ReplenishmentSystem: core.ReplenishBuy}
	store.parts["X"] = []core.SupplierPart{{
		ItemID: "X", SupplierID: "S1", ConversionFactor: d("1"), UnitPrice: d("2"), MinimumOrderQuantity: d("20"),
	}}
	planner := core.NewPlannerWithClock(store, nil, nil, fixedClock)

	report, err := planner.PlanJobMaterials(context.Background(), core.JobMaterialsRequest{
		CompanyID: "c1", LocationID: "L",
		Items: []core.OrderItem{
			{ID: "m1", ItemID: "X", Action: core.ActionOrder, Quantity: d("5")},
			{ID: "m2", ItemID: "X", Action: core.ActionOrder, Quantity: d("5")},
		},
	})
	if err != nil {
		t.Fatalf("PlanJobMaterials: %v", err)
	}
	if len(report.PurchaseOrderIDs) != 1 {
		t.Fatalf("expected one purchase order, got %v", report.PurchaseOrderIDs)
	}
	lines := store.poLines[report.PurchaseOrderIDs[0]]
	if len(lines) != 1 || !lines[0].PurchaseQuantity.Equal(d("20")) {
		t.Errorf("expected one line of max(5+5, 20) = 20, got %+v", lines)
	}
	if f := store.forecasts["X|L|P1"]; !f.ForecastQuantity.Equal(d("10")) {
		t.Errorf("expected forecast 10, got %+v", store.forecasts)
	}
	if out := report.Summary(); report.ProcessedItems != 2 || out.Message != "Successfully created a purchase order" {
		t.Errorf("processed %d, summary %+v", report.ProcessedItems, out)
	}
}

func TestPlanPurchasing_RepeatedItemIDsAreMerged(t *testing.T) {
	store := newMemStore()
	store.parts["A"] = []core.SupplierPart{{ItemID: "A", SupplierID: "S1", ConversionFactor: d("1"), MinimumOrderQuantity: d("8")}}
	planner := core.NewPlannerWithClock(store, nil, nil, fixedClock)

	report, err := planner.PlanPurchasing(context.Background(), core.PurchasingRequest{
		CompanyID: "c1", LocationID: "L",
		Items: []core.PlanningItem{
			{ID: "A", Orders: []core.PlannedOrder{{Quantity: d("3")}}},
			{ID: "A", Orders: []core.PlannedOrder{{Quantity: d("4")}}},
		},
	})
	if err != nil {
		t.Fatalf("PlanPurchasing: %v", err)
	}
	lines := store.poLines[report.PurchaseOrderIDs[0]]
	if len(lines) != 1 || !lines[0].PurchaseQuantity.Equal(d("8")) {
		t.Errorf("expected one line floored to 8, got %+v", lines)
	}
	if report.ProcessedItems != report.TotalItems {
		t.Errorf("processed %d of %d", report.ProcessedItems, report.TotalItems)
	}
}

func TestPlanJobMaterials_ZeroQuantityBuyIsSkipped(t *testing.T) {
	store := newMemStore()
	store.replenishment["BUY"] = core.ItemReplenishment{ReplenishmentSystem: core.ReplenishBuy}
	store.parts["BUY"] = []core.SupplierPart{{ItemID: "BUY", SupplierID: "S1", ConversionFactor: d("1")}}
	planner := core.NewPlannerWithClock(store, nil, nil, fixedClock)

	report, err := planner.PlanJobMaterials(context.Background(), core.JobMaterialsRequest{
		CompanyID: "c1", LocationID: "L",
		Items:     []core.OrderItem{{ItemID: "BUY", Action: core.ActionOrder}},
	})
	if err != nil {
		t.Fatalf("PlanJobMaterials: %v", err)
	}
	if report.HasPurchaseOrder || len(store.purchaseOrder) != 0 || len(store.poLines) != 0 {
		t.Errorf("expected no purchase order, got report %+v orders %v", report, store.purchaseOrder)
	}
	if out := report.Summary(); out.Success || !strings.Contains(out.Message, "nothing to order") {
		t.Errorf("unexpected summary %+v", out)
	}
}

func TestPlanPurchasing_NonPositiveOrdersOpenNoPurchaseOrder(t *testing.T) {
	store := newMemStore()
	store.parts["A"] = []core.SupplierPart{{ItemID: "A", SupplierID: "S1", ConversionFactor: d("1")}}
	planner := core.NewPlannerWithClock(store, nil, nil, fixedClock)

	report, err := planner.PlanPurchasing(context.Background(), core.PurchasingRequest{
		CompanyID: "c1", LocationID: "L",
		Items:     []core.PlanningItem{{ID: "A", Orders: []core.PlannedOrder{{Quantity: d("0")}}}},
	})
	if err != nil {
		t.Fatalf("PlanPurchasing: %v", err)
	}
	if report.HasPurchaseOrder || len(store.purchaseOrder) != 0 {
		t.Errorf("expected no purchase order header, got %v", store.purchaseOrder)
	}
}

func TestPlanStockTransfer_UnservedShelfIsSkipped(t *testing.T) {
	store := newMemStore()
	store.shelves = []core.ShelfRequirement{
		shelf("X", "A", "40", "0"),
		shelf("X", "B", "2", "10"),
		shelf("Y", "C", "0", "5"),
	}
	planner := core.NewPlannerWithClock(store, nil, nil, fixedClock)

	report, err := planner.PlanStockTransfer(context.Background(), core.StockTransferRequest{CompanyID: "c1", LocationID: "L"})
	if err != nil {
		t.Fatalf("PlanStockTransfer: %v", err)
	}
	if !report.HasTransfer || report.ProcessedItems != 1 || report.TotalItems != 2 {
		t.Fatalf("expected 1 of 2 shelves served, got %+v", report)
	}
	out := report.Summary()
	if !strings.HasPrefix(out.Message, "Processed 1 of 2 items and created a stock transfer") ||
		!strings.Contains(out.Message, "item Y: no stock available for shelf C") {
		t.Errorf("unexpected summary %q", out.Message)
	}
}

func TestPlanJobMaterials_TransferWithoutStockIsSkipped(t *testing.T) {
	store := newMemStore()
	store.shelves = []core.ShelfRequirement{shelf("X", "B", "0", "0")}
	planner := core.NewPlannerWithClock(store, nil, nil, fixedClock)

	report, err := planner.PlanJobMaterials(context.Background(), core.JobMaterialsRequest{
		CompanyID: "c1", LocationID: "L",
		Items:     []core.OrderItem{{ItemID: "X", Action: core.ActionTransfer, Quantity: d("3"), ShelfID: "B"}},
	})
	if err != nil {
		t.Fatalf("PlanJobMaterials: %v", err)
	}
	if out := report.Summary(); report.HasTransfer || out.Success {
		t.Errorf("expected an unsuccessful run without a transfer, got %+v %+v", report, out)
	}
}

type failingReleaseLocker struct{ released int }

func (l *failingReleaseLocker) Lock(context.Context, string) (func(context.Context) error, error) {
	return func(context.Context) error {
		l.released++
		return errors.New("connection reset")
	}, nil
}

func TestPlanStockTransfer_ReleaseErrorIsReported(t *testing.T) {
	store := newMemStore()
	store.shelves = []core.ShelfRequirement{shelf("X", "A", "40", "0"), shelf("X", "B", "2", "10")}
	locker := &failingReleaseLocker{}
	planner := core.NewPlannerWithClock(store, nil, locker, fixedClock)

	report, err := planner.PlanStockTransfer(context.Background(), core.StockTransferRequest{CompanyID: "c1", LocationID: "L"})
	if err != nil {
		t.Fatalf("PlanStockTransfer: %v", err)
	}
	if locker.released != 1 || !report.HasTransfer {
		t.Fatalf("released %d times, report %+v", locker.released, report)
	}
	if errs := report.Errors(); len(errs) != 1 || !strings.Contains(errs[0], "release run lock: connection reset") {
		t.Errorf("unexpected errors %v", errs)
	}
}
