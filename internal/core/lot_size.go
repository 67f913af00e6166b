package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ChunkLotSize splits a required quantity into make-order quantities.
//
//   - lotSize <= 0: one order of max(required, 1)
//   - required <= lotSize: one order of lotSize, even with no demand
//   - otherwise: ceil(required / lotSize) orders of lotSize each
//
// Orders never hold a partial lot, so the total may exceed required.
func ChunkLotSize(required, lotSize decimal.Decimal) []decimal.Decimal {
	if !lotSize.IsPositive() {
		return []decimal.Decimal{decimal.Max(required, decimal.NewFromInt(1))}
	}
	if required.LessThanOrEqual(lotSize) {
		return []decimal.Decimal{lotSize}
	}

	n := required.Div(lotSize).Ceil().IntPart()
	chunks := make([]decimal.Decimal, n)
	for i := range chunks {
		chunks[i] = lotSize
	}
	return chunks
}

// PlanMakeOrders turns a make requirement into lot-sized planned orders. Every chunk
// shares the same due date (jobStartDate, or today when absent) and start date
// (due date minus lead time).
func PlanMakeOrders(item OrderItem, rep ItemReplenishment, jobStartDate *time.Time, today time.Time, periods []Period) ([]PlannedOrder, error) {
	due, start := orderDates(jobStartDate, today, rep.LeadTime)
	periodID, err := ResolvePeriod(due, periods)
	if err != nil {
		return nil, fmt.Errorf("resolve period for item %s: %w", item.label(), err)
	}

	chunks := ChunkLotSize(item.Quantity, rep.LotSize)
	orders := make([]PlannedOrder, 0, len(chunks))
	for _, qty := range chunks {
		d, s := due, start
		orders = append(orders, PlannedOrder{
			ItemID:      item.ItemID,
			Description: item.Description,
			Quantity:    qty,
			DueDate:     &d,
			StartDate:   &s,
			PeriodID:    periodID,
		})
	}
	return orders, nil
}

// orderDates returns the due and start dates of an order placed for a job.
func orderDates(jobStartDate *time.Time, today time.Time, leadTimeDays int) (due, start time.Time) {
	due = dateOnly(today)
	if jobStartDate != nil && !jobStartDate.IsZero() {
		due = dateOnly(*jobStartDate)
	}
	return due, due.AddDate(0, 0, -leadTimeDays)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
