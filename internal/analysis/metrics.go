package analysis

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

const completedSQL = `SELECT
  COUNT(*),
  CAST(COALESCE(SUM(order_amount), 0) AS DOUBLE)
FROM fct_orders
WHERE order_status = 'completed'`

const paidSQL = `SELECT
  COUNT(*),
  CAST(COALESCE(SUM(order_amount), 0) AS DOUBLE)
FROM fct_orders
WHERE order_status = 'completed'
  AND has_payment_event = 1`

const flagTotalsSQL = `SELECT
  CAST(COALESCE(SUM(dq_completed_missing_payment_flag), 0) AS BIGINT),
  CAST(COALESCE(SUM(dq_cancelled_has_shipment_flag), 0) AS BIGINT)
FROM fct_orders`

var hundred = decimal.NewFromInt(100)

// RevenueMetrics compares completed revenue with revenue backed by a payment event
type RevenueMetrics struct {
	CompletedOrders             int64
	CompletedRevenue            decimal.Decimal
	PaidOrders                  int64
	PaidRevenue                 decimal.Decimal
	RevenueGap                  decimal.Decimal
	RevenueGapPct               decimal.Decimal
	MissingPaymentOrders        int64
	CancelledWithShipmentOrders int64
}

// FetchRevenueMetrics reads the completed and paid totals and derives the gap.
// The gap percentage is 0 when there is no completed revenue.
func FetchRevenueMetrics(ctx context.Context, wh Warehouse) (RevenueMetrics, error) {
	var m RevenueMetrics
	var completedRevenue, paidRevenue float64

	if err := wh.QueryRow(ctx, completedSQL, &m.CompletedOrders, &completedRevenue); err != nil {
		return m, err
	}
	if err := wh.QueryRow(ctx, paidSQL, &m.PaidOrders, &paidRevenue); err != nil {
		return m, err
	}
	if err := wh.QueryRow(ctx, flagTotalsSQL, &m.MissingPaymentOrders, &m.CancelledWithShipmentOrders); err != nil {
		return m, err
	}

	m.CompletedRevenue = decimal.NewFromFloat(completedRevenue)
	m.PaidRevenue = decimal.NewFromFloat(paidRevenue)
	m.RevenueGap = m.CompletedRevenue.Sub(m.PaidRevenue)
	m.RevenueGapPct = decimal.Zero
	if !m.CompletedRevenue.IsZero() {
		m.RevenueGapPct = m.RevenueGap.Div(m.CompletedRevenue).Mul(hundred)
	}
	return m, nil
}

// Interpret turns the metrics into short business statements
func Interpret(m RevenueMetrics) []string {
	var lines []string

	if m.CompletedRevenue.IsPositive() {
		lines = append(lines, fmt.Sprintf("- Completed revenue overstates paid revenue by %s%% (%s).",
			m.RevenueGapPct.StringFixed(2), m.RevenueGap.StringFixed(2)))
	} else {
		lines = append(lines, "- Completed revenue is zero. No comparison available.")
	}

	if m.MissingPaymentOrders > 0 {
		lines = append(lines, fmt.Sprintf("- %d completed orders are missing payment events.", m.MissingPaymentOrders))
	} else {
		lines = append(lines, "- No completed orders are missing payment events.")
	}

	if m.CancelledWithShipmentOrders > 0 {
		lines = append(lines, fmt.Sprintf("- %d cancelled orders have shipment events.", m.CancelledWithShipmentOrders))
	} else {
		lines = append(lines, "- No cancelled orders have shipment events.")
	}

	return lines
}
