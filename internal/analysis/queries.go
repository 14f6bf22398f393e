// Package analysis answers the business questions of the pipeline with read-only queries
// over the marts tables.
package analysis

import "fmt"

// Query is one titled insight query
type Query struct {
	Title string
	SQL   string
}

const overallKPIsSQL = `SELECT
  COUNT(*) AS orders_total,
  CAST(COALESCE(SUM(CASE WHEN order_status = 'completed' THEN 1 ELSE 0 END), 0) AS BIGINT) AS orders_completed,
  CAST(COALESCE(SUM(CASE WHEN order_status = 'cancelled' THEN 1 ELSE 0 END), 0) AS BIGINT) AS orders_cancelled,
  CAST(COALESCE(SUM(CASE WHEN order_status = 'refunded' THEN 1 ELSE 0 END), 0) AS BIGINT) AS orders_refunded,
  CAST(ROUND(COALESCE(SUM(CASE WHEN order_status = 'completed' THEN order_amount ELSE 0 END), 0), 2) AS DOUBLE) AS revenue_completed
FROM fct_orders`

const dailyTrendSQL = `SELECT
  order_date,
  orders_total,
  orders_completed,
  CAST(ROUND(revenue_completed, 2) AS DOUBLE) AS revenue_completed
FROM fct_daily_revenue
ORDER BY order_date ASC NULLS LAST`

const averageOrderValueSQL = `SELECT
  COUNT(*) AS completed_orders,
  CAST(COALESCE(ROUND(AVG(order_amount), 2), 0) AS DOUBLE) AS avg_order_value
FROM fct_orders
WHERE order_status = 'completed'`

const qualityFlagsSQL = `SELECT
  CAST(COALESCE(SUM(dq_completed_missing_payment_flag), 0) AS BIGINT) AS completed_missing_payment,
  CAST(COALESCE(SUM(dq_cancelled_has_shipment_flag), 0) AS BIGINT) AS cancelled_has_shipment,
  CAST(COALESCE(SUM(CASE WHEN customer_id IS NULL THEN 1 ELSE 0 END), 0) AS BIGINT) AS null_customer_id
FROM fct_orders`

const topCustomersSQL = `SELECT
  COALESCE(customer_id, 'UNKNOWN') AS customer_id,
  COUNT(*) AS completed_orders,
  CAST(ROUND(SUM(order_amount), 2) AS DOUBLE) AS revenue_completed
FROM fct_orders
WHERE order_status = 'completed'
GROUP BY COALESCE(customer_id, 'UNKNOWN')
ORDER BY 3 DESC, 1 ASC
LIMIT %d`

// LeadTimeFilter keeps rows with both timestamps and a non-negative payment-to-shipment duration
const LeadTimeFilter = `payment_event_ts IS NOT NULL
  AND shipped_event_ts IS NOT NULL
  AND shipped_event_ts >= payment_event_ts`

const leadTimeSQL = `SELECT
  COUNT(*) AS orders_measured,
  CAST(COALESCE(ROUND(AVG(date_diff('second', payment_event_ts, shipped_event_ts) / 60.0), 2), 0) AS DOUBLE) AS avg_lead_minutes,
  CAST(COALESCE(ROUND(MIN(date_diff('second', payment_event_ts, shipped_event_ts) / 60.0), 2), 0) AS DOUBLE) AS min_lead_minutes,
  CAST(COALESCE(ROUND(MAX(date_diff('second', payment_event_ts, shipped_event_ts) / 60.0), 2), 0) AS DOUBLE) AS max_lead_minutes
FROM fct_orders
WHERE ` + LeadTimeFilter

const eventCoverageSQL = `SELECT
  COUNT(*) AS orders_total,
  CAST(COALESCE(ROUND(100.0 * COUNT(created_event_ts) / NULLIF(COUNT(*), 0), 2), 0) AS DOUBLE) AS created_pct,
  CAST(COALESCE(ROUND(100.0 * COUNT(payment_event_ts) / NULLIF(COUNT(*), 0), 2), 0) AS DOUBLE) AS payment_pct,
  CAST(COALESCE(ROUND(100.0 * COUNT(shipped_event_ts) / NULLIF(COUNT(*), 0), 2), 0) AS DOUBLE) AS shipped_pct,
  CAST(COALESCE(ROUND(100.0 * COUNT(cancelled_event_ts) / NULLIF(COUNT(*), 0), 2), 0) AS DOUBLE) AS cancelled_pct
FROM fct_orders`

const ordersWithoutEventsSQL = `SELECT
  COUNT(*) AS orders_without_events
FROM fct_orders f
LEFT JOIN int_order_event_summary s ON f.order_id = s.order_id
WHERE s.order_id IS NULL`

const statusDistributionSQL = `SELECT
  COALESCE(order_status, 'UNKNOWN') AS order_status,
  COUNT(*) AS orders,
  CAST(ROUND(100.0 * COUNT(*) / SUM(COUNT(*)) OVER (), 2) AS DOUBLE) AS pct_of_orders
FROM fct_orders
GROUP BY COALESCE(order_status, 'UNKNOWN')
ORDER BY 2 DESC, 1 ASC`

// DefaultQueries returns the insight battery in execution order
func DefaultQueries(topN int) []Query {
	if topN <= 0 {
		topN = 10
	}
	return []Query{
		{Title: "1) Overall KPIs", SQL: overallKPIsSQL},
		{Title: "2) Daily revenue trend", SQL: dailyTrendSQL},
		{Title: "3) Average order value (completed)", SQL: averageOrderValueSQL},
		{Title: "4) Data quality flags", SQL: qualityFlagsSQL},
		{Title: fmt.Sprintf("5) Top %d customers by completed revenue", topN), SQL: fmt.Sprintf(topCustomersSQL, topN)},
		{Title: "6) Payment to shipment lead time (minutes)", SQL: leadTimeSQL},
		{Title: "7) Event type coverage (% of all orders)", SQL: eventCoverageSQL},
		{Title: "8) Orders with zero events", SQL: ordersWithoutEventsSQL},
		{Title: "9) Order status distribution", SQL: statusDistributionSQL},
	}
}
