package warehouse

import (
	"context"
	"database/sql"

	"github.com/Honar-Abdi/Order-to-Insight/internal/model"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

const (
	selectStagedOrders = `SELECT order_id, customer_id, order_created_at, order_amount, currency, order_status
FROM stg_orders`

	selectStagedEvents = `SELECT event_id, order_id, event_type, event_timestamp, source_system
FROM stg_order_events`

	selectFactOrders = `SELECT order_id, customer_id, order_created_at, order_amount, currency, order_status,
       created_event_ts, payment_event_ts, shipped_event_ts, cancelled_event_ts,
       has_payment_event, has_shipped_event,
       dq_completed_missing_payment_flag, dq_cancelled_has_shipment_flag
FROM fct_orders
ORDER BY order_id`
)

// ReadStagedOrders reads every row of stg_orders. Cast failures of the staging view
// surface here as ErrCodeStagingCast.
func (s *Service) ReadStagedOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.scan(ctx, selectStagedOrders, func(rows *sql.Rows) error {
		var (
			o       model.Order
			id, cur sql.NullString
		)
		if err := rows.Scan(&id, &o.CustomerID, &o.CreatedAt, &o.Amount, &cur, &o.Status); err != nil {
			return err
		}
		o.OrderID = id.String
		o.Currency = cur.String
		orders = append(orders, o)
		return nil
	})
	return orders, err
}

// ReadStagedEvents reads every row of stg_order_events
func (s *Service) ReadStagedEvents(ctx context.Context) ([]model.OrderEvent, error) {
	var events []model.OrderEvent
	err := s.scan(ctx, selectStagedEvents, func(rows *sql.Rows) error {
		var (
			e               model.OrderEvent
			id, typ, source sql.NullString
		)
		if err := rows.Scan(&id, &e.OrderID, &typ, &e.Timestamp, &source); err != nil {
			return err
		}
		e.EventID = id.String
		e.EventType = typ.String
		e.SourceSystem = source.String
		events = append(events, e)
		return nil
	})
	return events, err
}

// ReadFactOrders reads fct_orders ordered by order id
func (s *Service) ReadFactOrders(ctx context.Context) ([]model.FactOrder, error) {
	var facts []model.FactOrder
	err := s.scan(ctx, selectFactOrders, func(rows *sql.Rows) error {
		var (
			f                         model.FactOrder
			id, cur                   sql.NullString
			hasPay, hasShip, dqP, dqS int64
		)
		if err := rows.Scan(&id, &f.CustomerID, &f.CreatedAt, &f.Amount, &cur, &f.Status,
			&f.CreatedEventTS, &f.PaymentEventTS, &f.ShippedEventTS, &f.CancelledEventTS,
			&hasPay, &hasShip, &dqP, &dqS); err != nil {
			return err
		}
		f.OrderID = id.String
		f.Currency = cur.String
		f.HasPaymentEvent = hasPay == 1
		f.HasShippedEvent = hasShip == 1
		f.CompletedMissingPayment = dqP == 1
		f.CancelledHasShipment = dqS == 1
		facts = append(facts, f)
		return nil
	})
	return facts, err
}

// WriteEventSummary replaces int_order_event_summary
func (s *Service) WriteEventSummary(ctx context.Context, summaries []model.OrderEventSummary) error {
	rows := make([][]interface{}, len(summaries))
	for i, r := range summaries {
		rows[i] = []interface{}{
			r.OrderID,
			nullTime(r.CreatedEventTS),
			nullTime(r.PaymentEventTS),
			nullTime(r.ShippedEventTS),
			nullTime(r.CancelledEventTS),
			r.EventCount,
			r.PaymentEventCount,
			r.ShippedEventCount,
		}
	}
	return s.ReplaceTable(ctx, EventSummaryTable, rows)
}

// WriteFactOrders replaces fct_orders
func (s *Service) WriteFactOrders(ctx context.Context, facts []model.FactOrder) error {
	rows := make([][]interface{}, len(facts))
	for i, f := range facts {
		rows[i] = []interface{}{
			f.OrderID,
			nullString(f.CustomerID),
			nullTime(f.CreatedAt),
			nullFloat(f.Amount),
			f.Currency,
			nullString(f.Status),
			nullTime(f.CreatedEventTS),
			nullTime(f.PaymentEventTS),
			nullTime(f.ShippedEventTS),
			nullTime(f.CancelledEventTS),
			flag(f.HasPaymentEvent),
			flag(f.HasShippedEvent),
			flag(f.CompletedMissingPayment),
			flag(f.CancelledHasShipment),
		}
	}
	return s.ReplaceTable(ctx, FactOrdersTable, rows)
}

// WriteDailyRevenue replaces fct_daily_revenue
func (s *Service) WriteDailyRevenue(ctx context.Context, days []model.DailyRevenue) error {
	rows := make([][]interface{}, len(days))
	for i, d := range days {
		var date interface{}
		if d.Date.Valid {
			date = d.Date.Time.Format("2006-01-02")
		}
		rows[i] = []interface{}{date, d.OrdersTotal, d.OrdersCompleted, d.RevenueCompleted}
	}
	return s.ReplaceTable(ctx, DailyRevenueTable, rows)
}

func (s *Service) scan(ctx context.Context, query string, each func(rows *sql.Rows) error) error {
	if err := s.ensureConnected(); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return errors.SQLError("Failed to run query", query, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := each(rows); err != nil {
			return errors.SQLError("Failed to read row", query, err)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.SQLError("Failed to read rows", query, err)
	}
	return nil
}

func nullTime(t sql.NullTime) interface{} {
	if !t.Valid {
		return nil
	}
	return t.Time
}

func nullString(v sql.NullString) interface{} {
	if !v.Valid {
		return nil
	}
	return v.String
}

func nullFloat(v sql.NullFloat64) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func flag(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
