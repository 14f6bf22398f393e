// Package model holds the typed order domain and the pure modeling rules that turn
// staged orders and events into the event summary, the order fact and daily revenue.
package model

import (
	"database/sql"
	"time"
)

// Recognized event types. Any other value is preserved and counted, never interpreted.
const (
	EventOrderCreated     = "order_created"
	EventPaymentConfirmed = "payment_confirmed"
	EventOrderShipped     = "order_shipped"
	EventOrderCancelled   = "order_cancelled"
)

// Order statuses the modeling rules look at.
const (
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

// RecognizedEventTypes lists the four lifecycle events in lifecycle order.
var RecognizedEventTypes = []string{
	EventOrderCreated,
	EventPaymentConfirmed,
	EventOrderShipped,
	EventOrderCancelled,
}

// Order is one staged order row. Nullable columns keep their NULL state from staging.
type Order struct {
	OrderID    string
	CustomerID sql.NullString
	CreatedAt  sql.NullTime
	Amount     sql.NullFloat64
	Currency   string
	Status     sql.NullString
}

// OrderEvent is one staged lifecycle event row.
type OrderEvent struct {
	EventID      string
	OrderID      sql.NullString
	EventType    string
	Timestamp    sql.NullTime
	SourceSystem string
}

// OrderEventSummary is the one-row-per-order rollup of the event log.
type OrderEventSummary struct {
	OrderID           string
	CreatedEventTS    sql.NullTime
	PaymentEventTS    sql.NullTime
	ShippedEventTS    sql.NullTime
	CancelledEventTS  sql.NullTime
	EventCount        int64
	PaymentEventCount int64
	ShippedEventCount int64
}

// FactOrder is the order-grain analytical fact: the order, its summary timestamps and
// the derived presence and data-quality flags.
type FactOrder struct {
	Order

	CreatedEventTS   sql.NullTime
	PaymentEventTS   sql.NullTime
	ShippedEventTS   sql.NullTime
	CancelledEventTS sql.NullTime

	HasPaymentEvent bool
	HasShippedEvent bool

	CompletedMissingPayment bool
	CancelledHasShipment    bool
}

// DailyRevenue is one row of the day-grain aggregate. Date is invalid for the group of
// orders without a creation timestamp.
type DailyRevenue struct {
	Date             sql.NullTime
	OrdersTotal      int64
	OrdersCompleted  int64
	RevenueCompleted float64
}

// HasStatus reports whether the order carries exactly status.
func (o Order) HasStatus(status string) bool {
	return o.Status.Valid && o.Status.String == status
}

// IsCompleted reports whether the order status is completed.
func (o Order) IsCompleted() bool {
	return o.HasStatus(StatusCompleted)
}

// LeadTime returns the payment-to-shipment duration. ok is false when either timestamp
// is missing or shipment precedes payment.
func (f FactOrder) LeadTime() (d time.Duration, ok bool) {
	if !f.PaymentEventTS.Valid || !f.ShippedEventTS.Valid {
		return 0, false
	}
	d = f.ShippedEventTS.Time.Sub(f.PaymentEventTS.Time)
	if d < 0 {
		return 0, false
	}
	return d, true
}
