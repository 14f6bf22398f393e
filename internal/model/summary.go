package model

import (
	"database/sql"
	"sort"
)

// SummarizeEvents reduces the event log to one row per referenced order id, taking the
// earliest timestamp per recognized type and counting every event. Events without an
// order id cannot be attributed and are skipped. Rows are ordered by order id.
func SummarizeEvents(events []OrderEvent) []OrderEventSummary {
	byOrder := make(map[string]*OrderEventSummary)

	for _, e := range events {
		if !e.OrderID.Valid {
			continue
		}

		s, ok := byOrder[e.OrderID.String]
		if !ok {
			s = &OrderEventSummary{OrderID: e.OrderID.String}
			byOrder[e.OrderID.String] = s
		}

		s.EventCount++
		switch e.EventType {
		case EventOrderCreated:
			s.CreatedEventTS = earliest(s.CreatedEventTS, e.Timestamp)
		case EventPaymentConfirmed:
			s.PaymentEventCount++
			s.PaymentEventTS = earliest(s.PaymentEventTS, e.Timestamp)
		case EventOrderShipped:
			s.ShippedEventCount++
			s.ShippedEventTS = earliest(s.ShippedEventTS, e.Timestamp)
		case EventOrderCancelled:
			s.CancelledEventTS = earliest(s.CancelledEventTS, e.Timestamp)
		}
	}

	out := make([]OrderEventSummary, 0, len(byOrder))
	for _, s := range byOrder {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// earliest is MIN with NULLs ignored.
func earliest(current, candidate sql.NullTime) sql.NullTime {
	if !candidate.Valid {
		return current
	}
	if !current.Valid || candidate.Time.Before(current.Time) {
		return candidate
	}
	return current
}
