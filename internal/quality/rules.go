// Package quality evaluates data-quality rules over raw order and event rows. Rules only
// observe the rows; nothing is corrected.
package quality

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Severity of a rule. Critical failures stop a prod run.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Source table names used in results and samples
const (
	OrdersTable = "orders"
	EventsTable = "order_events"
)

const maxSampleKeys = 5

var (
	allowedEventTypes   = []string{"order_created", "payment_confirmed", "order_shipped", "order_cancelled"}
	allowedOrderStatus  = []string{"completed", "cancelled", "refunded"}
	timestampLayouts    = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05.999999999", "2006-01-02T15:04:05.999999999", "2006-01-02"}
	requiredEventFields = []string{"event_id", "order_id", "event_type", "event_timestamp"}
	requiredOrderFields = []string{"order_id", "customer_id", "order_created_at", "order_amount", "order_status"}
)

// RawOrder is one orders.csv row as read. An empty field is a missing value.
type RawOrder struct {
	OrderID    string
	CustomerID string
	CreatedAt  string
	Amount     string
	Currency   string
	Status     string
}

// RawEvent is one order_events.csv row as read
type RawEvent struct {
	EventID      string
	OrderID      string
	EventType    string
	Timestamp    string
	SourceSystem string
}

func (o RawOrder) field(name string) string {
	switch name {
	case "order_id":
		return o.OrderID
	case "customer_id":
		return o.CustomerID
	case "order_created_at":
		return o.CreatedAt
	case "order_amount":
		return o.Amount
	case "order_status":
		return o.Status
	}
	return ""
}

func (e RawEvent) field(name string) string {
	switch name {
	case "event_id":
		return e.EventID
	case "order_id":
		return e.OrderID
	case "event_type":
		return e.EventType
	case "event_timestamp":
		return e.Timestamp
	}
	return ""
}

// RuleResult summarizes one rule evaluation
type RuleResult struct {
	RuleID      string
	RuleName    string
	TableName   string
	Severity    string
	FailedRows  int
	TotalRows   int
	FailureRate float64
	SampleKeys  string
}

// Failed reports whether any row violated the rule
func (r RuleResult) Failed() bool {
	return r.FailedRows > 0
}

// FailedSample is one offending row kept for inspection
type FailedSample struct {
	RuleID         string
	TableName      string
	EventID        string
	OrderID        string
	CustomerID     string
	EventType      string
	EventTimestamp string
	OrderCreatedAt string
	OrderAmount    string
	OrderStatus    string
}

func orderSample(ruleID string, o RawOrder) FailedSample {
	return FailedSample{
		RuleID:         ruleID,
		TableName:      OrdersTable,
		OrderID:        o.OrderID,
		CustomerID:     o.CustomerID,
		OrderCreatedAt: o.CreatedAt,
		OrderAmount:    o.Amount,
		OrderStatus:    o.Status,
	}
}

func eventSample(ruleID string, e RawEvent) FailedSample {
	return FailedSample{
		RuleID:         ruleID,
		TableName:      EventsTable,
		EventID:        e.EventID,
		OrderID:        e.OrderID,
		EventType:      e.EventType,
		EventTimestamp: e.Timestamp,
	}
}

// rule is one check. It returns the indexes of failing rows and the total row count it judged.
type rule struct {
	id       string
	name     string
	table    string
	severity string
	eval     func(orders []RawOrder, events []RawEvent) (failed []int, total int)
	keys     func(orders []RawOrder, events []RawEvent, i int) string
}

// rules returns the rule set in evaluation order
func rules() []rule {
	return []rule{
		{
			id: "R001", name: "Duplicate primary key: event_id", table: EventsTable, severity: SeverityCritical,
			eval: func(_ []RawOrder, events []RawEvent) ([]int, int) {
				return duplicates(len(events), func(i int) string { return events[i].EventID }), len(events)
			},
			keys: eventKey(func(e RawEvent) string { return e.EventID }),
		},
		{
			id: "R002", name: "Duplicate primary key: order_id", table: OrdersTable, severity: SeverityCritical,
			eval: func(orders []RawOrder, _ []RawEvent) ([]int, int) {
				return duplicates(len(orders), func(i int) string { return orders[i].OrderID }), len(orders)
			},
			keys: orderKey,
		},
		{
			id: "R003", name: "Missing required fields: " + strings.Join(requiredEventFields, ", "), table: EventsTable, severity: SeverityCritical,
			eval: func(_ []RawOrder, events []RawEvent) ([]int, int) {
				return matching(len(events), func(i int) bool { return anyMissing(events[i].field, requiredEventFields) }), len(events)
			},
			keys: eventKey(func(e RawEvent) string { return e.OrderID }),
		},
		{
			id: "R004", name: "Missing required fields: " + strings.Join(requiredOrderFields, ", "), table: OrdersTable, severity: SeverityCritical,
			eval: func(orders []RawOrder, _ []RawEvent) ([]int, int) {
				return matching(len(orders), func(i int) bool { return anyMissing(orders[i].field, requiredOrderFields) }), len(orders)
			},
			keys: orderKey,
		},
		{
			id: "R005", name: "Invalid values in event_type", table: EventsTable, severity: SeverityWarning,
			eval: func(_ []RawOrder, events []RawEvent) ([]int, int) {
				return matching(len(events), func(i int) bool { return !contains(allowedEventTypes, events[i].EventType) }), len(events)
			},
			keys: eventKey(func(e RawEvent) string { return e.OrderID }),
		},
		{
			id: "R006", name: "Invalid values in order_status", table: OrdersTable, severity: SeverityWarning,
			eval: func(orders []RawOrder, _ []RawEvent) ([]int, int) {
				return matching(len(orders), func(i int) bool { return !contains(allowedOrderStatus, orders[i].Status) }), len(orders)
			},
			keys: orderKey,
		},
		{
			id: "R007", name: "Order amount must be >= 0", table: OrdersTable, severity: SeverityWarning,
			eval: func(orders []RawOrder, _ []RawEvent) ([]int, int) {
				return matching(len(orders), func(i int) bool { return !validAmount(orders[i].Amount) }), len(orders)
			},
			keys: orderKey,
		},
		{
			id: "R008", name: "Orders without any events", table: OrdersTable, severity: SeverityWarning,
			eval: func(orders []RawOrder, events []RawEvent) ([]int, int) {
				withEvents := make(map[string]bool, len(events))
				for _, e := range events {
					if !missing(e.OrderID) {
						withEvents[e.OrderID] = true
					}
				}
				return matching(len(orders), func(i int) bool { return !withEvents[orders[i].OrderID] }), len(orders)
			},
			keys: orderKey,
		},
		{
			id: "R009", name: "Events without matching order", table: EventsTable, severity: SeverityWarning,
			eval: func(orders []RawOrder, events []RawEvent) ([]int, int) {
				known := orderIDs(orders)
				return matching(len(events), func(i int) bool { return missing(events[i].OrderID) || !known[events[i].OrderID] }), len(events)
			},
			keys: eventKey(func(e RawEvent) string { return e.OrderID + "," + e.EventID }),
		},
		{
			id: "R010", name: "Completed orders missing payment_confirmed event", table: OrdersTable, severity: SeverityWarning,
			eval: func(orders []RawOrder, events []RawEvent) ([]int, int) {
				paid := make(map[string]bool)
				for _, e := range events {
					if e.EventType == "payment_confirmed" {
						paid[e.OrderID] = true
					}
				}
				total := 0
				failed := matching(len(orders), func(i int) bool {
					if orders[i].Status != "completed" {
						return false
					}
					total++
					return !paid[orders[i].OrderID]
				})
				return failed, total
			},
			keys: orderKey,
		},
		{
			id: "R011", name: "Unparseable timestamp in order_created_at", table: OrdersTable, severity: SeverityCritical,
			eval: func(orders []RawOrder, _ []RawEvent) ([]int, int) {
				return matching(len(orders), func(i int) bool { return !parseable(orders[i].CreatedAt) }), len(orders)
			},
			keys: orderKey,
		},
		{
			id: "R012", name: "Unparseable timestamp in event_timestamp", table: EventsTable, severity: SeverityCritical,
			eval: func(_ []RawOrder, events []RawEvent) ([]int, int) {
				return matching(len(events), func(i int) bool { return !parseable(events[i].Timestamp) }), len(events)
			},
			keys: eventKey(func(e RawEvent) string { return e.OrderID + "," + e.EventID }),
		},
		{
			id: "R013", name: "Event timestamp earlier than order_created_at", table: EventsTable, severity: SeverityWarning,
			eval: func(orders []RawOrder, events []RawEvent) ([]int, int) {
				created := make(map[string]time.Time, len(orders))
				for _, o := range orders {
					if _, seen := created[o.OrderID]; seen {
						continue
					}
					if ts, ok := ParseTimestamp(o.CreatedAt); ok {
						created[o.OrderID] = ts
					}
				}
				return matching(len(events), func(i int) bool {
					orderTS, ok := created[events[i].OrderID]
					if !ok {
						return false
					}
					eventTS, ok := ParseTimestamp(events[i].Timestamp)
					return ok && eventTS.Before(orderTS)
				}), len(events)
			},
			keys: eventKey(func(e RawEvent) string { return e.OrderID + "," + e.EventID }),
		},
	}
}

func orderKey(orders []RawOrder, _ []RawEvent, i int) string {
	return orders[i].OrderID
}

func eventKey(key func(RawEvent) string) func([]RawOrder, []RawEvent, int) string {
	return func(_ []RawOrder, events []RawEvent, i int) string {
		return key(events[i])
	}
}

// ParseTimestamp accepts ISO-8601 timestamps with or without an offset, and plain dates.
// Values without an offset are read as UTC.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseable(value string) bool {
	_, ok := ParseTimestamp(value)
	return ok
}

func validAmount(value string) bool {
	if missing(value) {
		return false
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return !amount.IsNegative()
}

func missing(value string) bool {
	return strings.TrimSpace(value) == ""
}

func anyMissing(field func(string) string, names []string) bool {
	for _, name := range names {
		if missing(field(name)) {
			return true
		}
	}
	return false
}

func contains(allowed []string, value string) bool {
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}

func orderIDs(orders []RawOrder) map[string]bool {
	ids := make(map[string]bool, len(orders))
	for _, o := range orders {
		if !missing(o.OrderID) {
			ids[o.OrderID] = true
		}
	}
	return ids
}

// duplicates returns every row whose key occurs more than once
func duplicates(n int, key func(int) string) []int {
	counts := make(map[string]int, n)
	for i := 0; i < n; i++ {
		counts[key(i)]++
	}
	return matching(n, func(i int) bool { return counts[key(i)] > 1 })
}

func matching(n int, pred func(int) bool) []int {
	var out []int
	for i := 0; i < n; i++ {
		if pred(i) {
			out = append(out, i)
		}
	}
	return out
}

func failureRate(failed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
