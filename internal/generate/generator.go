// Package generate produces deterministic synthetic orders and order events, optionally
// seeded with typical data-quality defects.
package generate

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"
)

const (
	firstOrderNumber    = 100000
	firstCustomerNumber = 10000
	customerPool        = 800
	orderSpacing        = 7 * time.Minute

	// OrphanOrderID references no generated order
	OrphanOrderID = "O999999"
)

// Options controls a generation run
type Options struct {
	Orders  int
	Seed    int64
	Profile Profile
	// Anchor is the creation time of the first order
	Anchor time.Time
}

// DefaultAnchor returns midnight UTC sixty days before now
func DefaultAnchor(now time.Time) time.Time {
	y, m, d := now.UTC().AddDate(0, 0, -60).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Order is one generated order row. An empty CustomerID is written as a missing value.
type Order struct {
	OrderID    string
	CustomerID string
	CreatedAt  time.Time
	Amount     float64
	Currency   string
	Status     string
}

// Event is one generated lifecycle event row
type Event struct {
	EventID      string
	OrderID      string
	EventType    string
	Timestamp    time.Time
	SourceSystem string
}

// Orders generates opts.Orders orders. Roughly 8% are cancelled and 3% of the rest refunded.
func Orders(opts Options) []Order {
	n := opts.Orders
	orders := make([]Order, n)
	for i := 0; i < n; i++ {
		orders[i] = Order{
			OrderID:    fmt.Sprintf("O%d", firstOrderNumber+i),
			CustomerID: fmt.Sprintf("C%d", firstCustomerNumber+i%customerPool),
			CreatedAt:  opts.Anchor.Add(time.Duration(i) * orderSpacing),
			Amount:     float64(i%200) * 1.5,
			Currency:   "EUR",
			Status:     "completed",
		}
	}

	cancelled := sample(n, 0.08, opts.Seed)
	isCancelled := make(map[int]bool, len(cancelled))
	for _, i := range cancelled {
		orders[i].Status = "cancelled"
		isCancelled[i] = true
	}

	remaining := make([]int, 0, n-len(cancelled))
	for i := 0; i < n; i++ {
		if !isCancelled[i] {
			remaining = append(remaining, i)
		}
	}
	for _, j := range sample(len(remaining), 0.03, opts.Seed+1) {
		orders[remaining[j]].Status = "refunded"
	}

	if opts.Profile.BadAmount {
		for _, i := range sample(n, 0.01, opts.Seed+2) {
			orders[i].Amount = -10.0
		}
	}
	if opts.Profile.MissingCustomer {
		for _, i := range sample(n, 0.005, opts.Seed+3) {
			orders[i].CustomerID = ""
		}
	}

	return orders
}

// Events derives the lifecycle events of orders, visiting orders in a seeded shuffled order.
func Events(orders []Order, opts Options) []Event {
	rng := rand.New(rand.NewSource(opts.Seed))
	visit := rng.Perm(len(orders))

	var events []Event
	counter := 1
	emit := func(orderID, eventType string, ts time.Time, source string) {
		events = append(events, Event{
			EventID:      fmt.Sprintf("E%08d", counter),
			OrderID:      orderID,
			EventType:    eventType,
			Timestamp:    ts,
			SourceSystem: source,
		})
		counter++
	}

	for _, idx := range visit {
		o := orders[idx]
		number := orderNumber(o.OrderID)

		source := "mobile"
		if number%2 == 0 {
			source = "web"
		}
		emit(o.OrderID, "order_created", o.CreatedAt.Add(5*time.Second), source)

		if o.Status == "completed" || o.Status == "refunded" {
			missingPayment := opts.Profile.MissingPayment && number%37 == 0
			if !missingPayment {
				emit(o.OrderID, "payment_confirmed", o.CreatedAt.Add(3*time.Minute), "backend")
			}
		}

		switch o.Status {
		case "completed":
			emit(o.OrderID, "order_shipped", o.CreatedAt.Add(4*time.Hour), "backend")
		case "cancelled":
			emit(o.OrderID, "order_cancelled", o.CreatedAt.Add(10*time.Minute), "backend")
			if opts.Profile.CancelledThenShipped && number%53 == 0 {
				emit(o.OrderID, "order_shipped", o.CreatedAt.Add(6*time.Hour), "backend")
			}
		}
	}

	if opts.Profile.OrphanEvent {
		emit(OrphanOrderID, "order_created", opts.Anchor.AddDate(0, 0, 59), "web")
	}

	if opts.Profile.DuplicateEventID && len(events) > 10 {
		events[5].EventID = events[4].EventID
	}

	return events
}

// sample returns round(frac*n) distinct indexes in [0, n), chosen by a seeded RNG
func sample(n int, frac float64, seed int64) []int {
	k := int(math.Round(frac * float64(n)))
	if k <= 0 {
		return nil
	}
	return rand.New(rand.NewSource(seed)).Perm(n)[:k]
}

func orderNumber(orderID string) int {
	if len(orderID) < 2 {
		return -1
	}
	n, err := strconv.Atoi(orderID[1:])
	if err != nil {
		return -1
	}
	return n
}
