package model

import "sort"

// AssembleFactOrders left-joins every order to its event summary and derives the flags.
// Every input order yields exactly one fact row; orders without events get null
// timestamps and false flags. Rows are ordered by order id, input order breaking ties.
func AssembleFactOrders(orders []Order, summaries []OrderEventSummary) []FactOrder {
	byOrder := make(map[string]OrderEventSummary, len(summaries))
	for _, s := range summaries {
		byOrder[s.OrderID] = s
	}

	facts := make([]FactOrder, 0, len(orders))
	for _, o := range orders {
		f := FactOrder{Order: o}
		if s, ok := byOrder[o.OrderID]; ok {
			f.CreatedEventTS = s.CreatedEventTS
			f.PaymentEventTS = s.PaymentEventTS
			f.ShippedEventTS = s.ShippedEventTS
			f.CancelledEventTS = s.CancelledEventTS
		}
		ApplyFlags(&f)
		facts = append(facts, f)
	}

	sort.SliceStable(facts, func(i, j int) bool { return facts[i].OrderID < facts[j].OrderID })
	return facts
}

// ApplyFlags recomputes the presence and data-quality flags of f from its status and
// summary timestamps.
func ApplyFlags(f *FactOrder) {
	f.HasPaymentEvent = f.PaymentEventTS.Valid
	f.HasShippedEvent = f.ShippedEventTS.Valid
	f.CompletedMissingPayment = CompletedMissingPayment(f.Order, f.PaymentEventTS.Valid)
	f.CancelledHasShipment = CancelledHasShipment(f.Order, f.ShippedEventTS.Valid)
}

// CompletedMissingPayment flags a completed order that never had its payment confirmed.
func CompletedMissingPayment(o Order, hasPayment bool) bool {
	return o.IsCompleted() && !hasPayment
}

// CancelledHasShipment flags a cancelled order that was nevertheless shipped.
func CancelledHasShipment(o Order, hasShipment bool) bool {
	return o.HasStatus(StatusCancelled) && hasShipment
}
