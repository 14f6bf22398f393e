package model

import (
	"database/sql"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AggregateDailyRevenue groups facts by the calendar date of the order creation timestamp.
// Orders without a creation timestamp form a single undated group sorted last.
// Completed revenue is summed in decimal arithmetic; missing amounts contribute nothing.
func AggregateDailyRevenue(facts []FactOrder) []DailyRevenue {
	type bucket struct {
		date      sql.NullTime
		total     int64
		completed int64
		revenue   decimal.Decimal
	}

	buckets := make(map[string]*bucket)
	for _, f := range facts {
		key, date := dayKey(f.CreatedAt)

		b, ok := buckets[key]
		if !ok {
			b = &bucket{date: date, revenue: decimal.Zero}
			buckets[key] = b
		}

		b.total++
		if f.IsCompleted() {
			b.completed++
			if f.Amount.Valid {
				b.revenue = b.revenue.Add(decimal.NewFromFloat(f.Amount.Float64))
			}
		}
	}

	out := make([]DailyRevenue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, DailyRevenue{
			Date:             b.date,
			OrdersTotal:      b.total,
			OrdersCompleted:  b.completed,
			RevenueCompleted: b.revenue.InexactFloat64(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Date, out[j].Date
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Time.Before(b.Time)
	})
	return out
}

// DateOf truncates t to its calendar date, keeping t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayKey(ts sql.NullTime) (string, sql.NullTime) {
	if !ts.Valid {
		return "", sql.NullTime{}
	}
	day := DateOf(ts.Time)
	return day.Format("2006-01-02"), sql.NullTime{Time: day, Valid: true}
}
