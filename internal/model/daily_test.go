package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Honar-Abdi/Order-to-Insight/internal/model"
	tu "github.com/Honar-Abdi/Order-to-Insight/internal/testutil"
)

func TestAggregateDailyRevenue(t *testing.T) {
	orders := []model.Order{
		tu.Order("O1", model.StatusCompleted, 10.10, "2024-01-02 23:59:59"),
		tu.Order("O2", model.StatusCompleted, 20.20, "2024-01-02 00:00:00"),
		tu.Order("O3", model.StatusCancelled, 99.00, "2024-01-02 12:00:00"),
		tu.Order("O4", model.StatusCompleted, 5.00, "2024-01-01 08:00:00"),
		tu.Order("O5", model.StatusRefunded, 7.00, "2024-01-03 08:00:00"),
	}
	facts := model.AssembleFactOrders(orders, nil)

	daily := model.AggregateDailyRevenue(facts)
	require.Len(t, daily, 3)

	assert.Equal(t, tu.TS("2024-01-01 00:00:00"), daily[0].Date)
	assert.Equal(t, int64(1), daily[0].OrdersTotal)
	assert.Equal(t, 5.0, daily[0].RevenueCompleted)

	assert.Equal(t, tu.TS("2024-01-02 00:00:00"), daily[1].Date)
	assert.Equal(t, int64(3), daily[1].OrdersTotal)
	assert.Equal(t, int64(2), daily[1].OrdersCompleted)
	assert.Equal(t, 30.30, daily[1].RevenueCompleted, "decimal sum avoids float drift")

	assert.Equal(t, int64(1), daily[2].OrdersTotal)
	assert.Equal(t, int64(0), daily[2].OrdersCompleted)
	assert.Equal(t, 0.0, daily[2].RevenueCompleted)
}

func TestAggregateDailyRevenueConservation(t *testing.T) {
	orders := []model.Order{
		tu.Order("O1", model.StatusCompleted, 1, "2024-01-01 01:00:00"),
		tu.Order("O2", model.StatusCompleted, 2, "2024-01-05 01:00:00"),
		tu.Order("O3", model.StatusCancelled, 3, "2024-01-05 02:00:00"),
		tu.Order("O4", model.StatusCompleted, 4, ""),
		tu.Order("O5", "", 5, "2024-01-01 03:00:00"),
	}
	orders[1].Amount.Valid = false

	facts := model.AssembleFactOrders(orders, nil)
	daily := model.AggregateDailyRevenue(facts)

	var total, completed int64
	for _, d := range daily {
		total += d.OrdersTotal
		completed += d.OrdersCompleted
	}
	assert.Equal(t, int64(len(facts)), total)
	assert.Equal(t, int64(3), completed)

	last := daily[len(daily)-1]
	assert.False(t, last.Date.Valid, "undated orders sort last")
	assert.Equal(t, 4.0, last.RevenueCompleted)

	for i := 1; i < len(daily)-1; i++ {
		assert.True(t, daily[i-1].Date.Time.Before(daily[i].Date.Time), "dates ascend")
	}
}

func TestAggregateDailyRevenueKeepsNegativeAmounts(t *testing.T) {
	orders := []model.Order{
		tu.Order("O1", model.StatusCompleted, 5, "2024-01-01 08:00:00"),
		tu.Order("O2", model.StatusCompleted, -10, "2024-01-01 09:00:00"),
		tu.Order("O3", model.StatusCompleted, 4, "2024-01-02 09:00:00"),
	}

	daily := model.AggregateDailyRevenue(model.AssembleFactOrders(orders, nil))
	require.Len(t, daily, 2)

	// Amounts that fail the non-negative amount rule are summed as-is, so a day can go negative.
	assert.Equal(t, -5.0, daily[0].RevenueCompleted)
	assert.Equal(t, int64(2), daily[0].OrdersCompleted)
	assert.Equal(t, 4.0, daily[1].RevenueCompleted)
}

func TestDerivedTablesAreIdempotent(t *testing.T) {
	orders := []model.Order{
		tu.Order("O2", model.StatusCompleted, 12.5, "2024-02-01 10:00:00"),
		tu.Order("O1", model.StatusCancelled, 3, "2024-02-01 11:00:00"),
		tu.Order("O3", model.StatusCompleted, 8, "2024-02-02 11:00:00"),
	}
	events := []model.OrderEvent{
		tu.Event("E3", "O3", model.EventPaymentConfirmed, "2024-02-02 11:03:00"),
		tu.Event("E1", "O2", model.EventOrderCreated, "2024-02-01 10:00:05"),
		tu.Event("E2", "O1", model.EventOrderShipped, "2024-02-01 15:00:00"),
	}

	build := func() ([]model.OrderEventSummary, []model.FactOrder, []model.DailyRevenue) {
		s := model.SummarizeEvents(events)
		f := model.AssembleFactOrders(orders, s)
		return s, f, model.AggregateDailyRevenue(f)
	}

	s1, f1, d1 := build()
	s2, f2, d2 := build()
	assert.Equal(t, s1, s2)
	assert.Equal(t, f1, f2)
	assert.Equal(t, d1, d2)
}
