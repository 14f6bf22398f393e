package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Honar-Abdi/Order-to-Insight/internal/model"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

var day = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestReadStagedOrders(t *testing.T) {
	service, mock := newMockService(t, 0)

	rows := sqlmock.NewRows([]string{"order_id", "customer_id", "order_created_at", "order_amount", "currency", "order_status"}).
		AddRow("O1", "C1", day, 12.5, "EUR", "completed").
		AddRow("O2", nil, nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(selectStagedOrders)).WillReturnRows(rows)

	orders, err := service.ReadStagedOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, model.Order{
		OrderID:    "O1",
		CustomerID: sql.NullString{String: "C1", Valid: true},
		CreatedAt:  sql.NullTime{Time: day, Valid: true},
		Amount:     sql.NullFloat64{Float64: 12.5, Valid: true},
		Currency:   "EUR",
		Status:     sql.NullString{String: "completed", Valid: true},
	}, orders[0])
	assert.Equal(t, "O2", orders[1].OrderID)
	assert.False(t, orders[1].CustomerID.Valid)
	assert.False(t, orders[1].Amount.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadStagedEventsCastFailure(t *testing.T) {
	service, mock := newMockService(t, 0)

	mock.ExpectQuery(regexp.QuoteMeta(selectStagedEvents)).
		WillReturnError(fmt.Errorf("Conversion Error: Could not convert string 'yesterday' to TIMESTAMP"))

	_, err := service.ReadStagedEvents(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStagingCast, errors.GetErrorCode(err))
}

func TestReadStagedEvents(t *testing.T) {
	service, mock := newMockService(t, 0)

	rows := sqlmock.NewRows([]string{"event_id", "order_id", "event_type", "event_timestamp", "source_system"}).
		AddRow("E1", "O1", "order_created", day, "web").
		AddRow("E2", nil, "mystery", nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(selectStagedEvents)).WillReturnRows(rows)

	events, err := service.ReadStagedEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "order_created", events[0].EventType)
	assert.True(t, events[0].Timestamp.Valid)
	assert.False(t, events[1].OrderID.Valid)
	assert.Equal(t, "", events[1].SourceSystem)
}

func TestReadFactOrders(t *testing.T) {
	service, mock := newMockService(t, 0)

	cols := append([]string{}, FactOrdersTable.ColumnNames()...)
	rows := sqlmock.NewRows(cols).
		AddRow("O1", "C1", day, 10.0, "EUR", "completed", day, nil, nil, nil, 0, 0, 1, 0)
	mock.ExpectQuery(regexp.QuoteMeta(selectFactOrders)).WillReturnRows(rows)

	facts, err := service.ReadFactOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.True(t, facts[0].CompletedMissingPayment)
	assert.False(t, facts[0].HasPaymentEvent)
	assert.False(t, facts[0].PaymentEventTS.Valid)
}

func TestWriteFactOrders(t *testing.T) {
	service, mock := newMockService(t, 0)

	fact := model.FactOrder{
		Order: model.Order{
			OrderID:  "O1",
			Amount:   sql.NullFloat64{Float64: 3, Valid: true},
			Currency: "EUR",
			Status:   sql.NullString{String: "cancelled", Valid: true},
		},
		ShippedEventTS:       sql.NullTime{Time: day, Valid: true},
		HasShippedEvent:      true,
		CancelledHasShipment: true,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE TABLE fct_orders")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fct_orders")).
		WithArgs("O1", nil, nil, 3.0, "EUR", "cancelled", nil, nil, day, nil, 0, 1, 0, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, service.WriteFactOrders(context.Background(), []model.FactOrder{fact}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteDailyRevenue(t *testing.T) {
	service, mock := newMockService(t, 0)

	days := []model.DailyRevenue{
		{Date: sql.NullTime{Time: model.DateOf(day), Valid: true}, OrdersTotal: 3, OrdersCompleted: 2, RevenueCompleted: 30.3},
		{OrdersTotal: 1},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE TABLE fct_daily_revenue")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fct_daily_revenue")).
		WithArgs("2024-03-01", 3, 2, 30.3, nil, 1, 0, 0.0).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, service.WriteDailyRevenue(context.Background(), days))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteEventSummary(t *testing.T) {
	service, mock := newMockService(t, 0)

	summary := model.OrderEventSummary{
		OrderID:           "O1",
		CreatedEventTS:    sql.NullTime{Time: day, Valid: true},
		EventCount:        2,
		PaymentEventCount: 1,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE OR REPLACE TABLE int_order_event_summary")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO int_order_event_summary")).
		WithArgs("O1", day, nil, nil, nil, 2, 1, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, service.WriteEventSummary(context.Background(), []model.OrderEventSummary{summary}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery(t *testing.T) {
	service, mock := newMockService(t, 0)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT order_date, revenue FROM x")).
		WillReturnRows(sqlmock.NewRows([]string{"order_date", "revenue"}).
			AddRow(model.DateOf(day), 10.5).
			AddRow(nil, int64(3)))

	result, err := service.Query(context.Background(), "SELECT order_date, revenue FROM x")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_date", "revenue"}, result.Columns)
	assert.Equal(t, [][]string{{"2024-03-01", "10.5"}, {"NULL", "3"}}, result.StringRows())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, "NULL"},
		{"abc", "abc"},
		{[]byte("raw"), "raw"},
		{int32(7), "7"},
		{int64(-2), "-2"},
		{12.25, "12.25"},
		{true, "true"},
		{day, "2024-03-01 10:00:00"},
		{model.DateOf(day), "2024-03-01"},
		{sql.NullString{}, "NULL"},
		{uint8(4), "4"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}
