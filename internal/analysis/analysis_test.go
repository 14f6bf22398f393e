package analysis

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Honar-Abdi/Order-to-Insight/internal/model"
	"github.com/Honar-Abdi/Order-to-Insight/internal/warehouse"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

type fakeWarehouse struct {
	missing error
	results map[string]*warehouse.ResultSet
	failing map[string]error
	scalars map[string][]interface{}
	facts   []model.FactOrder
	queried []string
}

func (f *fakeWarehouse) RequireTables(ctx context.Context, hint string, names ...string) error {
	return f.missing
}

func (f *fakeWarehouse) Query(ctx context.Context, query string, args ...interface{}) (*warehouse.ResultSet, error) {
	f.queried = append(f.queried, query)
	if err, ok := f.failing[query]; ok {
		return nil, err
	}
	if rs, ok := f.results[query]; ok {
		return rs, nil
	}
	return &warehouse.ResultSet{Columns: []string{"n"}}, nil
}

func (f *fakeWarehouse) QueryRow(ctx context.Context, query string, dest ...interface{}) error {
	values, ok := f.scalars[query]
	if !ok {
		return fmt.Errorf("unexpected query: %s", query)
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *float64:
			*d = v.(float64)
		}
	}
	return nil
}

func (f *fakeWarehouse) ReadFactOrders(ctx context.Context) ([]model.FactOrder, error) {
	return f.facts, nil
}

func newFake() *fakeWarehouse {
	return &fakeWarehouse{
		results: map[string]*warehouse.ResultSet{},
		failing: map[string]error{},
		scalars: map[string][]interface{}{
			completedSQL:  {int64(4), 400.0},
			paidSQL:       {int64(3), 300.0},
			flagTotalsSQL: {int64(1), int64(2)},
		},
	}
}

func TestDefaultQueries(t *testing.T) {
	queries := DefaultQueries(5)
	require.Len(t, queries, 9)
	assert.Equal(t, "1) Overall KPIs", queries[0].Title)
	assert.Contains(t, queries[4].Title, "Top 5")
	assert.Contains(t, queries[4].SQL, "LIMIT 5")
	assert.Contains(t, queries[4].SQL, "COALESCE(customer_id, 'UNKNOWN')")
	assert.Contains(t, queries[5].SQL, "shipped_event_ts >= payment_event_ts")
	assert.Contains(t, queries[6].SQL, "NULLIF(COUNT(*), 0)")
	assert.Contains(t, queries[7].SQL, "int_order_event_summary")

	assert.Contains(t, DefaultQueries(0)[4].SQL, "LIMIT 10")
}

func TestCoverageUsesAllOrders(t *testing.T) {
	assert.NotContains(t, eventCoverageSQL, "WHERE", "coverage is measured over every order")
}

func TestRunRecordsFailures(t *testing.T) {
	wh := newFake()
	queries := DefaultQueries(10)
	wh.results[queries[0].SQL] = &warehouse.ResultSet{
		Columns: []string{"orders_total", "revenue_completed"},
		Rows:    [][]interface{}{{int64(4), 400.5}},
	}
	wh.failing[queries[7].SQL] = errors.SQLError("Failed to run query", queries[7].SQL,
		fmt.Errorf("Catalog Error: Table with name int_order_event_summary does not exist!"))

	insights, err := Run(context.Background(), wh, queries, nil)
	require.NoError(t, err)
	require.Len(t, insights.Sections, 9)

	assert.Equal(t, []string{"orders_total", "revenue_completed"}, insights.Sections[0].Columns)
	assert.Equal(t, [][]string{{"4", "400.5"}}, insights.Sections[0].Rows)

	failed := insights.Sections[7]
	require.Error(t, failed.Err)
	assert.Equal(t, "ERROR: Catalog Error: Table with name int_order_event_summary does not exist!", failed.ErrorText())
	assert.Empty(t, insights.Sections[8].ErrorText(), "later queries still run")

	for i, q := range queries {
		assert.Equal(t, q.SQL, wh.queried[i], "queries run in order")
	}
}

func TestRunRequiresFacts(t *testing.T) {
	wh := newFake()
	wh.missing = errors.New(errors.ErrCodeSQLObjectNotFound, "Required table(s) missing: fct_orders")

	_, err := Run(context.Background(), wh, DefaultQueries(10), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSQLObjectNotFound))
	assert.Empty(t, wh.queried)
}

func TestFetchRevenueMetrics(t *testing.T) {
	m, err := FetchRevenueMetrics(context.Background(), newFake())
	require.NoError(t, err)

	assert.Equal(t, int64(4), m.CompletedOrders)
	assert.Equal(t, int64(3), m.PaidOrders)
	assert.True(t, m.RevenueGap.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "25.00", m.RevenueGapPct.StringFixed(2))
	assert.Equal(t, int64(1), m.MissingPaymentOrders)
	assert.Equal(t, int64(2), m.CancelledWithShipmentOrders)
}

func TestFetchRevenueMetricsZeroRevenue(t *testing.T) {
	wh := newFake()
	wh.scalars[completedSQL] = []interface{}{int64(0), 0.0}
	wh.scalars[paidSQL] = []interface{}{int64(0), 0.0}

	m, err := FetchRevenueMetrics(context.Background(), wh)
	require.NoError(t, err)
	assert.True(t, m.RevenueGapPct.IsZero())
	assert.Equal(t, "- Completed revenue is zero. No comparison available.", Interpret(m)[0])
}

func TestFetchRevenueMetricsThroughDuckDBService(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	wh := warehouse.NewServiceFromDB(db, warehouse.Config{Path: "test.duckdb"})

	mock.ExpectQuery(regexp.QuoteMeta(completedSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"n", "rev"}).AddRow(int64(2), 150.0))
	mock.ExpectQuery(regexp.QuoteMeta(paidSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"n", "rev"}).AddRow(int64(2), 150.0))
	mock.ExpectQuery(regexp.QuoteMeta(flagTotalsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b"}).AddRow(int64(0), int64(0)))

	m, err := FetchRevenueMetrics(context.Background(), wh)
	require.NoError(t, err)
	assert.True(t, m.RevenueGap.IsZero())
	assert.Equal(t, []string{
		"- Completed revenue overstates paid revenue by 0.00% (0.00).",
		"- No completed orders are missing payment events.",
		"- No cancelled orders have shipment events.",
	}, Interpret(m))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterpret(t *testing.T) {
	m := RevenueMetrics{
		CompletedRevenue:            decimal.NewFromInt(1000),
		RevenueGap:                  decimal.NewFromFloat(37.5),
		RevenueGapPct:               decimal.NewFromFloat(3.75),
		MissingPaymentOrders:        12,
		CancelledWithShipmentOrders: 3,
	}

	lines := Interpret(m)
	require.Len(t, lines, 3)
	assert.Equal(t, "- Completed revenue overstates paid revenue by 3.75% (37.50).", lines[0])
	assert.Equal(t, "- 12 completed orders are missing payment events.", lines[1])
	assert.Equal(t, "- 3 cancelled orders have shipment events.", lines[2])
}

func leadFact(paid, shipped string) model.FactOrder {
	parse := func(s string) sql.NullTime {
		if s == "" {
			return sql.NullTime{}
		}
		ts, err := time.Parse("15:04", s)
		if err != nil {
			panic(err)
		}
		return sql.NullTime{Time: ts, Valid: true}
	}
	return model.FactOrder{PaymentEventTS: parse(paid), ShippedEventTS: parse(shipped)}
}

func TestLeadTimeDistribution(t *testing.T) {
	wh := newFake()
	wh.facts = []model.FactOrder{
		leadFact("10:00", "10:10"),
		leadFact("10:00", "10:20"),
		leadFact("10:00", "10:30"),
		leadFact("10:00", "09:00"),
		leadFact("", "10:00"),
		leadFact("10:00", ""),
	}

	stats, err := LeadTimeDistribution(context.Background(), wh)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Orders, "negative and incomplete lead times are excluded")
	assert.Equal(t, 20.0, stats.P50)
	assert.Equal(t, 30.0, stats.P90)
	assert.Equal(t, 30.0, stats.Max)
}

func TestLeadTimeDistributionExactMinutes(t *testing.T) {
	tests := []struct {
		name  string
		facts []model.FactOrder
		want  LeadTimeStats
	}{
		{
			name:  "constant four hours",
			facts: []model.FactOrder{leadFact("10:00", "14:00"), leadFact("11:00", "15:00"), leadFact("12:00", "16:00")},
			want:  LeadTimeStats{Orders: 3, P50: 240, P90: 240, P99: 240, Max: 240},
		},
		{
			name:  "zero lead time is kept as zero",
			facts: []model.FactOrder{leadFact("10:00", "10:00"), leadFact("10:00", "10:00"), leadFact("10:00", "10:30")},
			want:  LeadTimeStats{Orders: 3, P50: 0, P90: 30, P99: 30, Max: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wh := newFake()
			wh.facts = tt.facts

			stats, err := LeadTimeDistribution(context.Background(), wh)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stats)
		})
	}
}

func TestLeadTimeDistributionBeyondRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wh := newFake()
	wh.facts = []model.FactOrder{
		{
			PaymentEventTS: sql.NullTime{Time: start, Valid: true},
			ShippedEventTS: sql.NullTime{Time: start.Add(45 * 24 * time.Hour), Valid: true},
		},
		leadFact("10:00", "10:10"),
	}

	stats, err := LeadTimeDistribution(context.Background(), wh)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Orders, "out-of-range lead times are still counted")
	assert.Equal(t, 10.0, stats.P50)
	assert.InDelta(t, maxTrackedLeadTime.Minutes(), stats.Max, 5)
}

func TestLeadTimeDistributionEmpty(t *testing.T) {
	stats, err := LeadTimeDistribution(context.Background(), newFake())
	require.NoError(t, err)
	assert.Equal(t, LeadTimeStats{}, stats)
}

func TestEngineMessage(t *testing.T) {
	inner := fmt.Errorf("Binder Error: column x not found")
	wrapped := errors.Wrap(errors.SQLError("Failed to run query", "SELECT x", inner), errors.ErrCodeInternal, "outer")
	assert.Equal(t, inner.Error(), engineMessage(wrapped))
	assert.False(t, strings.HasPrefix(engineMessage(wrapped), "["))
}
