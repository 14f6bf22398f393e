package warehouse

import (
	"fmt"
	"strings"
)

// Table names of every layer, in build order.
const (
	RawOrders       = "raw_orders"
	RawOrderEvents  = "raw_order_events"
	DQReport        = "dq_report"
	DQFailedSamples = "dq_failed_samples"

	StgOrders      = "stg_orders"
	StgOrderEvents = "stg_order_events"

	IntOrderEventSummary = "int_order_event_summary"

	FctOrders       = "fct_orders"
	FctDailyRevenue = "fct_daily_revenue"
)

// Column is one typed column of a materialized table. Bind overrides the "?" placeholder
// when a parameter needs an explicit conversion.
type Column struct {
	Name string
	Type string
	Bind string
}

// TableDef describes a table rebuilt from Go-computed rows
type TableDef struct {
	Name    string
	Columns []Column
}

// CreateSQL returns the CREATE OR REPLACE TABLE statement for the table
func (d TableDef) CreateSQL() string {
	cols := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = fmt.Sprintf("%s %s", c.Name, c.Type)
	}
	return fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", d.Name, strings.Join(cols, ", "))
}

// InsertSQL returns a multi-row INSERT statement for n rows
func (d TableDef) InsertSQL(n int) string {
	names := make([]string, len(d.Columns))
	binds := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
		binds[i] = "?"
		if c.Bind != "" {
			binds[i] = c.Bind
		}
	}
	tuple := "(" + strings.Join(binds, ", ") + ")"

	values := make([]string, n)
	for i := range values {
		values[i] = tuple
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.Name, strings.Join(names, ", "), strings.Join(values, ", "))
}

// ColumnNames returns the column names in table order
func (d TableDef) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

var EventSummaryTable = TableDef{
	Name: IntOrderEventSummary,
	Columns: []Column{
		{Name: "order_id", Type: "VARCHAR"},
		{Name: "created_event_ts", Type: "TIMESTAMP"},
		{Name: "payment_event_ts", Type: "TIMESTAMP"},
		{Name: "shipped_event_ts", Type: "TIMESTAMP"},
		{Name: "cancelled_event_ts", Type: "TIMESTAMP"},
		{Name: "event_count", Type: "BIGINT"},
		{Name: "payment_event_count", Type: "BIGINT"},
		{Name: "shipped_event_count", Type: "BIGINT"},
	},
}

var FactOrdersTable = TableDef{
	Name: FctOrders,
	Columns: []Column{
		{Name: "order_id", Type: "VARCHAR"},
		{Name: "customer_id", Type: "VARCHAR"},
		{Name: "order_created_at", Type: "TIMESTAMP"},
		{Name: "order_amount", Type: "DOUBLE"},
		{Name: "currency", Type: "VARCHAR"},
		{Name: "order_status", Type: "VARCHAR"},
		{Name: "created_event_ts", Type: "TIMESTAMP"},
		{Name: "payment_event_ts", Type: "TIMESTAMP"},
		{Name: "shipped_event_ts", Type: "TIMESTAMP"},
		{Name: "cancelled_event_ts", Type: "TIMESTAMP"},
		{Name: "has_payment_event", Type: "INTEGER"},
		{Name: "has_shipped_event", Type: "INTEGER"},
		{Name: "dq_completed_missing_payment_flag", Type: "INTEGER"},
		{Name: "dq_cancelled_has_shipment_flag", Type: "INTEGER"},
	},
}

var DailyRevenueTable = TableDef{
	Name: FctDailyRevenue,
	Columns: []Column{
		{Name: "order_date", Type: "DATE", Bind: "CAST(? AS DATE)"},
		{Name: "orders_total", Type: "BIGINT"},
		{Name: "orders_completed", Type: "BIGINT"},
		{Name: "revenue_completed", Type: "DOUBLE"},
	},
}

var QualityReportTable = TableDef{
	Name: DQReport,
	Columns: []Column{
		{Name: "rule_id", Type: "VARCHAR"},
		{Name: "rule_name", Type: "VARCHAR"},
		{Name: "table_name", Type: "VARCHAR"},
		{Name: "severity", Type: "VARCHAR"},
		{Name: "failed_rows", Type: "BIGINT"},
		{Name: "total_rows", Type: "BIGINT"},
		{Name: "failure_rate", Type: "DOUBLE"},
		{Name: "sample_keys", Type: "VARCHAR"},
	},
}

var FailedSamplesTable = TableDef{
	Name: DQFailedSamples,
	Columns: []Column{
		{Name: "rule_id", Type: "VARCHAR"},
		{Name: "table_name", Type: "VARCHAR"},
		{Name: "event_id", Type: "VARCHAR"},
		{Name: "order_id", Type: "VARCHAR"},
		{Name: "customer_id", Type: "VARCHAR"},
		{Name: "event_type", Type: "VARCHAR"},
		{Name: "event_timestamp", Type: "VARCHAR"},
		{Name: "order_created_at", Type: "VARCHAR"},
		{Name: "order_amount", Type: "VARCHAR"},
		{Name: "order_status", Type: "VARCHAR"},
	},
}
