// Package report renders insight results as a text report and an optional xlsx workbook.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/Honar-Abdi/Order-to-Insight/internal/analysis"
	"github.com/Honar-Abdi/Order-to-Insight/internal/common"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

const (
	sectionRule    = "============================================================"
	subsectionRule = "------------------------------------------------------------"
	truncatedLine  = "... (truncated)"
)

// RunContext identifies the run a report belongs to
type RunContext struct {
	RunID       string
	GeneratedAt time.Time
	Profile     string
	Orders      int
	Seed        int64
	Mode        string
}

// WriteText renders the report and writes it to path
func WriteText(path string, rc RunContext, insights *analysis.Insights, maxRows int) error {
	var buf bytes.Buffer
	Render(&buf, rc, insights, maxRows)
	if err := common.WriteFileAtomic(path, buf.Bytes(), common.FilePermissionNormal); err != nil {
		return errors.FileError("failed to write analysis report", path, err)
	}
	return nil
}

// Render writes the full text report to w
func Render(w io.Writer, rc RunContext, insights *analysis.Insights, maxRows int) {
	m := insights.Metrics
	lt := insights.LeadTime

	lines := []string{
		"ORDER TO INSIGHT RESULTS",
		"Generated at (UTC): " + rc.GeneratedAt.UTC().Format(time.RFC3339),
		"Run id: " + rc.RunID,
		"",
		"Run context",
		"- dq_profile: " + rc.Profile,
		fmt.Sprintf("- n: %d", rc.Orders),
		fmt.Sprintf("- seed: %d", rc.Seed),
		"- mode: " + rc.Mode,
		"",
		"Revenue definitions",
		"- completed_revenue: SUM(order_amount) where order_status = 'completed'",
		"- paid_revenue:      SUM(order_amount) where order_status = 'completed' AND has_payment_event = 1",
		"- revenue_gap:       completed_revenue - paid_revenue",
		"- revenue_gap_pct:   revenue_gap / completed_revenue",
		"",
		"Key metrics",
		fmt.Sprintf("- completed_orders: %d", m.CompletedOrders),
		"- completed_revenue: " + m.CompletedRevenue.StringFixed(2),
		fmt.Sprintf("- paid_orders: %d", m.PaidOrders),
		"- paid_revenue: " + m.PaidRevenue.StringFixed(2),
		"",
		"Data quality impact",
		"- revenue_gap: " + m.RevenueGap.StringFixed(2),
		"- revenue_gap_pct: " + m.RevenueGapPct.StringFixed(2) + "%",
		fmt.Sprintf("- dq_completed_missing_payment_flag (orders): %d", m.MissingPaymentOrders),
		fmt.Sprintf("- dq_cancelled_has_shipment_flag (orders): %d", m.CancelledWithShipmentOrders),
		"",
		"Business interpretation",
	}
	lines = append(lines, analysis.Interpret(m)...)
	lines = append(lines,
		"",
		"Lead time distribution (payment to shipment, minutes)",
		fmt.Sprintf("- orders_measured: %d", lt.Orders),
		fmt.Sprintf("- p50: %.2f", lt.P50),
		fmt.Sprintf("- p90: %.2f", lt.P90),
		fmt.Sprintf("- p99: %.2f", lt.P99),
		fmt.Sprintf("- max: %.2f", lt.Max),
		"",
		"SQL INSIGHTS",
		"",
	)
	fmt.Fprintln(w, strings.Join(lines, "\n"))

	for _, s := range insights.Sections {
		fmt.Fprintln(w, sectionRule)
		fmt.Fprintln(w, s.Title)
		fmt.Fprintln(w, subsectionRule)
		fmt.Fprintln(w, SectionBody(s, maxRows))
		fmt.Fprintln(w)
	}
}

// SectionBody renders one query result. Results with more than maxRows rows are cut.
func SectionBody(s analysis.Section, maxRows int) string {
	if s.Err != nil {
		return s.ErrorText()
	}
	if len(s.Columns) == 0 {
		return "(no columns)"
	}
	if len(s.Rows) == 0 {
		return "(no rows)"
	}

	rows := s.Rows
	truncated := maxRows > 0 && len(rows) > maxRows
	if truncated {
		rows = rows[:maxRows]
	}

	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(s.Columns)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()

	body := strings.TrimRight(buf.String(), "\n")
	if truncated {
		body += "\n" + truncatedLine
	}
	return body
}
