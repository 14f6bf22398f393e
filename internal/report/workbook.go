package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Honar-Abdi/Order-to-Insight/internal/analysis"
	"github.com/Honar-Abdi/Order-to-Insight/internal/common"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

const summarySheet = "Summary"

// WriteWorkbook writes a summary sheet and one sheet per insight query to an xlsx file
func WriteWorkbook(path string, rc RunContext, insights *analysis.Insights) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to prepare workbook")
	}

	m := insights.Metrics
	summary := [][]interface{}{
		{"metric", "value"},
		{"run_id", rc.RunID},
		{"generated_at_utc", rc.GeneratedAt.UTC().Format("2006-01-02 15:04:05")},
		{"dq_profile", rc.Profile},
		{"n", rc.Orders},
		{"seed", rc.Seed},
		{"mode", rc.Mode},
		{"completed_orders", m.CompletedOrders},
		{"completed_revenue", m.CompletedRevenue.InexactFloat64()},
		{"paid_orders", m.PaidOrders},
		{"paid_revenue", m.PaidRevenue.InexactFloat64()},
		{"revenue_gap", m.RevenueGap.InexactFloat64()},
		{"revenue_gap_pct", m.RevenueGapPct.Round(2).InexactFloat64()},
		{"dq_completed_missing_payment_flag", m.MissingPaymentOrders},
		{"dq_cancelled_has_shipment_flag", m.CancelledWithShipmentOrders},
		{"lead_time_p50_minutes", insights.LeadTime.P50},
		{"lead_time_p90_minutes", insights.LeadTime.P90},
		{"lead_time_p99_minutes", insights.LeadTime.P99},
	}
	for i, row := range summary {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	for i, s := range insights.Sections {
		sheet := fmt.Sprintf("Q%d", i+1)
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to add workbook sheet").
				WithContext("sheet", sheet)
		}
		if err := setRow(f, sheet, 1, []interface{}{s.Title}); err != nil {
			return err
		}
		if s.Err != nil {
			if err := setRow(f, sheet, 2, []interface{}{s.ErrorText()}); err != nil {
				return err
			}
			continue
		}

		header := make([]interface{}, len(s.Columns))
		for j, c := range s.Columns {
			header[j] = c
		}
		if err := setRow(f, sheet, 2, header); err != nil {
			return err
		}
		for r, row := range s.Rows {
			cells := make([]interface{}, len(row))
			for j, v := range row {
				cells[j] = cellValue(v)
			}
			if err := setRow(f, sheet, r+3, cells); err != nil {
				return err
			}
		}
	}

	if err := common.EnsureParentDir(path); err != nil {
		return errors.FileError("failed to create workbook directory", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return errors.FileError("failed to save workbook", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "invalid workbook cell")
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to write workbook row").
			WithContext("sheet", sheet)
	}
	return nil
}

// cellValue keeps numbers numeric so spreadsheet formulas work on them
func cellValue(v string) interface{} {
	if v == "NULL" {
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
