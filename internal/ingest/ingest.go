// Package ingest reads the raw CSV files, runs the data-quality rules on them and loads the raw
// and quality tables into the warehouse.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/Honar-Abdi/Order-to-Insight/internal/observability"
	"github.com/Honar-Abdi/Order-to-Insight/internal/quality"
	"github.com/Honar-Abdi/Order-to-Insight/internal/warehouse"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

// Mode decides whether critical quality failures stop the run
type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

// Warehouse is what ingestion needs from the store
type Warehouse interface {
	LoadCSV(ctx context.Context, table, path string) error
	ReplaceTable(ctx context.Context, def warehouse.TableDef, rows [][]interface{}) error
}

// Options locates the inputs and outputs of one ingestion
type Options struct {
	OrdersFile        string
	EventsFile        string
	QualityReportFile string
	FailedSamplesFile string
	Mode              Mode
	SampleLimit       int
}

// Result summarizes an ingestion
type Result struct {
	Orders  int
	Events  int
	Quality *quality.Report
}

// Run ingests the raw files. In prod mode a critical rule failure returns ErrCodeQualityGate
// after everything has been written, so the artifacts can be inspected.
func Run(ctx context.Context, wh Warehouse, opts Options, logger *observability.Logger) (*Result, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	orders, err := ReadOrders(opts.OrdersFile)
	if err != nil {
		return nil, err
	}
	events, err := ReadEvents(opts.EventsFile)
	if err != nil {
		return nil, err
	}
	logger.InfoWithFields("read raw data", map[string]interface{}{
		"orders": len(orders),
		"events": len(events),
	})

	report := quality.Run(orders, events, opts.SampleLimit)
	for _, res := range report.Results {
		if !res.Failed() {
			continue
		}
		logger.WarnWithFields("data quality rule failed", map[string]interface{}{
			"rule":         res.RuleID,
			"severity":     res.Severity,
			"failed_rows":  res.FailedRows,
			"failure_rate": res.FailureRate,
		})
	}

	if err := report.WriteReportCSV(opts.QualityReportFile); err != nil {
		return nil, err
	}
	if err := report.WriteSamplesCSV(opts.FailedSamplesFile); err != nil {
		return nil, err
	}

	if err := wh.LoadCSV(ctx, warehouse.RawOrders, opts.OrdersFile); err != nil {
		return nil, err
	}
	if err := wh.LoadCSV(ctx, warehouse.RawOrderEvents, opts.EventsFile); err != nil {
		return nil, err
	}
	if err := wh.ReplaceTable(ctx, warehouse.QualityReportTable, report.ReportRows()); err != nil {
		return nil, err
	}
	if err := wh.ReplaceTable(ctx, warehouse.FailedSamplesTable, report.SampleRows()); err != nil {
		return nil, err
	}
	logger.Info("loaded raw and quality tables")

	result := &Result{Orders: len(orders), Events: len(events), Quality: report}

	if opts.Mode == ModeProd {
		if err := Gate(report); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Gate fails when any critical rule has failing rows
func Gate(report *quality.Report) error {
	critical := report.CriticalFailures()
	if len(critical) == 0 {
		return nil
	}

	ids := make([]string, len(critical))
	lines := make([]string, len(critical))
	for i, res := range critical {
		ids[i] = res.RuleID
		lines[i] = fmt.Sprintf("%s %s (%s): %d failed rows, rate %.4f",
			res.RuleID, res.RuleName, res.TableName, res.FailedRows, res.FailureRate)
	}

	return errors.New(errors.ErrCodeQualityGate, "Critical data quality failures detected (mode=prod)").
		WithContext("rules", strings.Join(ids, ",")).
		WithContext("failures", strings.Join(lines, "; ")).
		WithSuggestions(
			"Inspect the data quality report and failed samples",
			"Re-run with --mode dev to continue despite critical failures",
		)
}
