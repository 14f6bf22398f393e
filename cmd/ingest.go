package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Honar-Abdi/Order-to-Insight/internal/pipeline"
	"github.com/Honar-Abdi/Order-to-Insight/internal/quality"
	"github.com/Honar-Abdi/Order-to-Insight/internal/ui"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Validate the raw files and load them into the warehouse",
	Long: `Run the data quality rules over orders.csv and order_events.csv, write the
quality report and failed samples, and load the raw tables into the warehouse.

In prod mode any critical rule failure stops with a non-zero exit after the
artifacts are written.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	addModeFlag(ingestCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	store, err := pipeline.OpenWarehouse(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := pipeline.Ingest(ctx, store, cfg, logger)
	if result != nil && result.Quality != nil {
		showQuality(result.Quality)
	}
	if err != nil {
		return err
	}

	ui.ShowSuccess(fmt.Sprintf("Loaded %d orders and %d events (mode=%s)", result.Orders, result.Events, cfg.Ingestion.Mode))
	ui.ShowKeyValue("quality report", cfg.Paths.QualityReportFile())
	ui.ShowKeyValue("failed samples", cfg.Paths.FailedSamplesFile())
	return nil
}

// showQuality prints one row per rule
func showQuality(report *quality.Report) {
	table := ui.NewTable()
	table.AddHeader("rule", "name", "table", "severity", "failed", "total", "rate")
	for _, r := range report.Results {
		table.AddRow(
			r.RuleID,
			r.RuleName,
			r.TableName,
			r.Severity,
			ui.FormatCount(r.FailedRows),
			strconv.Itoa(r.TotalRows),
			strconv.FormatFloat(r.FailureRate, 'f', 4, 64),
		)
	}
	table.Render()

	if critical := report.CriticalFailures(); len(critical) > 0 {
		ui.ShowWarning(fmt.Sprintf("%d critical rule(s) failed", len(critical)))
	}
}
