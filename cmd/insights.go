package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Honar-Abdi/Order-to-Insight/internal/analysis"
	"github.com/Honar-Abdi/Order-to-Insight/internal/pipeline"
	"github.com/Honar-Abdi/Order-to-Insight/internal/report"
	"github.com/Honar-Abdi/Order-to-Insight/internal/ui"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/models"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Run the insight queries and write the report",
	Long: `Run the fixed battery of business queries over the marts and write a plain-text
report. With --workbook (or report.workbook) the same results are also written
to an Excel workbook. A failing query is reported inline and does not stop the
run.`,
	Args: cobra.NoArgs,
	RunE: runInsights,
}

func init() {
	insightsCmd.Flags().String("workbook", "", "also write an Excel workbook to this path")
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
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

	rc := runContext(uuid.New().String(), cfg)
	insights, err := pipeline.Insights(ctx, store, cfg, rc, logger)
	if err != nil {
		return err
	}

	showInsights(insights, cfg)
	return nil
}

func runContext(runID string, cfg *models.Config) report.RunContext {
	return report.RunContext{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Profile:     cfg.Generate.Profile,
		Orders:      cfg.Generate.Orders,
		Seed:        cfg.Generate.Seed,
		Mode:        cfg.Ingestion.Mode,
	}
}

// showInsights prints the interpretation lines and where the report went
func showInsights(insights *analysis.Insights, cfg *models.Config) {
	fmt.Fprintln(ui.Output)
	for _, line := range analysis.Interpret(insights.Metrics) {
		fmt.Fprintln(ui.Output, line)
	}
	fmt.Fprintln(ui.Output)

	failed := 0
	for _, section := range insights.Sections {
		if section.Err != nil {
			failed++
			ui.ShowWarning(fmt.Sprintf("%s: %s", section.Title, section.ErrorText()))
		}
	}

	ui.ShowSuccess(fmt.Sprintf("Report written to %s (%d queries, %d failed)", cfg.Report.Output, len(insights.Sections), failed))
	if cfg.Report.Workbook != "" {
		ui.ShowKeyValue("workbook", cfg.Report.Workbook)
	}
}
