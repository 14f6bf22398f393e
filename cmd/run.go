package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Honar-Abdi/Order-to-Insight/internal/pipeline"
	"github.com/Honar-Abdi/Order-to-Insight/internal/ui"
)

var runFlags pipeline.Options

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run generate, ingest, transform and insights in order",
	Long: `Run the whole pipeline against one warehouse connection. Stages can be skipped
individually; the first failing stage stops the run with a non-zero exit.`,
	Example: `  order-to-insight run
  order-to-insight run --profile clean --mode prod
  order-to-insight run --skip-generate --workbook data/processed/insights.xlsx`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	addGenerateFlags(runCmd)
	addModeFlag(runCmd)
	runCmd.Flags().String("workbook", "", "also write an Excel workbook to this path")
	runCmd.Flags().BoolVar(&runFlags.SkipGenerate, "skip-generate", false, "reuse the existing raw files")
	runCmd.Flags().BoolVar(&runFlags.SkipIngest, "skip-ingest", false, "reuse the loaded raw tables")
	runCmd.Flags().BoolVar(&runFlags.SkipTransform, "skip-transform", false, "reuse the existing marts")
	runCmd.Flags().BoolVar(&runFlags.SkipInsights, "skip-insights", false, "do not write the report")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ui.ShowHeader("Order-to-Insight")
	progress := ui.NewStageProgress(4)

	result, err := pipeline.New(cfg, logger).
		WithObserver(progress).
		Run(cmd.Context(), runFlags)
	progress.Finish()

	if result != nil && result.Ingest != nil && result.Ingest.Quality != nil {
		showQuality(result.Ingest.Quality)
	}
	if err != nil {
		return err
	}

	if result.Insights != nil {
		showInsights(result.Insights, cfg)
	}
	ui.ShowKeyValue("run id", result.RunID)
	return nil
}
