package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Honar-Abdi/Order-to-Insight/internal/pipeline"
	"github.com/Honar-Abdi/Order-to-Insight/internal/transform"
	"github.com/Honar-Abdi/Order-to-Insight/internal/ui"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Rebuild the staging, intermediate and mart layers",
	Long: `Rebuild stg_orders and stg_order_events, the per-order event summary, and the
fct_orders and fct_daily_revenue marts from the raw tables. Every table is
recreated on each run.`,
	Args: cobra.NoArgs,
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
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

	result, err := transform.NewRunner(store, logger).Run(ctx)
	if err != nil {
		return err
	}

	table := ui.NewTable()
	table.AddHeader("step", "rows", "duration")
	for _, step := range result.Steps {
		table.AddRow(step.Name, strconv.Itoa(step.Rows), step.Duration.String())
	}
	table.Render()

	ui.ShowSuccess(fmt.Sprintf("Transform completed in %s", result.Duration))
	return nil
}
