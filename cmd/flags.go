package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Honar-Abdi/Order-to-Insight/internal/config"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/models"
)

// addGenerateFlags registers the generator overrides on cmd
func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().String("profile", "", "data quality profile (clean, messy)")
	cmd.Flags().Int("orders", 0, "number of orders to generate")
	cmd.Flags().Int64("seed", 0, "random seed")
}

// addModeFlag registers the ingestion mode override on cmd
func addModeFlag(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "ingestion mode (dev, prod); prod stops on critical quality failures")
}

// applyFlags copies every flag the user set into cfg and validates the result
func applyFlags(flags *pflag.FlagSet, cfg *models.Config) error {
	if flags.Changed("profile") {
		cfg.Generate.Profile, _ = flags.GetString("profile")
	}
	if flags.Changed("orders") {
		cfg.Generate.Orders, _ = flags.GetInt("orders")
	}
	if flags.Changed("seed") {
		cfg.Generate.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("mode") {
		cfg.Ingestion.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("workbook") {
		cfg.Report.Workbook, _ = flags.GetString("workbook")
	}

	return config.Validate(cfg)
}

// commandConfig loads the configuration and applies cmd's flags
func commandConfig(cmd *cobra.Command) (*models.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
