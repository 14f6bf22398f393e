package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Honar-Abdi/Order-to-Insight/internal/config"
	"github.com/Honar-Abdi/Order-to-Insight/internal/ui"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/models"
)

var initFlags struct {
	output   string
	defaults bool
	force    bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Create a config.yaml for the pipeline.

By default an interactive wizard asks for the data directories, the generator
profile, the ingestion mode and the report outputs. Use --defaults to write the
built-in defaults without prompting.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initFlags.output, "output", "o", "", "where to write the config (default is the user config file)")
	initCmd.Flags().BoolVar(&initFlags.defaults, "defaults", false, "write the defaults without prompting")
	initCmd.Flags().BoolVarP(&initFlags.force, "force", "f", false, "overwrite an existing config file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path := initFlags.output
	if path == "" {
		path = config.GetConfigFile()
	}

	if config.Exists(path) && !initFlags.force {
		return errors.New(errors.ErrCodeValidationFailed, "configuration file already exists").
			WithContext("file", path).
			WithSuggestions("Use --force to overwrite it")
	}

	cfg, err := initialConfig()
	if err != nil {
		if err == ui.ErrWizardCancelled {
			ui.ShowWarning("Configuration not saved")
			return nil
		}
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	ui.ShowSuccess("Configuration written to " + path)
	return nil
}

func initialConfig() (*models.Config, error) {
	defaults := config.Defaults()
	if initFlags.defaults {
		return &defaults, nil
	}
	return ui.NewConfigWizard().Run(defaults)
}
