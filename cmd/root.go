package cmd

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Honar-Abdi/Order-to-Insight/internal/config"
	"github.com/Honar-Abdi/Order-to-Insight/internal/observability"
	"github.com/Honar-Abdi/Order-to-Insight/internal/ui"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/models"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "order-to-insight",
		Short: "Turn raw e-commerce orders into validated analytics",
		Long: `order-to-insight generates synthetic orders and order events, checks them against
data quality rules, models them into staging, intermediate and mart tables in an
embedded DuckDB warehouse, and writes a business insight report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			errors.GetGlobalErrorHandler().Handle(appErr)
		} else {
			ui.ShowError(err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or $HOME/.order-to-insight/config.yaml)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")

	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	switch {
	case cfgFile != "":
		viper.SetConfigFile(cfgFile)
	case os.Getenv(config.EnvConfigFile) != "":
		viper.SetConfigFile(config.GetConfigFile())
	default:
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(config.GetConfigPath())
	}
}

// loadConfig reads .env, the config file and OTI_ overrides into a validated Config
func loadConfig() (*models.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.Wrap(err, errors.ErrCodeConfigNotFound, "failed to read config file").
				WithContext("file", viper.ConfigFileUsed()).
				WithSuggestions("Run 'order-to-insight init' to create a configuration")
		}
	}

	return config.Load(viper.GetViper())
}

// newLogger builds the process logger from the logging section
func newLogger(cfg *models.Config) *observability.Logger {
	logger := observability.NewLogger(observability.LoggerConfig{
		Level:   observability.LogLevelFromString(cfg.Logging.Level),
		Output:  os.Stderr,
		Format:  cfg.Logging.Format,
		Service: "order-to-insight",
		Version: Version,
	})
	observability.SetDefaultLogger(logger)
	return logger
}
