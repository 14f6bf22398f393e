package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Honar-Abdi/Order-to-Insight/internal/common"
	apperrors "github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/models"
)

const (
	// EnvPrefix prefixes every environment override (OTI_WAREHOUSE_PATH, ...)
	EnvPrefix = "OTI"
	// EnvConfigFile points at an explicit config file
	EnvConfigFile = "OTI_CONFIG"
	// FileName is the config file name looked up in the search paths
	FileName = "config.yaml"
)

// GetConfigPath returns the per-user config directory
func GetConfigPath() string {
	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		return filepath.Dir(configFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".order-to-insight")
}

// GetConfigFile returns the config file used when no --config flag is given
func GetConfigFile() string {
	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		cleaned, err := common.CleanPath(configFile)
		if err != nil {
			return filepath.Join(GetConfigPath(), FileName)
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), FileName)
}

// Defaults returns the configuration used when no file or override is present
func Defaults() models.Config {
	return models.Config{
		Paths: models.Paths{
			RawDir:       filepath.Join("data", "raw"),
			ProcessedDir: filepath.Join("data", "processed"),
		},
		Warehouse: models.Warehouse{
			Path:            filepath.Join("data", "processed", "warehouse.duckdb"),
			InsertBatchSize: 500,
		},
		Generate:  models.Generate{Profile: "messy", Orders: 5000, Seed: 42},
		Ingestion: models.Ingestion{Mode: "dev", SampleLimit: 50},
		Report: models.Report{
			Output:       filepath.Join("data", "processed", "analysis_results.txt"),
			MaxRows:      10,
			TopCustomers: 10,
		},
		Logging: models.Logging{Level: "info", Format: "text"},
	}
}

// SetDefaults registers Defaults on v and enables OTI_ environment overrides
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("paths.raw_dir", d.Paths.RawDir)
	v.SetDefault("paths.processed_dir", d.Paths.ProcessedDir)
	v.SetDefault("warehouse.path", d.Warehouse.Path)
	v.SetDefault("warehouse.insert_batch_size", d.Warehouse.InsertBatchSize)
	v.SetDefault("generate.profile", d.Generate.Profile)
	v.SetDefault("generate.orders", d.Generate.Orders)
	v.SetDefault("generate.seed", d.Generate.Seed)
	v.SetDefault("ingestion.mode", d.Ingestion.Mode)
	v.SetDefault("ingestion.sample_limit", d.Ingestion.SampleLimit)
	v.SetDefault("report.output", d.Report.Output)
	v.SetDefault("report.workbook", d.Report.Workbook)
	v.SetDefault("report.max_rows", d.Report.MaxRows)
	v.SetDefault("report.top_customers", d.Report.TopCustomers)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return apperrors.FileError("failed to load environment file", path, err)
	}
	return nil
}

// Load decodes the merged viper state into a Config and validates it
func Load(v *viper.Viper) (*models.Config, error) {
	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "failed to decode configuration")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks cfg against its struct tags. The first violation is reported with its yaml key.
func Validate(cfg *models.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "invalid configuration")
	}

	first := validationErrors[0]
	field := strings.TrimPrefix(first.Namespace(), "Config.")
	message := fmt.Sprintf("invalid value %v for %s (rule: %s", first.Value(), field, first.Tag())
	if first.Param() != "" {
		message += "=" + first.Param()
	}
	message += ")"

	return apperrors.ConfigError(message, field).WithContext("violations", len(validationErrors))
}

// Save writes cfg as YAML to path
func Save(path string, cfg *models.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to marshal config")
	}

	if err := common.EnsureParentDir(path); err != nil {
		return apperrors.FileError("failed to create config directory", path, err)
	}
	if err := os.WriteFile(path, data, common.FilePermissionSecure); err != nil {
		return apperrors.FileError("failed to write config file", path, err)
	}
	return nil
}

// Exists reports whether a config file is present at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
