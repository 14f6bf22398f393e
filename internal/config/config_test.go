package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/models"
)

func TestGetConfigFile(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".order-to-insight", "config.yaml"), GetConfigFile())

	custom := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(EnvConfigFile, custom)
	assert.Equal(t, custom, GetConfigFile())
	assert.Equal(t, filepath.Dir(custom), GetConfigPath())
}

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("OTI_INGESTION_MODE", "prod")
	t.Setenv("OTI_GENERATE_ORDERS", "250")

	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Ingestion.Mode)
	assert.Equal(t, 250, cfg.Generate.Orders)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Config)
		field  string
	}{
		{"bad mode", func(c *models.Config) { c.Ingestion.Mode = "staging" }, "ingestion.mode"},
		{"bad profile", func(c *models.Config) { c.Generate.Profile = "chaos" }, "generate.profile"},
		{"zero orders", func(c *models.Config) { c.Generate.Orders = 0 }, "generate.orders"},
		{"missing warehouse", func(c *models.Config) { c.Warehouse.Path = "" }, "warehouse.path"},
		{"zero max rows", func(c *models.Config) { c.Report.MaxRows = 0 }, "report.max_rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)

			err := Validate(&cfg)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetErrorCode(err))

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Context["field"])
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", FileName)

	cfg := Defaults()
	cfg.Generate.Profile = "clean"
	cfg.Generate.Seed = 7
	cfg.Report.Workbook = "out/insights.xlsx"

	require.NoError(t, Save(path, &cfg))
	assert.True(t, Exists(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	loaded, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OTI_TEST_DOTENV_VALUE=loaded\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("OTI_TEST_DOTENV_VALUE") })

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "loaded", os.Getenv("OTI_TEST_DOTENV_VALUE"))
}
