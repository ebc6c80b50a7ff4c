package common

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/payslip-tracker/constants"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := LoadConfig()

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "por+eng", cfg.OCR.Languages)
	assert.Equal(t, 6, cfg.OCR.PSM)
	assert.Equal(t, 3, cfg.OCR.OEM)
	assert.Equal(t, 30.0, cfg.OCR.MinWordConfidence)
	assert.True(t, cfg.OCR.Preprocess)
	assert.Equal(t, constants.MaxUploadBytes, cfg.Server.MaxUploadBytes)
	assert.Equal(t, constants.PersistAll, cfg.Extraction.PersistMode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_URL", "postgres://localhost/payslips")
	t.Setenv("OCR_PREPROCESS", "off")
	t.Setenv("PERSIST_MODE", "valid")
	t.Setenv("PROCESS_TIMEOUT", "45s")
	t.Setenv("WORKERS", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.False(t, cfg.OCR.Preprocess)
	assert.Equal(t, constants.PersistValid, cfg.Extraction.PersistMode)
	assert.Equal(t, 45*time.Second, cfg.Processing.ProcessTimeout)
	assert.Equal(t, 4, cfg.Processing.Workers)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestConfigValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := map[string]func(*Config){
		"driver":       func(c *Config) { c.Database.Driver = "mysql" },
		"dsn":          func(c *Config) { c.Database.DSN = "" },
		"addresses":    func(c *Config) { c.Server.GRPCAddr, c.Server.HTTPAddr = "", "" },
		"persist mode": func(c *Config) { c.Extraction.PersistMode = "sometimes" },
		"rasterizer":   func(c *Config) { c.OCR.Rasterizer = "ghostscript" },
		"confidence":   func(c *Config) { c.OCR.MinWordConfidence = 101 },
		"workers":      func(c *Config) { c.Processing.Workers = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := LoadConfig()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}
