package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "127.0.0.1"

database:
  url: "postgres://localhost/salewatch_test"
  max_open_conns: 10

engine:
  dedup:
    date_proximity_days: 2
    discount_value_tolerance: 4.5
  predict:
    min_confidence: 0.7
    leap_policy: "roll"
  verify:
    grace_days: 10
    discount_floor: 12.5
  suggest:
    lookback_days: 60

worker:
  brand_concurrency: 4
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "postgres://localhost/salewatch_test", cfg.Database.URL)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)

	assert.Equal(t, 2, cfg.Engine.Dedup.DateProximityDays)
	assert.Equal(t, 4.5, cfg.Engine.Dedup.DiscountValueTolerance)
	assert.Equal(t, 0.7, cfg.Engine.Predict.MinConfidence)
	assert.Equal(t, "roll", cfg.Engine.Predict.LeapPolicy)
	assert.Equal(t, 10, cfg.Engine.Verify.GraceDays)
	assert.Equal(t, 12.5, cfg.Engine.Verify.DiscountFloor)
	assert.Equal(t, 60, cfg.Engine.Suggest.LookbackDays)
	assert.Equal(t, 4, cfg.Worker.BrandConcurrency)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Engine.Dedup.DateProximityDays)
	assert.Equal(t, 5.0, cfg.Engine.Dedup.DiscountValueTolerance)
	assert.Equal(t, 0.6, cfg.Engine.Predict.MinConfidence)
	assert.Equal(t, "clamp", cfg.Engine.Predict.LeapPolicy)
	assert.Equal(t, 7, cfg.Engine.Verify.GraceDays)
	assert.Equal(t, 7, cfg.Engine.Verify.MatchWindowDays)
	assert.Equal(t, 15.0, cfg.Engine.Verify.DiscountFloor)
	assert.Equal(t, 90, cfg.Engine.Suggest.LookbackDays)
	assert.Equal(t, 8, cfg.Worker.BrandConcurrency)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		cfg.Database.URL = "postgres://localhost/salewatch"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing database url", func(t *testing.T) {
		cfg := base()
		cfg.Database.URL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("confidence out of range", func(t *testing.T) {
		cfg := base()
		cfg.Engine.Predict.MinConfidence = 1.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad leap policy", func(t *testing.T) {
		cfg := base()
		cfg.Engine.Predict.LeapPolicy = "skip"
		assert.Error(t, cfg.Validate())
	})

	t.Run("discount floor out of range", func(t *testing.T) {
		cfg := base()
		cfg.Engine.Verify.DiscountFloor = 150
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-host/salewatch")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-host/salewatch", cfg.Database.URL)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}
