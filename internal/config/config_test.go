package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
broker:
  api_key: key
  api_secret: secret
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://paper-api.alpaca.markets", cfg.Broker.TradingBaseURL)
	assert.Equal(t, 0.08, cfg.Trading.BasePositionPct)
	assert.Equal(t, 1.6, cfg.Trading.MaxTotalExposure)
	assert.Equal(t, -10.0, cfg.Risk.HardStopPct)
	assert.Equal(t, 300, cfg.Timing.CycleIntervalSeconds)
	assert.Equal(t, 20, cfg.Sources.ListLimit)
}

func TestLoadConfigExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_TRADER_KEY", "from-env")
	path := writeConfig(t, `
broker:
  api_key: ${TEST_TRADER_KEY}
  api_secret: ${TEST_TRADER_SECRET:-fallback-secret}
system:
  log_level: ${TEST_TRADER_LEVEL:-DEBUG}
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Broker.APIKey.Value())
	assert.Equal(t, "fallback-secret", cfg.Broker.APISecret.Value())
	assert.Equal(t, "DEBUG", cfg.System.LogLevel)
}

func TestLoadConfigMissingCredentials(t *testing.T) {
	path := writeConfig(t, `
trading:
  base_position_pct: 0.08
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker.api_key")
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Broker.APIKey = "k"
	cfg.Broker.APISecret = "s"
	cfg.Trading.BasePositionPct = -1
	cfg.Risk.HardStopPct = 5
	cfg.Timing.CycleIntervalSeconds = 1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trading.base_position_pct")
	assert.Contains(t, err.Error(), "risk.hard_stop_pct")
	assert.Contains(t, err.Error(), "timing.cycle_interval_seconds")
}

func TestValidateRejectsInvertedTrailingStops(t *testing.T) {
	cfg := Default()
	cfg.Broker.APIKey = "k"
	cfg.Broker.APISecret = "s"
	cfg.Risk.TightTrailingPct = 9
	cfg.Risk.LooseTrailingPct = 5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tight_trailing_pct")
}

func TestValidateRequiresASentimentSource(t *testing.T) {
	cfg := Default()
	cfg.Broker.APIKey = "k"
	cfg.Broker.APISecret = "s"
	cfg.Sources.ApeWisdomEnabled = false
	cfg.Sources.StocktwitsEnabled = false

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sentiment source")
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCycleIntervalHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "5m0s", cfg.CycleInterval().String())
	assert.Equal(t, "1m0s", cfg.ErrorCooldown().String())
}
