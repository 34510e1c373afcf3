package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.ncei.noaa.gov/access/services", cfg.NCEI.BaseURL)
	assert.Equal(t, 100*time.Millisecond, cfg.NCEI.MinInterval())
	assert.Equal(t, time.Minute, cfg.NCEI.Timeout())
	assert.Equal(t, "station-search/1.0", cfg.NCEI.UserAgent)
	assert.Equal(t, 3, cfg.NCEI.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.NCEI.Retry.InitialBackoffMs)
	assert.InDelta(t, 2.0, cfg.NCEI.Retry.Multiplier, 0.001)
	assert.InDelta(t, 1.0, cfg.Search.InitialHalfLengthKM, 0.001)
	assert.InDelta(t, 100.0, cfg.Search.MaxHalfLengthKM, 0.001)
	assert.Equal(t, "output", cfg.Output.Root)
	assert.Equal(t, "data/stations_sorted.json", cfg.Output.StationsPath)
	assert.Equal(t, "data/stations", cfg.Output.DataPath)
	assert.Equal(t, "data/raw", cfg.Output.DumpPath)
	assert.Equal(t, 4, cfg.Fetch.Concurrency)
	assert.Equal(t, "data/runs.db", cfg.Store.Path)
	assert.False(t, cfg.Store.Disabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
ncei:
  min_interval_ms: 250
  retry:
    max_attempts: 5
search:
  max_half_length_km: 64
log:
  level: debug
  format: console
fetch:
  concurrency: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.NCEI.MinInterval())
	assert.Equal(t, 5, cfg.NCEI.Retry.MaxAttempts)
	assert.InDelta(t, 64.0, cfg.Search.MaxHalfLengthKM, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Fetch.Concurrency)
	// Defaults still apply for unset values
	assert.Equal(t, 60, cfg.NCEI.TimeoutSecs)
	assert.Equal(t, 500, cfg.NCEI.Retry.InitialBackoffMs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  path: file.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("STATION_STORE_PATH", "env.db")
	t.Setenv("STATION_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "env.db", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("STATION_FETCH_CONCURRENCY", "2")
	t.Setenv("STATION_NCEI_BASE_URL", "http://localhost:9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Fetch.Concurrency)
	assert.Equal(t, "http://localhost:9999", cfg.NCEI.BaseURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("ncei: [unterminated"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestRetryConfig_Resilience(t *testing.T) {
	rc := RetryConfig{MaxAttempts: 4, InitialBackoffMs: 100, MaxBackoffMs: 2000, Multiplier: 3, JitterFraction: 0}.Resilience()
	assert.Equal(t, 4, rc.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, rc.InitialBackoff)
	assert.Equal(t, 2*time.Second, rc.MaxBackoff)
	assert.InDelta(t, 3.0, rc.Multiplier, 0.001)
	assert.InDelta(t, 0.0, rc.JitterFraction, 0.001)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.NCEI.BaseURL = "https://www.ncei.noaa.gov/access/services"
	cfg.NCEI.MinIntervalMs = 100
	cfg.NCEI.TimeoutSecs = 60
	cfg.Search.InitialHalfLengthKM = 1
	cfg.Search.MaxHalfLengthKM = 100
	cfg.Fetch.Concurrency = 4
	return cfg
}

func TestValidateSearch_AllPresent(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("search"))
	assert.NoError(t, cfg.Validate("batch"))
	assert.NoError(t, cfg.Validate("fetch"))
}

func TestValidateSearch_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.NCEI.BaseURL = ""
	cfg.NCEI.TimeoutSecs = 0

	err := cfg.Validate("search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ncei.base_url is required")
	assert.Contains(t, err.Error(), "ncei.timeout_secs must be > 0")
}

func TestValidateSearch_HalfLengthBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Search.MaxHalfLengthKM = 0.5

	err := cfg.Validate("search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search.max_half_length_km must be >= 1")

	cfg.Search.MaxHalfLengthKM = 100
	cfg.Search.InitialHalfLengthKM = 200
	err = cfg.Validate("search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must not exceed")

	// Search bounds do not matter for a plain fetch.
	assert.NoError(t, cfg.Validate("fetch"))
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Fetch.Concurrency = 0
	err := cfg.Validate("fetch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fetch.concurrency must be between 1 and 32")

	cfg.Fetch.Concurrency = 33
	assert.Error(t, cfg.Validate("fetch"))

	cfg.Fetch.Concurrency = 32
	assert.NoError(t, cfg.Validate("fetch"))
}

func TestValidateReportNeedsNothing(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.Validate("report"))
	assert.NoError(t, cfg.Validate("runs"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
