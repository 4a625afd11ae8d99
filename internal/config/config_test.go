package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 120, cfg.Sources.FetchTimeoutSecs)
	assert.Equal(t, "queries", cfg.Sources.QueryDir)
	assert.Equal(t, 1, cfg.Resilience.MaxAttempts)
	assert.Equal(t, 5, cfg.Resilience.FailureThreshold)
	assert.Equal(t, 5, cfg.Priorities.MaxConcurrency)
	assert.Equal(t, "postgres", cfg.Sink.Driver)
	assert.Equal(t, "SoHa", cfg.Sink.DebugSchema)
	assert.Equal(t, "Priorities_Test", cfg.Sink.DebugTable)
	assert.Equal(t, "VRP_Details", cfg.Sink.FinalSchema)
	assert.Equal(t, "SoHa_Priorities", cfg.Sink.FinalTable)
	assert.Equal(t, "soha-priorities", cfg.Archive.Prefix)
	assert.Equal(t, "soha_priorities", cfg.Monitoring.Job)
	assert.False(t, cfg.RunLog.Enabled)

	assert.True(t, cfg.Priorities.Enabled("deferment"))
	assert.True(t, cfg.Priorities.Enabled("telemetry"))
	assert.False(t, cfg.Priorities.Enabled("cumulative_deferment"))
	assert.True(t, cfg.Priorities.Enabled("not_configured"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
sources:
  systems:
    EnterpriseDataHub:
      driver: postgres
      dsn: postgres://edh/wells
      rate_per_sec: 2
    ODS:
      driver: csv
      dir: /snapshots/ods
priorities:
  site_manager: J. Doe
  scorers:
    flood:
      enabled: false
sink:
  driver: sqlite
  dsn: /tmp/soha.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "J. Doe", cfg.Priorities.SiteManager)
	assert.False(t, cfg.Priorities.Enabled("flood"))
	assert.True(t, cfg.Priorities.Enabled("deferment"))
	assert.Equal(t, "sqlite", cfg.Sink.Driver)

	edh, ok := cfg.Sources.System("EnterpriseDataHub")
	require.True(t, ok)
	assert.Equal(t, "postgres", edh.Driver)
	assert.InDelta(t, 2.0, edh.RatePerSec, 0.001)

	ods, ok := cfg.Sources.System("ods")
	require.True(t, ok)
	assert.Equal(t, "/snapshots/ods", ods.Dir)

	// Defaults still apply for unset values
	assert.Equal(t, 120, cfg.Sources.FetchTimeoutSecs)
	assert.Equal(t, "VRP_Details", cfg.Sink.FinalSchema)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
sink:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SOHA_SINK_DRIVER", "postgres")
	t.Setenv("SOHA_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Sink.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("SOHA_PRIORITIES_MAX_CONCURRENCY", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Priorities.MaxConcurrency)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unterminated"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
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
	cfg.Priorities.MaxConcurrency = 5
	cfg.Resilience.MaxAttempts = 1
	cfg.Sink.Driver = "postgres"
	cfg.Sink.DSN = "postgres://localhost/vrp"
	cfg.Sink.DebugTable = "Priorities_Test"
	cfg.Sink.FinalTable = "SoHa_Priorities"
	cfg.Sources.Systems = map[string]SystemConfig{
		"enterprisedatahub": {Driver: "postgres", DSN: "postgres://edh/wells"},
		"ods":               {Driver: "sqlite", DSN: "/data/ods.db"},
		"arrow":             {Driver: "csv", Dir: "/snapshots/arrow"},
	}
	return cfg
}

func TestValidateRun_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("run"))
}

func TestValidateRun_MissingSinkDSN(t *testing.T) {
	cfg := validDefaults()
	cfg.Sink.DSN = ""

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink.dsn is required")

	// Dry runs never write.
	assert.NoError(t, cfg.Validate("dry-run"))
}

func TestValidateRun_UnknownDrivers(t *testing.T) {
	cfg := validDefaults()
	cfg.Sink.Driver = "mssql"
	cfg.Sources.Systems["currentstate"] = SystemConfig{Driver: "odbc"}

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink.driver must be one of")
	assert.Contains(t, err.Error(), "sources.systems.currentstate.driver must be one of")
}

func TestValidateSources_MissingLocations(t *testing.T) {
	cfg := validDefaults()
	cfg.Sources.Systems["arrow"] = SystemConfig{Driver: "csv"}
	cfg.Sources.Systems["ods"] = SystemConfig{Driver: "sqlite"}

	err := cfg.Validate("sources")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sources.systems.arrow.dir is required")
	assert.Contains(t, err.Error(), "sources.systems.ods.dsn is required")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Priorities.MaxConcurrency = 0
	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrency must be between 1 and 50")

	cfg.Priorities.MaxConcurrency = 51
	assert.Error(t, cfg.Validate("run"))

	cfg.Priorities.MaxConcurrency = 50
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateRuns_FallsBackToSinkDSN(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("runs"))

	cfg.Sink.Driver = "sqlite"
	err := cfg.Validate("runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runlog.dsn is required")

	cfg.RunLog.DSN = "postgres://localhost/runs"
	assert.NoError(t, cfg.Validate("runs"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestRequireSystems(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.RequireSystems("EnterpriseDataHub", "ODS", "Arrow"))

	err := cfg.RequireSystems("ODS", "CurrentState")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CurrentState")
}
