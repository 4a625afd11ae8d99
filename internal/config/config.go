package config

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Sources    SourcesConfig    `yaml:"sources" mapstructure:"sources"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Priorities PrioritiesConfig `yaml:"priorities" mapstructure:"priorities"`
	Sink       SinkConfig       `yaml:"sink" mapstructure:"sink"`
	Archive    ArchiveConfig    `yaml:"archive" mapstructure:"archive"`
	RunLog     RunLogConfig     `yaml:"runlog" mapstructure:"runlog"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SourcesConfig configures the upstream data systems and the query catalog.
type SourcesConfig struct {
	CatalogPath      string                  `yaml:"catalog_path" mapstructure:"catalog_path"`
	QueryDir         string                  `yaml:"query_dir" mapstructure:"query_dir"`
	FetchTimeoutSecs int                     `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	Systems          map[string]SystemConfig `yaml:"systems" mapstructure:"systems"`
}

// System returns the backend for a system name. Viper lowercases map keys,
// so the lookup ignores case.
func (s SourcesConfig) System(name string) (SystemConfig, bool) {
	sys, ok := s.Systems[strings.ToLower(name)]
	if ok {
		return sys, true
	}
	for k, v := range s.Systems {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return SystemConfig{}, false
}

// SystemConfig configures one upstream system backend.
type SystemConfig struct {
	Driver     string  `yaml:"driver" mapstructure:"driver"` // postgres, sqlite, csv
	DSN        string  `yaml:"dsn" mapstructure:"dsn"`
	Dir        string  `yaml:"dir" mapstructure:"dir"` // csv snapshot directory
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst      int     `yaml:"burst" mapstructure:"burst"`
}

// ResilienceConfig configures per-fetch retry and per-system circuit breaking.
type ResilienceConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// PrioritiesConfig configures the scorers.
type PrioritiesConfig struct {
	SiteManager       string                  `yaml:"site_manager" mapstructure:"site_manager"`
	DefermentAssignee string                  `yaml:"deferment_assignee" mapstructure:"deferment_assignee"`
	MaxConcurrency    int                     `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	Scorers           map[string]ScorerToggle `yaml:"scorers" mapstructure:"scorers"`
}

// ScorerToggle switches a single scorer on or off.
type ScorerToggle struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// Enabled reports whether the named scorer should run. Scorers missing from
// the map run.
func (p PrioritiesConfig) Enabled(name string) bool {
	t, ok := p.Scorers[strings.ToLower(name)]
	if !ok {
		return true
	}
	return t.Enabled
}

// SinkConfig configures where the output tables are written.
type SinkConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // postgres, sqlite, none
	DSN         string `yaml:"dsn" mapstructure:"dsn"`
	DebugSchema string `yaml:"debug_schema" mapstructure:"debug_schema"`
	DebugTable  string `yaml:"debug_table" mapstructure:"debug_table"`
	FinalSchema string `yaml:"final_schema" mapstructure:"final_schema"`
	FinalTable  string `yaml:"final_table" mapstructure:"final_table"`
}

// ArchiveConfig configures the S3 copy of each written table. An empty
// bucket disables archiving.
type ArchiveConfig struct {
	Bucket   string `yaml:"bucket" mapstructure:"bucket"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
	Region   string `yaml:"region" mapstructure:"region"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
}

// RunLogConfig configures the run history table.
type RunLogConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
}

// MonitoringConfig configures alert delivery and metric pushes.
type MonitoringConfig struct {
	WebhookURL     string `yaml:"webhook_url" mapstructure:"webhook_url"`
	PushgatewayURL string `yaml:"pushgateway_url" mapstructure:"pushgateway_url"`
	Job            string `yaml:"job" mapstructure:"job"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SOHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("sources.catalog_path", "")
	v.SetDefault("sources.query_dir", "queries")
	v.SetDefault("sources.fetch_timeout_secs", 120)
	v.SetDefault("resilience.max_attempts", 1)
	v.SetDefault("resilience.initial_backoff_ms", 500)
	v.SetDefault("resilience.max_backoff_ms", 30000)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)
	v.SetDefault("priorities.site_manager", "")
	v.SetDefault("priorities.deferment_assignee", "")
	v.SetDefault("priorities.max_concurrency", 5)
	v.SetDefault("priorities.scorers.deferment.enabled", true)
	v.SetDefault("priorities.scorers.work_management.enabled", true)
	v.SetDefault("priorities.scorers.flood.enabled", true)
	v.SetDefault("priorities.scorers.site_inspection.enabled", true)
	v.SetDefault("priorities.scorers.telemetry.enabled", true)
	v.SetDefault("priorities.scorers.cumulative_deferment.enabled", false)
	v.SetDefault("sink.driver", "postgres")
	v.SetDefault("sink.dsn", "")
	v.SetDefault("sink.debug_schema", "SoHa")
	v.SetDefault("sink.debug_table", "Priorities_Test")
	v.SetDefault("sink.final_schema", "VRP_Details")
	v.SetDefault("sink.final_table", "SoHa_Priorities")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "soha-priorities")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.access_key_id", "")
	v.SetDefault("archive.secret_access_key", "")
	v.SetDefault("runlog.enabled", false)
	v.SetDefault("runlog.dsn", "")
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.pushgateway_url", "")
	v.SetDefault("monitoring.job", "soha_priorities")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// RunLogDSN returns the run log database, falling back to the postgres sink.
func (c *Config) RunLogDSN() string {
	if c.RunLog.DSN != "" {
		return c.RunLog.DSN
	}
	if c.Sink.Driver == "postgres" {
		return c.Sink.DSN
	}
	return ""
}

// Validate checks the settings a command needs. Modes: "run", "dry-run",
// "runs", "sources".
func (c *Config) Validate(mode string) error {
	var errs []string

	checkSystems := func() {
		names := make([]string, 0, len(c.Sources.Systems))
		for name := range c.Sources.Systems {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sys := c.Sources.Systems[name]
			switch sys.Driver {
			case "postgres", "sqlite":
				if sys.DSN == "" {
					errs = append(errs, "sources.systems."+name+".dsn is required")
				}
			case "csv":
				if sys.Dir == "" {
					errs = append(errs, "sources.systems."+name+".dir is required")
				}
			default:
				errs = append(errs, "sources.systems."+name+".driver must be one of postgres, sqlite, csv")
			}
			if sys.RatePerSec < 0 {
				errs = append(errs, "sources.systems."+name+".rate_per_sec must be >= 0")
			}
		}
		if c.Sources.FetchTimeoutSecs < 0 {
			errs = append(errs, "sources.fetch_timeout_secs must be >= 0")
		}
	}

	checkPipeline := func() {
		if c.Priorities.MaxConcurrency < 1 || c.Priorities.MaxConcurrency > 50 {
			errs = append(errs, "priorities.max_concurrency must be between 1 and 50")
		}
		if c.Resilience.MaxAttempts < 1 {
			errs = append(errs, "resilience.max_attempts must be >= 1")
		}
	}

	checkSink := func() {
		switch c.Sink.Driver {
		case "postgres", "sqlite":
			if c.Sink.DSN == "" {
				errs = append(errs, "sink.dsn is required")
			}
		case "none":
		default:
			errs = append(errs, "sink.driver must be one of postgres, sqlite, none")
		}
		if c.Sink.DebugTable == "" || c.Sink.FinalTable == "" {
			errs = append(errs, "sink.debug_table and sink.final_table are required")
		}
	}

	switch mode {
	case "run":
		checkSystems()
		checkPipeline()
		checkSink()
	case "dry-run":
		checkSystems()
		checkPipeline()
	case "runs":
		if c.RunLogDSN() == "" {
			errs = append(errs, "runlog.dsn is required")
		}
	case "sources":
		checkSystems()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.RunLog.Enabled && c.RunLogDSN() == "" {
		errs = append(errs, "runlog.dsn is required when runlog.enabled is set")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RequireSystems checks that every named system has a backend configured.
func (c *Config) RequireSystems(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := c.Sources.System(n); !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return eris.Errorf("config: sources.systems missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
