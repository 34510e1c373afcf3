package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/station-search/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	NCEI   NCEIConfig   `yaml:"ncei" mapstructure:"ncei"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// NCEIConfig configures the NCEI access services client.
type NCEIConfig struct {
	BaseURL       string      `yaml:"base_url" mapstructure:"base_url"`
	MinIntervalMs int         `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	TimeoutSecs   int         `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent     string      `yaml:"user_agent" mapstructure:"user_agent"`
	Retry         RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// MinInterval returns the spacing between outbound requests.
func (c NCEIConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMs) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout.
func (c NCEIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RetryConfig configures retries of transient provider failures.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// Resilience converts the settings for the resilience package.
func (c RetryConfig) Resilience() resilience.RetryConfig {
	return resilience.FromRetryConfig(c.MaxAttempts, c.InitialBackoffMs, c.MaxBackoffMs, c.Multiplier, c.JitterFraction)
}

// SearchConfig bounds the expanding station search.
type SearchConfig struct {
	InitialHalfLengthKM float64 `yaml:"initial_half_length_km" mapstructure:"initial_half_length_km"`
	MaxHalfLengthKM     float64 `yaml:"max_half_length_km" mapstructure:"max_half_length_km"`
}

// OutputConfig names where artifacts are written.
type OutputConfig struct {
	Root         string `yaml:"root" mapstructure:"root"`
	StationsPath string `yaml:"stations_path" mapstructure:"stations_path"`
	DataPath     string `yaml:"data_path" mapstructure:"data_path"`
	DumpPath     string `yaml:"dump_path" mapstructure:"dump_path"`
}

// FetchConfig configures station data downloads.
type FetchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures the run log database.
type StoreConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`
	Disabled bool   `yaml:"disabled" mapstructure:"disabled"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ncei.base_url", "https://www.ncei.noaa.gov/access/services")
	v.SetDefault("ncei.min_interval_ms", 100)
	v.SetDefault("ncei.timeout_secs", 60)
	v.SetDefault("ncei.user_agent", "station-search/1.0")
	v.SetDefault("ncei.retry.max_attempts", 3)
	v.SetDefault("ncei.retry.initial_backoff_ms", 500)
	v.SetDefault("ncei.retry.max_backoff_ms", 10000)
	v.SetDefault("ncei.retry.multiplier", 2.0)
	v.SetDefault("ncei.retry.jitter_fraction", 0.25)
	v.SetDefault("search.initial_half_length_km", 1.0)
	v.SetDefault("search.max_half_length_km", 100.0)
	v.SetDefault("output.root", "output")
	v.SetDefault("output.stations_path", "data/stations_sorted.json")
	v.SetDefault("output.data_path", "data/stations")
	v.SetDefault("output.dump_path", "data/raw")
	v.SetDefault("fetch.concurrency", 4)
	v.SetDefault("store.path", "data/runs.db")
	v.SetDefault("store.disabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command needs. mode is the command name.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "search", "fetch", "batch":
		if c.NCEI.BaseURL == "" {
			errs = append(errs, "ncei.base_url is required")
		}
		if c.NCEI.MinIntervalMs < 0 {
			errs = append(errs, "ncei.min_interval_ms must be >= 0")
		}
		if c.NCEI.TimeoutSecs <= 0 {
			errs = append(errs, "ncei.timeout_secs must be > 0")
		}
		if c.Fetch.Concurrency < 1 || c.Fetch.Concurrency > 32 {
			errs = append(errs, "fetch.concurrency must be between 1 and 32")
		}
		if mode != "fetch" {
			errs = append(errs, c.validateSearch()...)
		}
	case "report", "runs", "config":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateSearch() []string {
	var errs []string
	if c.Search.InitialHalfLengthKM <= 0 {
		errs = append(errs, "search.initial_half_length_km must be > 0")
	}
	if c.Search.MaxHalfLengthKM < 1 {
		errs = append(errs, "search.max_half_length_km must be >= 1")
	}
	if c.Search.InitialHalfLengthKM > c.Search.MaxHalfLengthKM {
		errs = append(errs, "search.initial_half_length_km must not exceed search.max_half_length_km")
	}
	return errs
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
