package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	SEC     SECConfig     `yaml:"sec" mapstructure:"sec"`
	Finnhub FinnhubConfig `yaml:"finnhub" mapstructure:"finnhub"`
	Scan    ScanConfig    `yaml:"scan" mapstructure:"scan"`
	Archive ArchiveConfig `yaml:"archive" mapstructure:"archive"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// SECConfig holds SEC EDGAR access settings. EDGAR rejects anonymous
// clients with 403, so UserAgent must identify the caller.
type SECConfig struct {
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}

// FinnhubConfig holds Finnhub API credentials and rate limits.
type FinnhubConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `yaml:"burst" mapstructure:"burst"`
}

// ScanConfig configures the batch scan. SectorLimitsPath optionally
// points to a YAML file of debt to equity overrides.
type ScanConfig struct {
	OutputDir        string `yaml:"output_dir" mapstructure:"output_dir"`
	CheckpointPath   string `yaml:"checkpoint_path" mapstructure:"checkpoint_path"`
	Concurrency      int    `yaml:"concurrency" mapstructure:"concurrency"`
	AnnualYears      int    `yaml:"annual_years" mapstructure:"annual_years"`
	Quarters         int    `yaml:"quarters" mapstructure:"quarters"`
	SectorLimitsPath string `yaml:"sector_limits_path" mapstructure:"sector_limits_path"`
}

// ArchiveConfig configures raw payload archival.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the read-only record API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("SCREENER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "screener.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("sec.user_agent", "Sells Advisors blake@sellsadvisors.com")
	v.SetDefault("sec.rate_limit", 10)
	v.SetDefault("sec.burst", 10)
	v.SetDefault("finnhub.base_url", "https://finnhub.io/api/v1")
	v.SetDefault("finnhub.rate_limit", 30)
	v.SetDefault("finnhub.burst", 30)
	v.SetDefault("scan.output_dir", ".")
	v.SetDefault("scan.checkpoint_path", "checkpoint.json")
	v.SetDefault("scan.concurrency", 4)
	v.SetDefault("scan.annual_years", 7)
	v.SetDefault("scan.quarters", 10)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.dir", "data/archive")

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
