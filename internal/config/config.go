package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Screening  ScreeningConfig  `yaml:"screening" mapstructure:"screening"`
	MapService MapServiceConfig `yaml:"map_service" mapstructure:"map_service"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ScreeningConfig configures the screening engine and its service clients.
type ScreeningConfig struct {
	// DomainsFile optionally replaces the builtin domain profile.
	DomainsFile string `yaml:"domains_file" mapstructure:"domains_file"`

	// Concurrency bounds how many domains are analyzed in parallel.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// QueryTimeoutSecs is the per-request timeout for feature service calls.
	QueryTimeoutSecs int `yaml:"query_timeout_secs" mapstructure:"query_timeout_secs"`

	// RateLimit is the per-service requests-per-second limit.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`

	// MaxRetries is the total attempt count for transient query failures.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`

	// Shapefiles maps "domain/layer" keys to local shapefile paths used in
	// place of the remote service for that layer.
	Shapefiles map[string]string `yaml:"shapefiles" mapstructure:"shapefiles"`
}

// QueryTimeout returns the feature query timeout as a duration.
func (c ScreeningConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSecs) * time.Second
}

// MapServiceConfig configures the map export collaborator.
type MapServiceConfig struct {
	URL          string  `yaml:"url" mapstructure:"url"`
	Basemap      string  `yaml:"basemap" mapstructure:"basemap"`
	Transparency float64 `yaml:"transparency" mapstructure:"transparency"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENVSCREEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "envscreen.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("screening.concurrency", 4)
	v.SetDefault("screening.query_timeout_secs", 30)
	v.SetDefault("screening.rate_limit", 10.0)
	v.SetDefault("screening.max_retries", 3)
	v.SetDefault("map_service.basemap", "topo")
	v.SetDefault("map_service.transparency", 0.25)
	v.SetDefault("map_service.timeout_secs", 60)

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
