// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/leadgen-cli/internal/qualify"
)

// Config holds the full application configuration.
type Config struct {
	ZoomInfo   ZoomInfoConfig   `yaml:"zoominfo" mapstructure:"zoominfo"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	Qualify    qualify.Criteria `yaml:"qualify" mapstructure:"qualify"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ZoomInfoConfig holds enrichment API credentials. APIKey takes precedence
// over username/password.
type ZoomInfoConfig struct {
	APIKey        string  `yaml:"api_key" mapstructure:"api_key"`
	Username      string  `yaml:"username" mapstructure:"username"`
	Password      string  `yaml:"password" mapstructure:"password"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// EnrichConfig configures the batch enrichment loop.
type EnrichConfig struct {
	BatchSize     int    `yaml:"batch_size" mapstructure:"batch_size"`
	RetryLimit    int    `yaml:"retry_limit" mapstructure:"retry_limit"`
	MaxWorkers    int    `yaml:"max_workers" mapstructure:"max_workers"`
	BatchDelayMs  int    `yaml:"batch_delay_ms" mapstructure:"batch_delay_ms"`
	PacingDelayMs int    `yaml:"pacing_delay_ms" mapstructure:"pacing_delay_ms"`
	OutputDir     string `yaml:"output_dir" mapstructure:"output_dir"`
	InputDir      string `yaml:"input_dir" mapstructure:"input_dir"`
}

// StoreConfig configures the optional persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// NotionConfig holds Notion export credentials.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// ServerConfig configures the upload/webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and LEADGEN_-prefixed
// environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("zoominfo.base_url", "https://api.zoominfo.com/v1")
	v.SetDefault("zoominfo.rate_per_second", 5.0)
	v.SetDefault("enrich.batch_size", 10)
	v.SetDefault("enrich.retry_limit", 2)
	v.SetDefault("enrich.max_workers", 4)
	v.SetDefault("enrich.batch_delay_ms", 2000)
	v.SetDefault("enrich.pacing_delay_ms", 100)
	v.SetDefault("enrich.output_dir", "output")
	v.SetDefault("enrich.input_dir", "csv_data")
	v.SetDefault("qualify.min_company_size", 50)
	v.SetDefault("qualify.max_company_size", 1000)
	v.SetDefault("qualify.qualified_threshold", 60)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "leadgen.db")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
