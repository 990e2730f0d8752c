// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/about-harvester/internal/scraper"
)

const defaultNavigationTimeout = 45 * time.Second

// Storage backends accepted by storage.backend.
const (
	BackendLocal    = "local"
	BackendMemory   = "memory"
	BackendGCS      = "gcs"
	BackendPostgres = "postgres"
)

// Config captures all knobs loaded via Viper.
type Config struct {
	Scraper       ScraperConfig       `mapstructure:"scraper"`
	Consent       ConsentConfig       `mapstructure:"consent"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Storage       StorageConfig       `mapstructure:"storage"`
	DB            DBConfig            `mapstructure:"db"`
	PubSub        PubSubConfig        `mapstructure:"pubsub"`
}

// ScraperConfig governs browser sessions and page handling.
type ScraperConfig struct {
	Browsers          int           `mapstructure:"browsers"`
	Headless          bool          `mapstructure:"headless"`
	ProfileDir        string        `mapstructure:"profile_dir"`
	ExecPath          string        `mapstructure:"exec_path"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	AcceptLanguage    string        `mapstructure:"accept_language"`
	Platform          string        `mapstructure:"platform"`
	BlockedURLs       []string      `mapstructure:"blocked_urls"`
	ResourceEvery     int           `mapstructure:"resource_every"`
}

// ConsentConfig toggles the slower consent strategy.
type ConsentConfig struct {
	FallbackEnabled bool `mapstructure:"fallback_enabled"`
}

// ObservabilityConfig controls resource logging and the metrics endpoint.
type ObservabilityConfig struct {
	LogResources bool   `mapstructure:"log_resources"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

// LoggingConfig toggles zap development features and file output.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// StorageConfig selects where output records are written.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := scraper.DefaultConfig()
	v.SetDefault("scraper.browsers", def.Workers)
	v.SetDefault("scraper.headless", def.Headless)
	v.SetDefault("scraper.profile_dir", def.ProfileDir)
	v.SetDefault("scraper.exec_path", "")
	v.SetDefault("scraper.settle_delay", def.SettleDelay)
	v.SetDefault("scraper.navigation_timeout", defaultNavigationTimeout)
	v.SetDefault("scraper.user_agent", def.Emulation.UserAgent)
	v.SetDefault("scraper.accept_language", def.Emulation.AcceptLanguage)
	v.SetDefault("scraper.platform", def.Emulation.Platform)
	v.SetDefault("scraper.blocked_urls", def.BlockedURLs)
	v.SetDefault("scraper.resource_every", def.ResourceEvery)
	v.SetDefault("consent.fallback_enabled", false)
	v.SetDefault("observability.log_resources", true)
	v.SetDefault("observability.metrics_addr", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "")
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.base_dir", "data")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("db.table", "about_records")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scraper.Browsers <= 0 {
		return fmt.Errorf("scraper.browsers must be > 0")
	}
	if c.Scraper.SettleDelay < 0 {
		return fmt.Errorf("scraper.settle_delay must be >= 0")
	}
	if c.Scraper.NavigationTimeout < 0 {
		return fmt.Errorf("scraper.navigation_timeout must be >= 0")
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir must be set for the local backend")
		}
	case BackendMemory:
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
		}
	case BackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	return nil
}

// ScraperSettings converts the loaded values into the pipeline's Config.
func (c Config) ScraperSettings() scraper.Config {
	cfg := scraper.DefaultConfig()
	cfg.Workers = c.Scraper.Browsers
	cfg.Headless = c.Scraper.Headless
	cfg.ProfileDir = c.Scraper.ProfileDir
	cfg.ExecPath = c.Scraper.ExecPath
	cfg.SettleDelay = c.Scraper.SettleDelay
	if c.Scraper.UserAgent != "" {
		cfg.Emulation.UserAgent = c.Scraper.UserAgent
	}
	if c.Scraper.AcceptLanguage != "" {
		cfg.Emulation.AcceptLanguage = c.Scraper.AcceptLanguage
	}
	if c.Scraper.Platform != "" {
		cfg.Emulation.Platform = c.Scraper.Platform
	}
	if c.Scraper.BlockedURLs != nil {
		cfg.BlockedURLs = append([]string(nil), c.Scraper.BlockedURLs...)
	}
	if c.Scraper.ResourceEvery > 0 {
		cfg.ResourceEvery = c.Scraper.ResourceEvery
	}
	cfg.ConsentFallback = c.Consent.FallbackEnabled
	cfg.Topic = c.PubSub.TopicName
	return cfg
}
