// Package config loads and validates scraper service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Snapshots SnapshotsConfig `mapstructure:"snapshots"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ScraperConfig governs the crawl pipeline.
type ScraperConfig struct {
	BaseURL          string   `mapstructure:"base_url"`
	Cities           []string `mapstructure:"cities"`
	PerCityLimit     int      `mapstructure:"per_city_limit"`
	UserAgent        string   `mapstructure:"user_agent"`
	CityDelaySeconds int      `mapstructure:"city_delay_seconds"`
	ProbeTimeoutSec  int      `mapstructure:"probe_timeout_seconds"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	NavTimeoutSec  int `mapstructure:"nav_timeout_seconds"`
	SettleDelaySec int `mapstructure:"settle_delay_seconds"`
}

// MongoConfig controls access to the document store.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	TimeoutSec int    `mapstructure:"timeout_seconds"`
}

// ScheduleConfig controls the daily crawl trigger.
type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

// SnapshotsConfig controls debug HTML snapshots written when selector
// discovery comes up empty.
type SnapshotsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseDir string `mapstructure:"base_dir"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("scraper.base_url", "https://goout.net/cs")
	v.SetDefault("scraper.cities", []string{"praha", "brno", "ostrava"})
	v.SetDefault("scraper.per_city_limit", 50)
	v.SetDefault("scraper.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("scraper.city_delay_seconds", 2)
	v.SetDefault("scraper.probe_timeout_seconds", 15)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("headless.settle_delay_seconds", 3)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "events")
	v.SetDefault("mongo.timeout_seconds", 10)
	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.cron", "0 3 * * *")
	v.SetDefault("snapshots.enabled", false)
	v.SetDefault("snapshots.base_dir", "./snapshots")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url must be set")
	}
	if len(c.Scraper.Cities) == 0 {
		return fmt.Errorf("scraper.cities must not be empty")
	}
	if c.Scraper.PerCityLimit <= 0 {
		return fmt.Errorf("scraper.per_city_limit must be > 0")
	}
	if c.Headless.NavTimeoutSec <= 0 {
		return fmt.Errorf("headless.nav_timeout_seconds must be > 0")
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri must be set")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Schedule.Enabled && c.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron must be set when schedule is enabled")
	}
	return nil
}

// NavTimeout returns the headless navigation timeout as a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}

// SettleDelay returns the post-navigation settle delay as a duration.
func (c Config) SettleDelay() time.Duration {
	return time.Duration(c.Headless.SettleDelaySec) * time.Second
}

// CityDelay returns the inter-city politeness delay as a duration.
func (c Config) CityDelay() time.Duration {
	return time.Duration(c.Scraper.CityDelaySeconds) * time.Second
}

// ProbeTimeout returns the plain-HTTP probe timeout as a duration.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Scraper.ProbeTimeoutSec) * time.Second
}

// MongoTimeout returns the store connection timeout as a duration.
func (c Config) MongoTimeout() time.Duration {
	return time.Duration(c.Mongo.TimeoutSec) * time.Second
}

// ListingURL builds the listing page URL for one city.
func (c Config) ListingURL(city string) string {
	return fmt.Sprintf("%s/%s/akce/", strings.TrimRight(c.Scraper.BaseURL, "/"), city)
}
