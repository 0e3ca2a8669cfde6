package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"sessionchart/internal/logging"
)

const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Source   SourceConfig   `mapstructure:"source"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Database DatabaseConfig `mapstructure:"database"`
	Live     LiveConfig     `mapstructure:"live"`
	Average  AverageConfig  `mapstructure:"average"`
	Chart    ChartConfig    `mapstructure:"chart"`
	Alerting AlertingConfig `mapstructure:"alerting"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Timezone    string `mapstructure:"timezone"`
}

// SourceConfig selects where session data comes from.
type SourceConfig struct {
	Kind string `mapstructure:"kind"`
}

// BackendConfig covers the dashboard HTTP backend.
type BackendConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// DatabaseConfig encapsulates read-only PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LiveConfig governs the live feed poller.
type LiveConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
	OutputPNG     string        `mapstructure:"output_png"`
	SnapshotLimit int           `mapstructure:"snapshot_limit"`
}

// AverageConfig tunes the multi-session average.
type AverageConfig struct {
	Field       string `mapstructure:"field"`
	Concurrency int    `mapstructure:"concurrency"`
}

// ChartConfig sets rendered image dimensions.
type ChartConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// AlertingConfig defines change-event notification routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SESSIONCHART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sessionchart")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.timezone", "Local")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("source.kind", SourceHTTP)

	v.SetDefault("backend.base_url", "http://127.0.0.1:5000")
	v.SetDefault("backend.request_timeout", "30s")
	v.SetDefault("backend.user_agent", "sessionchart/1.0")

	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("live.interval", "30s")
	v.SetDefault("live.align_to_bucket", false)
	v.SetDefault("live.startup_delay", "0s")
	v.SetDefault("live.output_png", "out/live.png")
	v.SetDefault("live.snapshot_limit", 2000)

	v.SetDefault("average.field", "prf")
	v.SetDefault("average.concurrency", 0)

	v.SetDefault("chart.width", 1280)
	v.SetDefault("chart.height", 720)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceHTTP:
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("backend.base_url is required for source.kind=http")
		}
	case SourcePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for source.kind=postgres")
		}
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", SourceHTTP, SourcePostgres, c.Source.Kind)
	}
	if c.Live.Interval <= 0 {
		return fmt.Errorf("live.interval must be greater than zero")
	}
	if c.Live.SnapshotLimit <= 0 {
		return fmt.Errorf("live.snapshot_limit must be greater than zero")
	}
	if c.Average.Field == "" {
		return fmt.Errorf("average.field must not be empty")
	}
	if c.Average.Concurrency < 0 {
		return fmt.Errorf("average.concurrency cannot be negative")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be greater than zero")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// Location resolves app.timezone; empty or "Local" means the host zone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.App.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("app.timezone: %w", err)
	}
	return loc, nil
}

// ResolveField returns either the CLI override or the configured average field.
func (c *Config) ResolveField(override string) string {
	if override != "" {
		return override
	}
	return c.Average.Field
}
