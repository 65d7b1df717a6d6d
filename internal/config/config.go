package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"AgriGenie/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. AGRIGENIE_SERVER_ADDR.
const EnvPrefix = "AGRIGENIE"

// DefaultResourceURL is the data.gov.in daily mandi price resource.
const DefaultResourceURL = "https://api.data.gov.in/resource/9ef84268-d588-465a-a308-a864a43d0070"

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr         string        `yaml:"addr" envconfig:"addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"write_timeout"`
	} `yaml:"server" envconfig:"server"`
	DataSource struct {
		ResourceURL string  `yaml:"resource_url" envconfig:"resource_url" validate:"required,url"`
		APIKey      string  `yaml:"api_key" envconfig:"api_key"`
		Limit       int     `yaml:"limit" envconfig:"limit" validate:"gte=1,lte=500"`
		RatePerSec  float64 `yaml:"rate_per_sec" envconfig:"rate_per_sec" validate:"gt=0"`
		Concurrency int     `yaml:"concurrency" envconfig:"concurrency" validate:"gte=1,lte=32"`
	} `yaml:"data_source" envconfig:"data_source"`
	Watchlist []model.MarketQuery `yaml:"watchlist" ignored:"true" validate:"dive"`
	Schedule  struct {
		RefreshCron    string  `yaml:"refresh_cron" envconfig:"refresh_cron"`
		DigestCron     string  `yaml:"digest_cron" envconfig:"digest_cron"`
		AlertThreshold float64 `yaml:"alert_threshold" envconfig:"alert_threshold" validate:"gte=0"`
	} `yaml:"schedule" envconfig:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"bot_token"`
		ChatID   string `yaml:"chat_id" envconfig:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram" envconfig:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"sqlite_path"`
	} `yaml:"database" envconfig:"database"`
	Log struct {
		Level string `yaml:"level" envconfig:"level" validate:"omitempty,oneof=debug info warn error"`
	} `yaml:"log" envconfig:"log"`
	Proxy string `yaml:"proxy" envconfig:"proxy"`
}

// Default alert threshold and database path. Both are preset before the
// YAML decode so an explicit 0 or "" in the file survives: a zero threshold
// disables alerts and an empty path selects the no-op recorder.
const (
	DefaultAlertThreshold = 5.0
	DefaultSQLitePath     = "data/agrigenie.db"
)

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Schedule.AlertThreshold = DefaultAlertThreshold
	cfg.Database.SQLitePath = DefaultSQLitePath

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	// Conventional proxy variable wins when no explicit override is set.
	if cfg.Proxy == "" {
		cfg.Proxy = os.Getenv("HTTPS_PROXY")
	}
	if v := os.Getenv("DATA_GOV_API_KEY"); v != "" && cfg.DataSource.APIKey == "" {
		cfg.DataSource.APIKey = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 45 * time.Second
	}
	if c.DataSource.ResourceURL == "" {
		c.DataSource.ResourceURL = DefaultResourceURL
	}
	if c.DataSource.Limit == 0 {
		c.DataSource.Limit = 100
	}
	if c.DataSource.RatePerSec == 0 {
		c.DataSource.RatePerSec = 2
	}
	if c.DataSource.Concurrency == 0 {
		c.DataSource.Concurrency = 4
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 30 */3 * * *"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 8 * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	for i := range c.Watchlist {
		c.Watchlist[i].State = strings.TrimSpace(c.Watchlist[i].State)
		c.Watchlist[i].Commodity = strings.TrimSpace(c.Watchlist[i].Commodity)
	}
}

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
