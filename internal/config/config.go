package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Room      RoomConfig      `mapstructure:"room"`
	PriceFeed PriceFeedConfig `mapstructure:"pricefeed"`
	Database  DatabaseConfig  `mapstructure:"database"`
	FCM       FCMConfig       `mapstructure:"fcm"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	PushInterval time.Duration `mapstructure:"push_interval"`
}

// RoomConfig holds the trade-room backend configuration
type RoomConfig struct {
	APIBaseURL         string        `mapstructure:"api_base_url"`
	Slug               string        `mapstructure:"slug"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	RefreshInterval    time.Duration `mapstructure:"refresh_interval"`
	AlertAutoRefresh   bool          `mapstructure:"alert_auto_refresh"`
	AlertRefreshEvery  time.Duration `mapstructure:"alert_refresh_every"`
	ClosedDisplayLimit int           `mapstructure:"closed_display_limit"`
}

// PriceFeedConfig holds the upstream quote stream configuration
type PriceFeedConfig struct {
	URL            string        `mapstructure:"url"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

// DatabaseConfig holds the optional Postgres configuration. An empty URL
// keeps device tokens in memory.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// FCMConfig holds push-notification configuration
type FCMConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsPath string `mapstructure:"credentials_path"`
}

// TelegramConfig holds Telegram channel configuration
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Load reads configuration from an optional file plus environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("TRADEROOM")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.push_interval", "5s")

	v.SetDefault("room.api_base_url", "http://localhost:9000")
	v.SetDefault("room.slug", "day-trading")
	v.SetDefault("room.request_timeout", "15s")
	v.SetDefault("room.refresh_interval", "30s")
	v.SetDefault("room.alert_auto_refresh", false)
	v.SetDefault("room.alert_refresh_every", "1m")
	v.SetDefault("room.closed_display_limit", 20)

	v.SetDefault("pricefeed.url", "ws://localhost:9001/quotes")
	v.SetDefault("pricefeed.reconnect_delay", "2s")

	v.SetDefault("database.url", "")

	v.SetDefault("fcm.enabled", false)
	v.SetDefault("fcm.credentials_path", "")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Room.APIBaseURL == "" {
		return fmt.Errorf("room.api_base_url is required")
	}
	if c.Room.Slug == "" {
		return fmt.Errorf("room.slug is required")
	}
	if c.Room.RefreshInterval < time.Second {
		return fmt.Errorf("room.refresh_interval must be at least 1 second")
	}
	if c.Room.AlertAutoRefresh && c.Room.AlertRefreshEvery < time.Second {
		return fmt.Errorf("room.alert_refresh_every must be at least 1 second")
	}
	if c.Room.ClosedDisplayLimit < 1 {
		return fmt.Errorf("room.closed_display_limit must be at least 1")
	}
	if c.PriceFeed.URL == "" {
		return fmt.Errorf("pricefeed.url is required")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}
