package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	TelegramToken string
	AdminID       int64
	ChannelID     int64

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // Public base URL (required if WebhookMode is true)
	Port        int

	// Storage selection: sqlite, file or mock
	Storage    string
	SQLitePath string
	DataFile   string

	// Policy knobs
	PublishCooldown time.Duration // 0 disables rate limiting
	SessionTimeout  time.Duration

	Debug bool
}

var once sync.Once

func initViper() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("admin_id", "ADMIN_ID")
		viper.BindEnv("channel_id", "CHANNEL_ID")
		viper.BindEnv("webhook_mode", "WEBHOOK_MODE")
		viper.BindEnv("webhook_url", "WEBHOOK_URL")
		viper.BindEnv("port", "PORT")
		viper.BindEnv("storage", "STORAGE")
		viper.BindEnv("sqlite_path", "SQLITE_PATH")
		viper.BindEnv("data_file", "DATA_FILE")
		viper.BindEnv("publish_cooldown", "PUBLISH_COOLDOWN")
		viper.BindEnv("session_timeout", "SESSION_TIMEOUT")
		viper.BindEnv("debug", "DEBUG")

		viper.SetDefault("port", 8080)
		viper.SetDefault("storage", "sqlite")
		viper.SetDefault("sqlite_path", "data/bot.db")
		viper.SetDefault("data_file", "data/data.json")
		viper.SetDefault("publish_cooldown", "72h")
		viper.SetDefault("session_timeout", "30m")
		viper.SetDefault("webhook_mode", false)
		viper.SetDefault("debug", false)
	})
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	initViper()

	cfg := &Config{
		TelegramToken:   viper.GetString("telegram_bot_token"),
		AdminID:         viper.GetInt64("admin_id"),
		ChannelID:       viper.GetInt64("channel_id"),
		WebhookMode:     viper.GetBool("webhook_mode"),
		WebhookURL:      viper.GetString("webhook_url"),
		Port:            viper.GetInt("port"),
		Storage:         viper.GetString("storage"),
		SQLitePath:      viper.GetString("sqlite_path"),
		DataFile:        viper.GetString("data_file"),
		PublishCooldown: viper.GetDuration("publish_cooldown"),
		SessionTimeout:  viper.GetDuration("session_timeout"),
		Debug:           viper.GetBool("debug"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.AdminID == 0 {
		return nil, fmt.Errorf("ADMIN_ID is required")
	}
	if cfg.ChannelID == 0 {
		return nil, fmt.Errorf("CHANNEL_ID is required")
	}
	if cfg.WebhookMode && cfg.WebhookURL == "" {
		return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
	}
	switch cfg.Storage {
	case "sqlite", "file", "mock":
	default:
		return nil, fmt.Errorf("invalid STORAGE %q (expected sqlite, file or mock)", cfg.Storage)
	}
	if cfg.SessionTimeout <= 0 {
		return nil, fmt.Errorf("SESSION_TIMEOUT must be positive")
	}

	return cfg, nil
}
