package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Bot transport modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config stores all configuration for the application.
type Config struct {
	Environment string
	LogLevel    string

	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Bot      BotConfig
	Settings SettingsConfig
	Worker   WorkerConfig

	// WatermarkEngine names the registered watermarking engine to use.
	WatermarkEngine string
}

// BotConfig holds Telegram settings.
type BotConfig struct {
	Token         string
	Mode          string
	WebhookURL    string
	WebhookSecret string
	APIURL        string
	// ArchiveChatID receives a copy of every upload. Zero disables archival.
	ArchiveChatID int64
	// RequireSettings blocks uploads until the user ran /set_watermark.
	RequireSettings bool
}

// SettingsConfig selects and configures the per-user settings store.
type SettingsConfig struct {
	File  string
	Watch bool
	// DatabaseURL switches settings and history to Postgres when set.
	DatabaseURL string
}

// WorkerConfig holds queue and upload limits.
type WorkerConfig struct {
	TempDir     string
	QueueSize   int
	MaxFileSize int64
	UploadRate  float64
	UploadBurst int
}

// Load reads configuration from command-line flags, environment variables,
// a .env file and defaults, in that order of precedence.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with an explicit argument list.
func LoadArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("stampbot", flag.ContinueOnError)
	envFile := fs.String("env-file", ".env", "Path to .env file")
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	port := fs.String("port", "", "HTTP port (default: 8080)")
	mode := fs.String("mode", "", "Bot transport: polling or webhook")
	settingsFile := fs.String("settings-file", "", "Path to the settings JSON file")
	tempDir := fs.String("temp-dir", "", "Directory for temporary overlay files")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (useful for local development)
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		Environment:     getConfigValue(*env, "ENV", "development"),
		LogLevel:        getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		Port:            getConfigValue(*port, "API_PORT", "8080"),
		WatermarkEngine: getConfigValue("", "WATERMARK_ENGINE", "overlay"),
		Bot: BotConfig{
			Token:           os.Getenv("BOT_TOKEN"),
			Mode:            strings.ToLower(getConfigValue(*mode, "BOT_MODE", ModePolling)),
			WebhookURL:      os.Getenv("WEBHOOK_URL"),
			WebhookSecret:   os.Getenv("WEBHOOK_SECRET"),
			APIURL:          strings.TrimRight(getConfigValue("", "TELEGRAM_API_URL", "https://api.telegram.org"), "/"),
			RequireSettings: getBoolConfigValue("REQUIRE_SETTINGS", true),
		},
		Settings: SettingsConfig{
			File:        getConfigValue(*settingsFile, "SETTINGS_FILE", "settings.json"),
			Watch:       getBoolConfigValue("SETTINGS_WATCH", false),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Worker: WorkerConfig{
			TempDir:     getConfigValue(*tempDir, "TEMP_DIR", os.TempDir()),
			QueueSize:   getIntConfigValue("QUEUE_SIZE", 100),
			MaxFileSize: int64(getIntConfigValue("MAX_FILE_SIZE", 20*1024*1024)),
			UploadRate:  getFloatConfigValue("UPLOAD_RATE", 0.2),
			UploadBurst: getIntConfigValue("UPLOAD_BURST", 3),
		},
	}

	var err error
	if v := os.Getenv("ARCHIVE_CHAT_ID"); v != "" {
		cfg.Bot.ArchiveChatID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ARCHIVE_CHAT_ID %q: %w", v, err)
		}
	}

	if cfg.ReadTimeout, err = getDurationConfigValue("SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = getDurationConfigValue("SERVER_WRITE_TIMEOUT", "120s"); err != nil {
		return nil, err
	}
	if cfg.IdleTimeout, err = getDurationConfigValue("SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required values are present and consistent.
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.Environment)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.Bot.Token == "" {
		return errors.New("BOT_TOKEN is required")
	}

	switch c.Bot.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Bot.WebhookURL == "" {
			return errors.New("WEBHOOK_URL is required in webhook mode")
		}
		if c.Bot.WebhookSecret == "" {
			return errors.New("WEBHOOK_SECRET is required in webhook mode")
		}
	default:
		return fmt.Errorf("invalid bot mode: %s (must be polling or webhook)", c.Bot.Mode)
	}

	if c.Settings.DatabaseURL == "" && c.Settings.File == "" {
		return errors.New("SETTINGS_FILE cannot be empty without DATABASE_URL")
	}
	if c.Worker.QueueSize <= 0 {
		return fmt.Errorf("QUEUE_SIZE must be positive, got %d", c.Worker.QueueSize)
	}
	if c.Worker.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Worker.MaxFileSize)
	}
	if c.Worker.UploadRate <= 0 || c.Worker.UploadBurst <= 0 {
		return errors.New("UPLOAD_RATE and UPLOAD_BURST must be positive")
	}
	return nil
}

// WebhookPath is the HTTP path Telegram posts updates to.
func (c *Config) WebhookPath() string {
	return "/webhook/" + c.Bot.WebhookSecret
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (case-insensitive) as true.
func getBoolConfigValue(envKey string, defaultValue bool) bool {
	v := strings.ToLower(os.Getenv(envKey))
	if v == "" {
		return defaultValue
	}
	return v == "true" || v == "1" || v == "yes"
}

func getIntConfigValue(envKey string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(envKey)); err == nil {
		return v
	}
	return defaultValue
}

func getFloatConfigValue(envKey string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(envKey), 64); err == nil {
		return v
	}
	return defaultValue
}

func getDurationConfigValue(envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue("", envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, s, err)
	}
	return d, nil
}
