package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultEndpoint     = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultPollSchedule = "@every 10m"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultRatePerSec   = 1
)

// RequiredKeys lists the environment variables the bot cannot start without, in check order.
var RequiredKeys = []string{"PRACTICUM_TOKEN", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID"}

// OptionalKeys lists the environment variables that fall back to defaults when unset.
var OptionalKeys = []string{
	"PRACTICUM_ENDPOINT",
	"POLL_SCHEDULE",
	"HTTP_TIMEOUT",
	"POLL_FROM_DATE",
	"TELEGRAM_RATE_PER_SEC",
	"TELEGRAM_COMMANDS",
	"DATABASE_URL",
	"LOG_LEVEL",
	"ENVIRONMENT",
}

// ConfigurationError reports a required environment variable that is missing or empty.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("Переменная окружения %s не должна быть пустой", e.Key)
}

// AppConfig holds all configuration for the application
type AppConfig struct {
	PracticumToken     string
	PracticumEndpoint  string
	TelegramToken      string
	TelegramChatID     int64
	TelegramRatePerSec int
	TelegramCommands   bool // Enables long polling for /status and /history
	PollSchedule       string
	PollFromDate       int64 // 0 means "start from now"
	HTTPTimeout        time.Duration
	DatabaseURL        string // Optional; enables the Postgres notification journal
	LogLevel           string
	Environment        string
}

// CheckRequired verifies that every key in RequiredKeys has a non-empty value.
// It returns a *ConfigurationError naming the first offending key.
func CheckRequired(lookup func(string) (string, bool)) error {
	for _, key := range RequiredKeys {
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			return &ConfigurationError{Key: key}
		}
	}
	return nil
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables; a missing file is fine.
	_ = godotenv.Load()

	if err := CheckRequired(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		PracticumToken: strings.TrimSpace(os.Getenv("PRACTICUM_TOKEN")),
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}
	var err error

	cfg.TelegramChatID, err = strconv.ParseInt(strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	cfg.PracticumEndpoint = os.Getenv("PRACTICUM_ENDPOINT")
	if cfg.PracticumEndpoint == "" {
		cfg.PracticumEndpoint = DefaultEndpoint
	}

	cfg.PollSchedule = os.Getenv("POLL_SCHEDULE")
	if cfg.PollSchedule == "" {
		cfg.PollSchedule = DefaultPollSchedule
	}

	cfg.HTTPTimeout = DefaultHTTPTimeout
	if raw := os.Getenv("HTTP_TIMEOUT"); raw != "" {
		cfg.HTTPTimeout, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
		}
		if cfg.HTTPTimeout <= 0 {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must be positive, got %s", raw)
		}
	}

	if raw := os.Getenv("POLL_FROM_DATE"); raw != "" {
		cfg.PollFromDate, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_FROM_DATE: %w", err)
		}
	}

	cfg.TelegramRatePerSec = DefaultRatePerSec
	if raw := os.Getenv("TELEGRAM_RATE_PER_SEC"); raw != "" {
		cfg.TelegramRatePerSec, err = strconv.Atoi(raw)
		if err != nil || cfg.TelegramRatePerSec <= 0 {
			return nil, fmt.Errorf("invalid TELEGRAM_RATE_PER_SEC: %q", raw)
		}
	}

	if raw := os.Getenv("TELEGRAM_COMMANDS"); raw != "" {
		cfg.TelegramCommands, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_COMMANDS: %w", err)
		}
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}
