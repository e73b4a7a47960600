// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the server, scraper, and bot front end.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Telegram Bot Configuration
	TelegramBotToken string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Data directory for SQLite database

	// Scraper Configuration
	ScheduleBaseURL string // Timetable site base URL
	ScraperTimeout  time.Duration

	// Bot Configuration (embedded)
	Bot BotConfig

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)
}

// BotConfig holds bot-specific configuration
type BotConfig struct {
	PollTimeout time.Duration // Long-polling timeout for getUpdates

	// Per-user rate limit (token bucket)
	UserRateLimitBurst        float64 // Maximum burst tokens per user
	UserRateLimitRefillPerSec float64 // Tokens refilled per second
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: getEnv(EnvTelegramBotToken, ""),

		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),

		DataDir: getEnv(EnvDataDir, "data"),

		ScheduleBaseURL: getEnv(EnvScheduleBaseURL, "https://dekanat.nung.edu.ua"),
		ScraperTimeout:  getDurationEnv(EnvScraperTimeout, 30*time.Second),

		Bot: BotConfig{
			PollTimeout:               getDurationEnv(EnvPollTimeout, 30*time.Second),
			UserRateLimitBurst:        getFloatEnv(EnvUserRateBurst, 6.0),
			UserRateLimitRefillPerSec: getFloatEnv(EnvUserRateRefill, 0.2), // 1 per 5s
		},

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New(EnvTelegramBotToken+" is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New(EnvPort+" is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New(EnvDataDir+" is required"))
	}
	if c.ScheduleBaseURL == "" {
		errs = append(errs, errors.New(EnvScheduleBaseURL+" is required"))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvScraperTimeout, c.ScraperTimeout))
	}
	if c.Bot.PollTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvPollTimeout, c.Bot.PollTimeout))
	}
	if c.Bot.UserRateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvUserRateBurst, c.Bot.UserRateLimitBurst))
	}
	if c.Bot.UserRateLimitRefillPerSec <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvUserRateRefill, c.Bot.UserRateLimitRefillPerSec))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "settings.db")
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv parses a duration environment variable or returns a default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// getFloatEnv parses a float environment variable or returns a default
func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
