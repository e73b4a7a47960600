// Package config defines environment variable keys for configuration.
package config

const (
	// Core (Required)
	EnvTelegramBotToken = "NUNG_TELEGRAM_BOT_TOKEN"

	// Server
	EnvPort            = "NUNG_PORT"
	EnvLogLevel        = "NUNG_LOG_LEVEL"
	EnvShutdownTimeout = "NUNG_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir = "NUNG_DATA_DIR"

	// Scraper
	EnvScheduleBaseURL = "NUNG_SCHEDULE_BASE_URL"
	EnvScraperTimeout  = "NUNG_SCRAPER_TIMEOUT"

	// Bot
	EnvPollTimeout    = "NUNG_POLL_TIMEOUT"
	EnvUserRateBurst  = "NUNG_USER_RATE_BURST"
	EnvUserRateRefill = "NUNG_USER_RATE_REFILL"

	// Metrics Auth
	EnvMetricsUsername = "NUNG_METRICS_USERNAME"
	EnvMetricsPassword = "NUNG_METRICS_PASSWORD"
)
