// Package metrics defines the Prometheus instrumentation for the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Scraper metrics
	ScraperRequestsTotal   *prometheus.CounterVec
	ScraperDurationSeconds *prometheus.HistogramVec

	// Parser metrics
	ParseDurationSeconds prometheus.Histogram
	LessonsParsedTotal   prometheus.Counter
	UnclassifiedBlocks   prometheus.Counter

	// Bot metrics
	CommandsTotal          *prometheus.CounterVec
	CommandDurationSeconds *prometheus.HistogramVec

	// Rate limiter metrics
	RateLimiterDropped prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		ScraperRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nung_scraper_requests_total",
				Help: "Total number of timetable fetches by method and status",
			},
			[]string{"method", "status"}, // method: get, post; status: success, error, not_found
		),

		ScraperDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nung_scraper_duration_seconds",
				Help:    "Timetable fetch duration in seconds by method",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"method"},
		),

		ParseDurationSeconds: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nung_parse_duration_seconds",
				Help:    "Schedule page parse duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),

		LessonsParsedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "nung_lessons_parsed_total",
				Help: "Total number of lesson records produced by the parser",
			},
		),

		UnclassifiedBlocks: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "nung_unclassified_blocks_total",
				Help: "Total number of lesson blocks with no recognizable subject",
			},
		),

		CommandsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nung_bot_commands_total",
				Help: "Total number of bot commands by command and status",
			},
			[]string{"command", "status"}, // status: success, error, rate_limited
		),

		CommandDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nung_bot_command_duration_seconds",
				Help:    "Bot command handling duration in seconds by command",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"command"},
		),

		RateLimiterDropped: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "nung_rate_limiter_dropped_total",
				Help: "Total number of updates dropped by the per-user rate limiter",
			},
		),
	}
}
