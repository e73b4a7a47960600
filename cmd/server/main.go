// Package main provides the schedule bot server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/bot"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/config"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/logger"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/metrics"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/ratelimit"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/scraper"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/scraper/dekanat"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting NUNG Schedule Bot")

	// Connect to database
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	// Create Prometheus registry with Go and process collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Create scraper and timetable source
	scraperClient := scraper.NewClient(cfg.ScraperTimeout)
	source := dekanat.New(scraperClient, cfg.ScheduleBaseURL)
	source.SetMetrics(m)
	log.WithField("base_url", cfg.ScheduleBaseURL).Info("Timetable scraper created")

	// Per-user rate limiter for incoming updates
	userLimiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:  cfg.Bot.UserRateLimitBurst,
		RefillRate: cfg.Bot.UserRateLimitRefillPerSec,
	})
	defer userLimiter.Stop()

	// Connect to Telegram
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Telegram")
	}
	log.WithField("username", api.Self.UserName).Info("Telegram bot authorized")

	handler := bot.NewHandler(source, storage.NewSettingsRepository(db), log, m)
	poller := bot.NewPoller(bot.PollerConfig{
		API:         api,
		Handler:     handler,
		UserLimiter: userLimiter,
		Logger:      log,
		Metrics:     m,
		PollTimeout: cfg.Bot.PollTimeout,
	})

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	setupRoutes(router, cfg, db, registry)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		if err := poller.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("poller: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Server forced to shutdown")
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		log.WithError(err).Error("Server exited with error")
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}
