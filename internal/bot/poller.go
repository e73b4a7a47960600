package bot

import (
	"context"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/ctxutil"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/logger"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/metrics"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/ratelimit"
)

// TelegramAPI is the slice of tgbotapi.BotAPI the poller needs.
type TelegramAPI interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Poller drives the long-polling update loop. Each update is handled
// in its own goroutine so one slow scrape does not stall the queue.
type Poller struct {
	api         TelegramAPI
	handler     *Handler
	userLimiter *ratelimit.PerKeyLimiter
	logger      *logger.Logger
	metrics     *metrics.Metrics
	pollTimeout time.Duration
}

// PollerConfig holds the dependencies for creating a Poller.
type PollerConfig struct {
	API         TelegramAPI
	Handler     *Handler
	UserLimiter *ratelimit.PerKeyLimiter
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
	PollTimeout time.Duration
}

// NewPoller creates a new update poller.
func NewPoller(cfg PollerConfig) *Poller {
	p := &Poller{
		api:         cfg.API,
		handler:     cfg.Handler,
		userLimiter: cfg.UserLimiter,
		logger:      cfg.Logger.WithModule("poller"),
		metrics:     cfg.Metrics,
		pollTimeout: cfg.PollTimeout,
	}
	p.userLimiter.OnDrop(p.metrics.RateLimiterDropped.Inc)
	return p
}

// Run consumes updates until ctx is cancelled, then waits for in-flight
// handlers to finish.
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(p.pollTimeout.Seconds())
	updates := p.api.GetUpdatesChan(u)

	p.logger.InfoContext(ctx, "polling started", "timeout_seconds", u.Timeout)

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			wg.Wait()
			p.logger.Info("polling stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.process(ctx, update)
			}()
		}
	}
}

// process handles one update: tags the context, applies the per-user
// rate limit and sends whatever the handler produced.
func (p *Poller) process(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic while handling update",
				"update_id", update.UpdateID, "panic", r)
		}
	}()

	ctx = ctxutil.WithRequestID(ctx, uuid.NewString())

	userID, chatID := updateSource(update)
	if userID != 0 {
		ctx = ctxutil.WithUserID(ctx, strconv.FormatInt(userID, 10))
	}
	if chatID != 0 {
		ctx = ctxutil.WithChatID(ctx, strconv.FormatInt(chatID, 10))
	}

	if userID != 0 && !p.userLimiter.Allow(strconv.FormatInt(userID, 10)) {
		p.logger.WarnContext(ctx, "update dropped by rate limiter")
		if update.Message != nil && update.Message.IsCommand() {
			command := update.Message.Command()
			p.metrics.CommandsTotal.WithLabelValues(command, "rate_limited").Inc()
			p.send(ctx, tgbotapi.NewMessage(chatID,
				"You are sending commands too fast, please slow down a bit."))
		}
		return
	}

	for _, reply := range p.handler.HandleUpdate(ctx, update) {
		p.send(ctx, reply)
	}
}

func (p *Poller) send(ctx context.Context, c tgbotapi.Chattable) {
	if _, err := p.api.Request(c); err != nil {
		p.logger.ErrorContext(ctx, "failed to send response", "error", err)
	}
}

// updateSource extracts the acting user and chat from an update.
func updateSource(update tgbotapi.Update) (userID, chatID int64) {
	switch {
	case update.Message != nil:
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
		chatID = update.Message.Chat.ID
	case update.CallbackQuery != nil:
		if update.CallbackQuery.From != nil {
			userID = update.CallbackQuery.From.ID
		}
		if update.CallbackQuery.Message != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
	}
	return userID, chatID
}
