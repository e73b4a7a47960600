// Package bot implements the Telegram front end: command handling,
// schedule formatting and the long-polling update loop.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	scherrors "github.com/vitPrograms/NUNG-Schedule-Bot/internal/errors"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/logger"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/metrics"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/schedule"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/scraper/dekanat"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/storage"
)

// ScheduleSource fetches the timetable page for a group name or
// numeric group id.
type ScheduleSource interface {
	FetchSchedule(ctx context.Context, identifier string) (*goquery.Document, error)
}

// SettingsStore persists per-user bot settings.
type SettingsStore interface {
	GetSetting(ctx context.Context, userID int64, key string, dest any) error
	SetSetting(ctx context.Context, userID int64, key string, value any) error
	Group(ctx context.Context, userID int64) (storage.Group, error)
	SetGroup(ctx context.Context, userID int64, group storage.Group) error
	Subjects(ctx context.Context, userID int64) ([]string, error)
	AddSubject(ctx context.Context, userID int64, subject string) error
	RemoveSubject(ctx context.Context, userID int64, subject string) error
	ToggleSubject(ctx context.Context, userID int64, subject string) (bool, error)
	ClearSubjects(ctx context.Context, userID int64) error
}

// Handler turns incoming Telegram updates into outgoing messages.
// It is stateless between updates; everything durable lives in the
// settings store.
type Handler struct {
	source  ScheduleSource
	store   SettingsStore
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewHandler creates a new update handler.
func NewHandler(source ScheduleSource, store SettingsStore, log *logger.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		source:  source,
		store:   store,
		logger:  log.WithModule("bot"),
		metrics: m,
	}
}

// HandleUpdate processes one Telegram update and returns the requests
// to send in response. Unsupported update kinds produce no output.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) []tgbotapi.Chattable {
	switch {
	case update.CallbackQuery != nil:
		return h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		return h.handleCommand(ctx, update.Message)
	default:
		return nil
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) []tgbotapi.Chattable {
	if msg.From == nil {
		return nil
	}

	command := msg.Command()
	start := time.Now()

	replies, err := h.dispatchCommand(ctx, msg)

	status := "success"
	if err != nil {
		status = "error"
		h.logger.ErrorContext(ctx, "command failed",
			"command", command, "error", err)
	}
	h.metrics.CommandsTotal.WithLabelValues(command, status).Inc()
	h.metrics.CommandDurationSeconds.WithLabelValues(command).Observe(time.Since(start).Seconds())

	return replies
}

func (h *Handler) dispatchCommand(ctx context.Context, msg *tgbotapi.Message) ([]tgbotapi.Chattable, error) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return h.startReply(msg), nil
	case "help":
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, helpText)}, nil
	case "setgroup":
		return h.setGroup(ctx, chatID, userID, args)
	case "schedule":
		return h.scheduleReply(ctx, chatID, userID)
	case "addsubject":
		return h.addSubject(ctx, chatID, userID, args)
	case "removesubject":
		return h.removeSubject(ctx, chatID, userID, args)
	case "mysubjects":
		return h.mySubjects(ctx, chatID, userID)
	case "showall":
		return h.showAll(ctx, chatID, userID)
	case "subjects":
		return h.subjectsMenu(ctx, chatID, userID)
	default:
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"Unknown command. Use /help to see what I can do.")}, nil
	}
}

const helpText = `I can fetch your group's timetable and trim it down to the subjects you care about.

/setgroup <name> - set your study group, e.g. /setgroup ІПм-24-1
/schedule - show the current week's schedule
/subjects - pick subjects to monitor from a menu
/addsubject <name> - add a subject (or part of its name) to the filter
/removesubject <name> - remove a subject from the filter
/mysubjects - list the subjects you monitor
/showall - clear the filter and show the full schedule`

func (h *Handler) startReply(msg *tgbotapi.Message) []tgbotapi.Chattable {
	name := "there"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}
	return []tgbotapi.Chattable{tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
		"Hi %s! I am your schedule assistant. Use /schedule to get the current week's schedule.", name))}
}

// setGroup validates the group by fetching its timetable, stores the
// name and, when the page exposes one, the numeric group id for more
// stable future requests.
func (h *Handler) setGroup(ctx context.Context, chatID, userID int64, groupName string) ([]tgbotapi.Chattable, error) {
	if groupName == "" {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"Please provide a group name.\nExample: /setgroup ІПм-24-1")}, nil
	}

	doc, err := h.source.FetchSchedule(ctx, groupName)
	if err != nil || !dekanat.HasSchedule(doc) {
		reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"Could not find or validate group '%s'. Please check the name and try again.", groupName))
		return []tgbotapi.Chattable{reply}, err
	}

	group := storage.Group{
		Name: groupName,
		ID:   dekanat.ExtractGroupID(doc),
	}
	if err := h.store.SetGroup(ctx, userID, group); err != nil {
		return h.internalError(chatID), err
	}

	return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Success! Your group is set to %s.\n\n"+
			"Now you can add subjects to monitor with /addsubject or view the full schedule with /schedule.",
		groupName))}, nil
}

// scheduleReply fetches, parses, filters and formats the schedule for
// the user's saved group.
func (h *Handler) scheduleReply(ctx context.Context, chatID, userID int64) ([]tgbotapi.Chattable, error) {
	group, err := h.store.Group(ctx, userID)
	if scherrors.Is(err, scherrors.ErrGroupNotFound) {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"Please set your group first using the /setgroup command.\nExample: /setgroup ІПм-24-1")}, nil
	}
	if err != nil {
		return h.internalError(chatID), err
	}

	// The numeric id survives group renames, prefer it when known.
	identifier := group.Name
	if group.ID != "" {
		identifier = group.ID
	}

	doc, err := h.source.FetchSchedule(ctx, identifier)
	if err != nil {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"Failed to download schedule data.")}, err
	}

	parseStart := time.Now()
	sched, err := schedule.Parse(doc)
	if err != nil {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"Failed to parse schedule data.")}, err
	}
	h.metrics.ParseDurationSeconds.Observe(time.Since(parseStart).Seconds())
	h.observeLessons(sched)

	subjects, err := h.store.Subjects(ctx, userID)
	if err != nil {
		return h.internalError(chatID), err
	}
	sched = schedule.FilterBySubjects(sched, subjects)

	var replies []tgbotapi.Chattable
	for _, chunk := range ChunkMessage(FormatSchedule(sched), maxMessageLength) {
		reply := tgbotapi.NewMessage(chatID, chunk)
		reply.ParseMode = tgbotapi.ModeMarkdown
		replies = append(replies, reply)
	}
	return replies, nil
}

func (h *Handler) observeLessons(s *schedule.Schedule) {
	for _, day := range s.Days {
		for _, slot := range day.Slots {
			for _, lesson := range slot.Lessons {
				h.metrics.LessonsParsedTotal.Inc()
				if !lesson.Classified() {
					h.metrics.UnclassifiedBlocks.Inc()
				}
			}
		}
	}
}

func (h *Handler) addSubject(ctx context.Context, chatID, userID int64, subject string) ([]tgbotapi.Chattable, error) {
	if subject == "" {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"Please provide a subject name (or part of it).\nExample: /addsubject Креативна економіка")}, nil
	}

	subjects, err := h.store.Subjects(ctx, userID)
	if err != nil {
		return h.internalError(chatID), err
	}

	if containsFold(subjects, subject) {
		return h.appendMySubjects(ctx, userID, []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			fmt.Sprintf("'%s' is already in your subjects list.", subject))})
	}

	if err := h.store.AddSubject(ctx, userID, subject); err != nil {
		return h.internalError(chatID), err
	}
	return h.appendMySubjects(ctx, userID, []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
		fmt.Sprintf("'%s' added to your subjects list.", subject))})
}

func (h *Handler) removeSubject(ctx context.Context, chatID, userID int64, subject string) ([]tgbotapi.Chattable, error) {
	if subject == "" {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"Please provide a subject name to remove.\nExample: /removesubject Креативна економіка")}, nil
	}

	subjects, err := h.store.Subjects(ctx, userID)
	if err != nil {
		return h.internalError(chatID), err
	}

	removed := false
	for _, s := range subjects {
		if strings.EqualFold(s, subject) {
			if err := h.store.RemoveSubject(ctx, userID, s); err != nil {
				return h.internalError(chatID), err
			}
			removed = true
		}
	}

	text := fmt.Sprintf("'%s' was not found in your subjects list.", subject)
	if removed {
		text = fmt.Sprintf("'%s' removed from your subjects list.", subject)
	}
	return h.appendMySubjects(ctx, userID, []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, text)})
}

// appendMySubjects tacks the current filter summary onto replies, the
// way the add and remove commands always confirm the resulting list.
func (h *Handler) appendMySubjects(ctx context.Context, userID int64, replies []tgbotapi.Chattable) ([]tgbotapi.Chattable, error) {
	var chatID int64
	if len(replies) > 0 {
		if msg, ok := replies[len(replies)-1].(tgbotapi.MessageConfig); ok {
			chatID = msg.ChatID
		}
	}

	summary, err := h.mySubjects(ctx, chatID, userID)
	if err != nil {
		return replies, err
	}
	return append(replies, summary...), nil
}

func (h *Handler) mySubjects(ctx context.Context, chatID, userID int64) ([]tgbotapi.Chattable, error) {
	subjects, err := h.store.Subjects(ctx, userID)
	if err != nil {
		return h.internalError(chatID), err
	}

	if len(subjects) == 0 {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"You are not monitoring any specific subjects. Your /schedule will show all lessons.\nUse /addsubject to add one.")}, nil
	}

	var b strings.Builder
	b.WriteString("You are currently monitoring the following subjects:\n")
	for _, s := range subjects {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	b.WriteString("\nYour /schedule will only show these subjects. Use /removesubject to remove one or /showall to see the full schedule.")

	return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID, b.String())}, nil
}

func (h *Handler) showAll(ctx context.Context, chatID, userID int64) ([]tgbotapi.Chattable, error) {
	if err := h.store.ClearSubjects(ctx, userID); err != nil {
		return h.internalError(chatID), err
	}

	replies := []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
		"Subject filter cleared. Fetching the full schedule...")}
	rest, err := h.scheduleReply(ctx, chatID, userID)
	return append(replies, rest...), err
}

// subjectsMenu builds the interactive subject picker from the subjects
// found on the group's current timetable page. The catalog is stored
// per user so keyboard callbacks can reference subjects by index.
func (h *Handler) subjectsMenu(ctx context.Context, chatID, userID int64) ([]tgbotapi.Chattable, error) {
	group, err := h.store.Group(ctx, userID)
	if scherrors.Is(err, scherrors.ErrGroupNotFound) {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"Please set your group first using the /setgroup command.\nExample: /setgroup ІПм-24-1")}, nil
	}
	if err != nil {
		return h.internalError(chatID), err
	}

	identifier := group.Name
	if group.ID != "" {
		identifier = group.ID
	}

	doc, err := h.source.FetchSchedule(ctx, identifier)
	if err != nil {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"Failed to download schedule data.")}, err
	}

	catalog := schedule.UniqueSubjects(doc)
	if len(catalog) == 0 {
		return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
			"No subjects found on the current schedule page.")}, nil
	}

	if err := h.store.SetSetting(ctx, userID, storage.KeySubjectCatalog, catalog); err != nil {
		return h.internalError(chatID), err
	}

	selected, err := h.store.Subjects(ctx, userID)
	if err != nil {
		return h.internalError(chatID), err
	}

	reply := tgbotapi.NewMessage(chatID, subjectsMenuText)
	reply.ReplyMarkup = subjectsKeyboard(catalog, selected, 0)
	return []tgbotapi.Chattable{reply}, nil
}

const subjectsMenuText = "Tap a subject to toggle it in your filter. Selected subjects are marked with ✅."

// handleCallback processes subject keyboard button presses by editing
// the keyboard in place.
func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) []tgbotapi.Chattable {
	ack := tgbotapi.NewCallback(cb.ID, "")

	if cb.Message == nil || !isSubjectsCallback(cb.Data) {
		return []tgbotapi.Chattable{ack}
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID

	action, err := parseSubjectsCallback(cb.Data)
	if err != nil {
		h.logger.WarnContext(ctx, "bad callback payload", "data", cb.Data, "error", err)
		return []tgbotapi.Chattable{ack}
	}

	if action.Action == actionDone {
		summary, err := h.mySubjects(ctx, chatID, userID)
		if err != nil {
			h.logger.ErrorContext(ctx, "callback failed", "error", err)
		}
		return append([]tgbotapi.Chattable{ack, removeKeyboard(chatID, messageID)}, summary...)
	}

	var catalog []string
	if err := h.store.GetSetting(ctx, userID, storage.KeySubjectCatalog, &catalog); err != nil {
		h.logger.WarnContext(ctx, "subject catalog missing", "error", err)
		return []tgbotapi.Chattable{ack, tgbotapi.NewMessage(chatID,
			"This menu has expired, run /subjects again.")}
	}

	page := action.Page
	if action.Action == actionToggle {
		if action.Index < 0 || action.Index >= len(catalog) {
			return []tgbotapi.Chattable{ack}
		}
		if _, err := h.store.ToggleSubject(ctx, userID, catalog[action.Index]); err != nil {
			h.logger.ErrorContext(ctx, "toggle failed", "error", err)
			return []tgbotapi.Chattable{ack}
		}
	}

	selected, err := h.store.Subjects(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "callback failed", "error", err)
		return []tgbotapi.Chattable{ack}
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID,
		subjectsKeyboard(catalog, selected, page))
	return []tgbotapi.Chattable{ack, edit}
}

// removeKeyboard edits the message to drop its inline keyboard.
func removeKeyboard(chatID int64, messageID int) tgbotapi.EditMessageReplyMarkupConfig {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.NewInlineKeyboardMarkup())
	edit.ReplyMarkup = nil
	return edit
}

func (h *Handler) internalError(chatID int64) []tgbotapi.Chattable {
	return []tgbotapi.Chattable{tgbotapi.NewMessage(chatID,
		"Something went wrong, please try again later.")}
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
