package bot

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/logger"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/metrics"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/storage"
)

// schedulePage is a minimal valid timetable page: the group heading
// with its numeric id and one day of lessons.
const schedulePage = `<html><body>
<h4 class="hidden-xs">Розклад групи <a href="timetable.cgi?n=700&group=-1985">ІПм-24-1</a></h4>
<div class="col-md-6">
  <h4>27.10.2025 <small>Понеділок</small></h4>
  <table class="table">
    <tr><td>1</td><td>08:30<br>10:05</td><td><img src="i.png"> *(Л) Вища математика</td></tr>
    <tr><td>2</td><td>10:20<br>11:55</td><td><img src="i.png"> *(Пр) Хімія</td></tr>
  </table>
</div>
</body></html>`

const notFoundPage = `<html><body><p>Групу не знайдено</p></body></html>`

type fakeSource struct {
	doc            *goquery.Document
	err            error
	lastIdentifier string
}

func (f *fakeSource) FetchSchedule(_ context.Context, identifier string) (*goquery.Document, error) {
	f.lastIdentifier = identifier
	return f.doc, f.err
}

func docFrom(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func newTestHandler(t *testing.T, source ScheduleSource) (*Handler, *storage.SettingsRepository) {
	t.Helper()

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := storage.NewSettingsRepository(db)
	log := logger.NewWithWriter("error", io.Discard)
	m := metrics.New(prometheus.NewRegistry())

	return NewHandler(source, repo, log, m), repo
}

func commandUpdate(text string) tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i != -1 {
		cmdLen = i
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: cmdLen},
		},
		From: &tgbotapi.User{ID: 42, FirstName: "Тарас"},
		Chat: &tgbotapi.Chat{ID: 100},
	}}
}

func messageTexts(t *testing.T, replies []tgbotapi.Chattable) []string {
	t.Helper()
	var texts []string
	for _, reply := range replies {
		if msg, ok := reply.(tgbotapi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func TestStartCommand(t *testing.T) {
	h, _ := newTestHandler(t, &fakeSource{})

	replies := h.HandleUpdate(context.Background(), commandUpdate("/start"))

	texts := messageTexts(t, replies)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Hi Тарас!")
	assert.Contains(t, texts[0], "/schedule")
}

func TestHelpCommand(t *testing.T) {
	h, _ := newTestHandler(t, &fakeSource{})

	texts := messageTexts(t, h.HandleUpdate(context.Background(), commandUpdate("/help")))
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "/setgroup")
	assert.Contains(t, texts[0], "/subjects")
}

func TestSetGroupCommand(t *testing.T) {
	source := &fakeSource{}
	h, repo := newTestHandler(t, source)
	ctx := context.Background()

	t.Run("Without arguments", func(t *testing.T) {
		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/setgroup")))
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "Please provide a group name.")
	})

	t.Run("Valid group", func(t *testing.T) {
		source.doc = docFrom(t, schedulePage)

		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/setgroup ІПм-24-1")))
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "Success! Your group is set to ІПм-24-1.")
		assert.Equal(t, "ІПм-24-1", source.lastIdentifier,
			"validation must fetch by the given name")

		group, err := repo.Group(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "ІПм-24-1", group.Name)
		assert.Equal(t, "-1985", group.ID, "the numeric id is harvested from the page")
	})

	t.Run("Unknown group", func(t *testing.T) {
		source.doc = docFrom(t, notFoundPage)

		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/setgroup НЕМА-99-9")))
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "Could not find or validate group 'НЕМА-99-9'.")
	})
}

func TestScheduleCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("Without a group", func(t *testing.T) {
		h, _ := newTestHandler(t, &fakeSource{})

		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/schedule")))
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "Please set your group first")
	})

	t.Run("Prefers the numeric id", func(t *testing.T) {
		source := &fakeSource{doc: docFrom(t, schedulePage)}
		h, repo := newTestHandler(t, source)
		require.NoError(t, repo.SetGroup(ctx, 42, storage.Group{Name: "ІПм-24-1", ID: "-1985"}))

		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/schedule")))
		assert.Equal(t, "-1985", source.lastIdentifier)
		require.NotEmpty(t, texts)
		assert.Contains(t, texts[0], "Вища математика")
		assert.Contains(t, texts[0], "27.10.2025")
	})

	t.Run("Falls back to the name", func(t *testing.T) {
		source := &fakeSource{doc: docFrom(t, schedulePage)}
		h, repo := newTestHandler(t, source)
		require.NoError(t, repo.SetGroup(ctx, 42, storage.Group{Name: "ІПм-24-1"}))

		h.HandleUpdate(ctx, commandUpdate("/schedule"))
		assert.Equal(t, "ІПм-24-1", source.lastIdentifier)
	})

	t.Run("Applies the subject filter", func(t *testing.T) {
		source := &fakeSource{doc: docFrom(t, schedulePage)}
		h, repo := newTestHandler(t, source)
		require.NoError(t, repo.SetGroup(ctx, 42, storage.Group{Name: "ІПм-24-1"}))
		require.NoError(t, repo.AddSubject(ctx, 42, "хімія"))

		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/schedule")))
		require.NotEmpty(t, texts)
		assert.Contains(t, texts[0], "Хімія")
		assert.NotContains(t, texts[0], "Вища математика")
	})

	t.Run("Fetch failure", func(t *testing.T) {
		source := &fakeSource{err: assert.AnError}
		h, repo := newTestHandler(t, source)
		require.NoError(t, repo.SetGroup(ctx, 42, storage.Group{Name: "ІПм-24-1"}))

		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/schedule")))
		require.Len(t, texts, 1)
		assert.Equal(t, "Failed to download schedule data.", texts[0])
	})

	t.Run("Unparseable page", func(t *testing.T) {
		source := &fakeSource{doc: docFrom(t, notFoundPage)}
		h, repo := newTestHandler(t, source)
		require.NoError(t, repo.SetGroup(ctx, 42, storage.Group{Name: "ІПм-24-1"}))

		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/schedule")))
		require.Len(t, texts, 1)
		assert.Equal(t, "Failed to parse schedule data.", texts[0])
	})
}

func TestSubjectCommands(t *testing.T) {
	ctx := context.Background()
	h, repo := newTestHandler(t, &fakeSource{})

	t.Run("Add", func(t *testing.T) {
		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/addsubject Хімія")))
		require.Len(t, texts, 2, "add replies with a confirmation and the current list")
		assert.Contains(t, texts[0], "'Хімія' added to your subjects list.")
		assert.Contains(t, texts[1], "- Хімія")
	})

	t.Run("Duplicate add is case-insensitive", func(t *testing.T) {
		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/addsubject хімія")))
		require.NotEmpty(t, texts)
		assert.Contains(t, texts[0], "'хімія' is already in your subjects list.")

		subjects, err := repo.Subjects(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, []string{"Хімія"}, subjects)
	})

	t.Run("Remove", func(t *testing.T) {
		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/removesubject хімія")))
		require.NotEmpty(t, texts)
		assert.Contains(t, texts[0], "'хімія' removed from your subjects list.")

		subjects, err := repo.Subjects(ctx, 42)
		require.NoError(t, err)
		assert.Nil(t, subjects)
	})

	t.Run("Remove missing", func(t *testing.T) {
		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/removesubject Фізика")))
		require.NotEmpty(t, texts)
		assert.Contains(t, texts[0], "'Фізика' was not found in your subjects list.")
	})

	t.Run("My subjects when empty", func(t *testing.T) {
		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/mysubjects")))
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "You are not monitoring any specific subjects.")
	})
}

func TestShowAllCommand(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{doc: docFrom(t, schedulePage)}
	h, repo := newTestHandler(t, source)

	require.NoError(t, repo.SetGroup(ctx, 42, storage.Group{Name: "ІПм-24-1"}))
	require.NoError(t, repo.AddSubject(ctx, 42, "Хімія"))

	texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/showall")))
	require.GreaterOrEqual(t, len(texts), 2)
	assert.Contains(t, texts[0], "Subject filter cleared.")
	assert.Contains(t, texts[1], "Вища математика", "the full schedule follows the confirmation")

	subjects, err := repo.Subjects(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, subjects)
}

func TestSubjectsMenuCommand(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{doc: docFrom(t, schedulePage)}
	h, repo := newTestHandler(t, source)

	t.Run("Without a group", func(t *testing.T) {
		texts := messageTexts(t, h.HandleUpdate(ctx, commandUpdate("/subjects")))
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0], "Please set your group first")
	})

	require.NoError(t, repo.SetGroup(ctx, 42, storage.Group{Name: "ІПм-24-1", ID: "-1985"}))

	t.Run("Builds the keyboard and stores the catalog", func(t *testing.T) {
		replies := h.HandleUpdate(ctx, commandUpdate("/subjects"))
		require.Len(t, replies, 1)

		msg, ok := replies[0].(tgbotapi.MessageConfig)
		require.True(t, ok)
		markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		require.True(t, ok)

		// Two subjects plus the Done row.
		require.Len(t, markup.InlineKeyboard, 3)
		assert.Equal(t, "Вища математика", markup.InlineKeyboard[0][0].Text)
		assert.Equal(t, "Хімія", markup.InlineKeyboard[1][0].Text)

		var catalog []string
		require.NoError(t, repo.GetSetting(ctx, 42, storage.KeySubjectCatalog, &catalog))
		assert.Equal(t, []string{"Вища математика", "Хімія"}, catalog)
	})
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		Data: data,
		From: &tgbotapi.User{ID: 42},
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: 100},
		},
	}}
}

func TestSubjectToggleCallback(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{doc: docFrom(t, schedulePage)}
	h, repo := newTestHandler(t, source)

	require.NoError(t, repo.SetGroup(ctx, 42, storage.Group{Name: "ІПм-24-1"}))
	h.HandleUpdate(ctx, commandUpdate("/subjects"))

	replies := h.HandleUpdate(ctx, callbackUpdate("subjects$toggle$0$1"))
	require.Len(t, replies, 2, "a toggle answers the callback and edits the keyboard")

	_, ok := replies[0].(tgbotapi.CallbackConfig)
	assert.True(t, ok)

	edit, ok := replies[1].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, "✅ Хімія", edit.ReplyMarkup.InlineKeyboard[1][0].Text)

	subjects, err := repo.Subjects(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []string{"Хімія"}, subjects)

	// A second press flips it back off.
	h.HandleUpdate(ctx, callbackUpdate("subjects$toggle$0$1"))
	subjects, err = repo.Subjects(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, subjects)
}

func TestSubjectDoneCallback(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{doc: docFrom(t, schedulePage)}
	h, repo := newTestHandler(t, source)

	require.NoError(t, repo.SetGroup(ctx, 42, storage.Group{Name: "ІПм-24-1"}))
	h.HandleUpdate(ctx, commandUpdate("/subjects"))

	replies := h.HandleUpdate(ctx, callbackUpdate("subjects$done"))
	require.GreaterOrEqual(t, len(replies), 3)

	edit, ok := replies[1].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Nil(t, edit.ReplyMarkup, "Done removes the keyboard")

	texts := messageTexts(t, replies)
	require.NotEmpty(t, texts)
	assert.Contains(t, texts[0], "You are not monitoring any specific subjects.")
}

func TestCallbackWithoutCatalog(t *testing.T) {
	h, _ := newTestHandler(t, &fakeSource{})

	texts := messageTexts(t, h.HandleUpdate(context.Background(),
		callbackUpdate("subjects$toggle$0$0")))
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "run /subjects again")
}

func TestUnknownCommand(t *testing.T) {
	h, _ := newTestHandler(t, &fakeSource{})

	texts := messageTexts(t, h.HandleUpdate(context.Background(), commandUpdate("/frobnicate")))
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Unknown command.")
}

func TestPlainTextIsIgnored(t *testing.T) {
	h, _ := newTestHandler(t, &fakeSource{})

	update := tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "просто текст",
		From: &tgbotapi.User{ID: 42},
		Chat: &tgbotapi.Chat{ID: 100},
	}}
	assert.Empty(t, h.HandleUpdate(context.Background(), update))
}
