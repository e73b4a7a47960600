package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	scherrors "github.com/vitPrograms/NUNG-Schedule-Bot/internal/errors"
)

// Callback data format: "subjects$action$params..." with $ as delimiter.
// Telegram caps callback data at 64 bytes, so subjects are referenced by
// their index in the stored catalog instead of by name.
const (
	callbackModule    = "subjects"
	callbackDelimiter = "$"

	actionToggle = "toggle"
	actionPage   = "page"
	actionDone   = "done"
)

// subjectsPageSize is how many subject buttons fit on one keyboard page.
const subjectsPageSize = 8

// subjectsCallback is a decoded subject keyboard button press.
type subjectsCallback struct {
	Action string
	Page   int
	Index  int
}

func toggleCallbackData(page, index int) string {
	return strings.Join([]string{callbackModule, actionToggle,
		strconv.Itoa(page), strconv.Itoa(index)}, callbackDelimiter)
}

func pageCallbackData(page int) string {
	return strings.Join([]string{callbackModule, actionPage,
		strconv.Itoa(page)}, callbackDelimiter)
}

func doneCallbackData() string {
	return callbackModule + callbackDelimiter + actionDone
}

// isSubjectsCallback reports whether data belongs to the subject keyboard.
func isSubjectsCallback(data string) bool {
	return strings.HasPrefix(data, callbackModule+callbackDelimiter)
}

// parseSubjectsCallback decodes a subject keyboard callback payload.
func parseSubjectsCallback(data string) (subjectsCallback, error) {
	parts := strings.Split(data, callbackDelimiter)
	if len(parts) < 2 || parts[0] != callbackModule {
		return subjectsCallback{}, fmt.Errorf("%w: callback %q", scherrors.ErrInvalidInput, data)
	}

	cb := subjectsCallback{Action: parts[1]}
	switch cb.Action {
	case actionToggle:
		if len(parts) != 4 {
			return subjectsCallback{}, fmt.Errorf("%w: callback %q", scherrors.ErrInvalidInput, data)
		}
		page, err := strconv.Atoi(parts[2])
		if err != nil {
			return subjectsCallback{}, fmt.Errorf("%w: callback %q", scherrors.ErrInvalidInput, data)
		}
		index, err := strconv.Atoi(parts[3])
		if err != nil {
			return subjectsCallback{}, fmt.Errorf("%w: callback %q", scherrors.ErrInvalidInput, data)
		}
		cb.Page, cb.Index = page, index
	case actionPage:
		if len(parts) != 3 {
			return subjectsCallback{}, fmt.Errorf("%w: callback %q", scherrors.ErrInvalidInput, data)
		}
		page, err := strconv.Atoi(parts[2])
		if err != nil {
			return subjectsCallback{}, fmt.Errorf("%w: callback %q", scherrors.ErrInvalidInput, data)
		}
		cb.Page = page
	case actionDone:
	default:
		return subjectsCallback{}, fmt.Errorf("%w: callback %q", scherrors.ErrInvalidInput, data)
	}
	return cb, nil
}

// subjectsKeyboard builds one page of the subject selection keyboard.
// Selected subjects carry a check mark. Navigation buttons appear only
// when there is somewhere to navigate to.
func subjectsKeyboard(catalog, selected []string, page int) tgbotapi.InlineKeyboardMarkup {
	pages := (len(catalog) + subjectsPageSize - 1) / subjectsPageSize
	if pages == 0 {
		pages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}

	selectedSet := make(map[string]bool, len(selected))
	for _, s := range selected {
		selectedSet[s] = true
	}

	var rows [][]tgbotapi.InlineKeyboardButton

	start := page * subjectsPageSize
	end := min(start+subjectsPageSize, len(catalog))
	for i := start; i < end; i++ {
		label := catalog[i]
		if selectedSet[label] {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, toggleCallbackData(page, i)),
		))
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", pageCallbackData(page-1)))
	}
	if pages > 1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d/%d", page+1, pages), pageCallbackData(page)))
	}
	if page < pages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", pageCallbackData(page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Done", doneCallbackData()),
	))

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
