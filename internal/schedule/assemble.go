package schedule

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	scherrors "github.com/vitPrograms/NUNG-Schedule-Bot/internal/errors"
)

// Parse assembles the structured week schedule from a fetched timetable
// page. It is pure: the same markup always yields a structurally equal
// schedule, and the document is not modified.
//
// Each div.col-md-6 is one day container. The date is the first text node
// of its heading, kept verbatim (the site renders locale-specific dates
// and replies must round-trip them); the weekday label is the nested
// small element, empty when absent. Rows with exactly three cells
// (ordinal, time range, details) become slots; rows whose details cell
// has no visible text are skipped. A day with no table or no qualifying
// rows keeps an empty slot list — that is a valid empty day, not an error.
//
// Returns ErrNoSchedule when the page has no recognizable day container
// at all, which callers surface differently from a fetch failure.
func Parse(doc *goquery.Document) (*Schedule, error) {
	sched := &Schedule{}
	seen := make(map[string]bool)

	doc.Find("div.col-md-6").Each(func(_ int, dayDiv *goquery.Selection) {
		heading := dayDiv.Find("h4").First()
		if heading.Length() == 0 {
			return
		}

		date := firstTextNode(heading)
		if date == "" || seen[date] {
			return
		}
		seen[date] = true

		day := Day{
			Date:      date,
			DayOfWeek: strings.TrimSpace(heading.Find("small").First().Text()),
		}

		table := dayDiv.Find("table.table").First()
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() != 3 {
				return
			}

			details := cells.Eq(2)
			if strings.TrimSpace(details.Text()) == "" {
				return
			}

			slot := Slot{
				Number: strings.TrimSpace(cells.Eq(0).Text()),
				Time:   joinText(cells.Eq(1), "-"),
			}
			for _, block := range SplitLessonBlocks(details) {
				slot.Lessons = append(slot.Lessons, ClassifyLessonBlock(block))
			}

			day.Slots = append(day.Slots, slot)
		})

		sched.Days = append(sched.Days, day)
	})

	if len(sched.Days) == 0 {
		return nil, scherrors.ErrNoSchedule
	}
	return sched, nil
}
