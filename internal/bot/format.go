package bot

import (
	"fmt"
	"strings"

	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/schedule"
)

// maxMessageLength is Telegram's hard limit on message text length.
const maxMessageLength = 4096

// FormatSchedule renders a parsed schedule as Markdown for Telegram.
// Absent lesson fields produce no output lines at all.
func FormatSchedule(s *schedule.Schedule) string {
	if s == nil || s.Empty() {
		return "Could not retrieve schedule."
	}

	var b strings.Builder
	for _, day := range s.Days {
		fmt.Fprintf(&b, "📅 *%s, %s*\n", day.DayOfWeek, day.Date)
		b.WriteString(strings.Repeat("-", 20) + "\n")

		if len(day.Slots) == 0 {
			b.WriteString("No lessons for this day.\n\n")
			continue
		}

		for _, slot := range day.Slots {
			fmt.Fprintf(&b, "*%s. (%s)*\n", slot.Number, slot.Time)

			for _, lesson := range slot.Lessons {
				subject := lesson.Subject
				if subject == "" {
					subject = "N/A"
				}
				if lesson.Type != "" {
					fmt.Fprintf(&b, "  - %s (%s)\n", subject, lesson.Type)
				} else {
					fmt.Fprintf(&b, "  - %s\n", subject)
				}

				if lesson.Subgroup != "" {
					fmt.Fprintf(&b, "    %s\n", lesson.Subgroup)
				}
				if len(lesson.Groups) > 0 {
					fmt.Fprintf(&b, "    Groups: %s\n", strings.Join(lesson.Groups, ", "))
				}
				if len(lesson.Teachers) > 0 {
					fmt.Fprintf(&b, "    Teacher: %s\n", strings.Join(lesson.Teachers, ", "))
				}
				for _, link := range lesson.Links {
					fmt.Fprintf(&b, "    [Link](%s)\n", link)
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ChunkMessage splits text into pieces that fit into single Telegram
// messages. Splits happen at line boundaries when possible so Markdown
// markup is not torn apart mid-line, and never inside a UTF-8 rune.
func ChunkMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 {
		limit = maxMessageLength
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= limit {
			chunks = append(chunks, text)
			break
		}

		cut := lastRuneBoundary(text, limit)
		if i := strings.LastIndexByte(text[:cut], '\n'); i > 0 {
			cut = i + 1
		}
		if cut == 0 {
			cut = limit
		}

		if chunk := strings.TrimRight(text[:cut], "\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = text[cut:]
	}
	return chunks
}

// lastRuneBoundary returns the largest index <= limit that does not
// split a multi-byte rune.
func lastRuneBoundary(s string, limit int) int {
	cut := limit
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return cut
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
