package schedule

import (
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/stringutil"
)

// FilterBySubjects returns a copy of s containing only lessons whose
// subject matches any of the given substrings, case-insensitively.
// Slots and days emptied by the filter are dropped. An empty filter list
// means "no filter" and returns s unchanged. The input schedule is never
// mutated. Unclassified lessons (no subject) never match.
func FilterBySubjects(s *Schedule, subjects []string) *Schedule {
	if s == nil || len(subjects) == 0 {
		return s
	}

	filtered := &Schedule{}
	for _, day := range s.Days {
		filteredDay := Day{Date: day.Date, DayOfWeek: day.DayOfWeek}

		for _, slot := range day.Slots {
			filteredSlot := Slot{Number: slot.Number, Time: slot.Time}

			for _, lesson := range slot.Lessons {
				if matchesAny(lesson, subjects) {
					filteredSlot.Lessons = append(filteredSlot.Lessons, lesson)
				}
			}

			if len(filteredSlot.Lessons) > 0 {
				filteredDay.Slots = append(filteredDay.Slots, filteredSlot)
			}
		}

		if len(filteredDay.Slots) > 0 {
			filtered.Days = append(filtered.Days, filteredDay)
		}
	}
	return filtered
}

func matchesAny(lesson Lesson, subjects []string) bool {
	if !lesson.Classified() {
		return false
	}
	for _, want := range subjects {
		if stringutil.ContainsFold(lesson.Subject, want) {
			return true
		}
	}
	return false
}
