// Package schedule turns the timetable site's hand-authored HTML into a
// structured week schedule.
//
// The markup has no schema: several concurrent lessons can share one table
// cell, separators are inconsistent, and subject, lesson type, teacher,
// rooms and links are mixed into free-text lines. Extraction is a chain of
// ordered heuristics with a fallback, best-effort by design.
package schedule

// Lesson is one concrete lesson occurrence within a slot.
// Teachers, Groups and Links are nil (absent) when nothing was found;
// absence is semantically different from an empty list. An empty Subject
// means the block could not be classified.
type Lesson struct {
	Subject  string   `json:"subject,omitempty"`
	Type     string   `json:"type,omitempty"`
	Teachers []string `json:"teachers,omitempty"`
	Groups   []string `json:"groups,omitempty"`
	Links    []string `json:"links,omitempty"`
	Subgroup string   `json:"subgroup,omitempty"`
}

// Classified reports whether a subject was recognized in the block.
func (l Lesson) Classified() bool {
	return l.Subject != ""
}

// Slot is one timetable row: an ordinal label, a free-text time range and
// the possibly-concurrent lessons occupying that period.
type Slot struct {
	Number  string   `json:"lesson_number"`
	Time    string   `json:"time"`
	Lessons []Lesson `json:"lessons_info"`
}

// Day is one day container of the page. Date is the calendar date exactly
// as the site renders it (locale-specific, never normalized) so it
// round-trips into replies verbatim.
type Day struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"day_of_week"`
	Slots     []Slot `json:"lessons"`
}

// Schedule is the parsed week in document order. Dates are unique within
// one schedule; the order follows the page, not a chronological sort.
type Schedule struct {
	Days []Day `json:"days"`
}

// Empty reports whether the schedule has no days.
func (s *Schedule) Empty() bool {
	return s == nil || len(s.Days) == 0
}
