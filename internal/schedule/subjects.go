package schedule

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// typeSuffixRegex strips a trailing parenthesized lesson-type annotation
// from a subject name, so "Економіка (Л)" and "Економіка (Пр)" collapse
// into one catalog entry. Only the known abbreviations are stripped;
// anything else in parentheses is part of the name.
var typeSuffixRegex = regexp.MustCompile(`(?i)\s*\((Л|Пр|Лаб)\)$`)

// UniqueSubjects scans the whole page and returns the sorted set of
// distinct subject names it mentions. It runs the same segmentation and
// classification pipeline as Parse over every details cell, ignoring the
// day and slot structure since only subject values matter here. The
// result feeds the interactive subject filter menu.
func UniqueSubjects(doc *goquery.Document) []string {
	set := make(map[string]bool)

	doc.Find("div.col-md-6").Each(func(_ int, dayDiv *goquery.Selection) {
		dayDiv.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() != 3 {
				return
			}

			details := cells.Eq(2)
			if strings.TrimSpace(details.Text()) == "" {
				return
			}

			for _, block := range SplitLessonBlocks(details) {
				lesson := ClassifyLessonBlock(block)
				if !lesson.Classified() {
					continue
				}
				name := strings.TrimSpace(typeSuffixRegex.ReplaceAllString(lesson.Subject, ""))
				if name != "" {
					set[name] = true
				}
			}
		})
	})

	subjects := make([]string, 0, len(set))
	for name := range set {
		subjects = append(subjects, name)
	}
	sort.Strings(subjects)
	return subjects
}
