package schedule

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/sliceutil"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/stringutil"
)

// Classification predicates, one per rule so each is testable on its own.
var (
	// "*(Л) Вища математика" — leading asterisk, parenthesized type code,
	// then the subject text.
	subjectTypeRegex = regexp.MustCompile(`^\*\((.+?)\)\s*(.+)$`)

	// "викладач Іванов І.І." — the word "teacher" followed by a name.
	teacherRegex = regexp.MustCompile(`(?i)викладач\s+(.+)`)

	// Group codes shaped like ІПм-24-1: letters/digits/hyphens ending in
	// -<number>-<number>.
	groupCodeRegex = regexp.MustCompile(`[\p{L}\p{N}_\s-]+-\d+-\d+`)

	// Bare URLs inside text lines (anchors are handled separately).
	bareURLRegex = regexp.MustCompile(`https?://\S+`)

	// "підгр. 2" — subgroup marker followed by a digit.
	subgroupRegex = regexp.MustCompile(`(?i)підгр\.\s*\d`)

	// Any parenthesized fragment, used by the fallback to pull a lesson
	// type out of an unmarked subject line.
	parenTypeRegex = regexp.MustCompile(`\((.+?)\)`)
)

// remoteMarker appears in lines that only say the lesson is held online;
// such lines are never subjects.
const remoteMarker = "дистанційно"

// ClassifyLessonBlock classifies one lesson block into a Lesson record.
//
// Link targets are taken from anchor elements independent of the text.
// Each visible line is then run through the rules in priority order; a
// line may satisfy several rules (a teacher line can also carry group
// codes), but subject detection short-circuits once a subject is found.
// A block matching no rule yields a record with an empty Subject, never an
// error: the worst case is an under-populated record.
func ClassifyLessonBlock(block *goquery.Selection) Lesson {
	var lesson Lesson

	var links []string
	block.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && strings.TrimSpace(href) != "" {
			links = append(links, strings.TrimSpace(href))
		}
	})
	lesson.Links = sliceutil.SortedUnique(links)

	lines := flattenLines(block)

	var teachers, groups []string
	subjectFound := false

	for _, line := range lines {
		if !subjectFound {
			if m := subjectTypeRegex.FindStringSubmatch(line); m != nil {
				lesson.Type = strings.TrimSpace(m[1])
				lesson.Subject = strings.TrimSpace(m[2])
				subjectFound = true
				continue
			}
		}

		if m := teacherRegex.FindStringSubmatch(line); m != nil {
			teachers = append(teachers, strings.TrimSpace(m[1]))
			continue
		}

		for _, code := range groupCodeRegex.FindAllString(line, -1) {
			groups = append(groups, strings.TrimSpace(code))
		}

		if m := subgroupRegex.FindString(line); m != "" {
			lesson.Subgroup = m
		}
	}

	if !subjectFound {
		lesson.Subject, lesson.Type = fallbackSubject(lines)
	}

	lesson.Teachers = sliceutil.Deduplicate(teachers, func(s string) string { return s })
	if len(lesson.Teachers) == 0 {
		lesson.Teachers = nil
	}
	lesson.Groups = sliceutil.SortedUnique(groups)

	return lesson
}

// fallbackSubject picks the most likely subject line when no line matched
// the explicit "*(TYPE) SUBJECT" form: the first line that is not a
// teacher, not a bare URL, not a group list and not a remote-only marker.
// A parenthesized fragment inside the chosen line is extracted as the
// lesson type and stripped from the subject.
func fallbackSubject(lines []string) (subject, lessonType string) {
	for _, line := range lines {
		if teacherRegex.MatchString(line) ||
			bareURLRegex.MatchString(line) ||
			groupCodeRegex.MatchString(line) ||
			stringutil.ContainsFold(line, remoteMarker) {
			continue
		}

		subject = line
		if m := parenTypeRegex.FindStringSubmatch(line); m != nil {
			lessonType = m[1]
			subject = strings.TrimSpace(strings.Replace(line, "("+m[1]+")", "", 1))
		}
		return subject, lessonType
	}
	return "", ""
}
