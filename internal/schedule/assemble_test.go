package schedule

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scherrors "github.com/vitPrograms/NUNG-Schedule-Bot/internal/errors"
)

// weekPage is a trimmed-down version of the dekanat timetable markup:
// one regular day, one day with a two-lesson slot, one empty day.
const weekPage = `<html><body>
<h4 class="hidden-xs"><a href="timetable.cgi?n=700&group=-1985">ІПм-24-1</a></h4>
<div class="col-md-6">
  <h4>27.10.2025 <small>Понеділок</small></h4>
  <table class="table">
    <tr><td>1</td><td>08:30<br>10:05</td>
        <td><img src="i.png"> *(Л) Вища математика<br>викладач Іванов І.І.<br>ІПм-24-1<br><a href="https://meet.example.com/m">посилання</a></td></tr>
    <tr><td>2</td><td>10:20<br>11:55</td><td>  </td></tr>
    <tr><td colspan="2">службовий рядок</td></tr>
  </table>
</div>
<div class="col-md-6">
  <h4>28.10.2025 <small>Вівторок</small></h4>
  <table class="table">
    <tr><td>3</td><td>12:10<br>13:45</td>
        <td><img src="i.png"> *(Пр) Економіка (вибіркова)<br>підгр. 1<br><img src="i.png"> *(Лаб) Хімія<br>підгр. 2</td></tr>
  </table>
</div>
<div class="col-md-6">
  <h4>29.10.2025 <small>Середа</small></h4>
</div>
</body></html>`

func parsePage(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func TestParseWeekPage(t *testing.T) {
	sched, err := Parse(parsePage(t, weekPage))
	require.NoError(t, err)
	require.Len(t, sched.Days, 3)

	monday := sched.Days[0]
	assert.Equal(t, "27.10.2025", monday.Date, "date is kept verbatim")
	assert.Equal(t, "Понеділок", monday.DayOfWeek)
	require.Len(t, monday.Slots, 1, "empty details and non-3-column rows are skipped")

	slot := monday.Slots[0]
	assert.Equal(t, "1", slot.Number)
	assert.Equal(t, "08:30-10:05", slot.Time)
	require.Len(t, slot.Lessons, 1)

	lesson := slot.Lessons[0]
	assert.Equal(t, "Вища математика", lesson.Subject)
	assert.Equal(t, "Л", lesson.Type)
	assert.Equal(t, []string{"Іванов І.І."}, lesson.Teachers)
	assert.Equal(t, []string{"ІПм-24-1"}, lesson.Groups)
	assert.Equal(t, []string{"https://meet.example.com/m"}, lesson.Links)
}

func TestParseConcurrentLessons(t *testing.T) {
	sched, err := Parse(parsePage(t, weekPage))
	require.NoError(t, err)

	tuesday := sched.Days[1]
	require.Len(t, tuesday.Slots, 1)
	require.Len(t, tuesday.Slots[0].Lessons, 2, "one slot can hold concurrent subgroup lessons")

	assert.Equal(t, "Економіка (вибіркова)", tuesday.Slots[0].Lessons[0].Subject)
	assert.Equal(t, "підгр. 1", tuesday.Slots[0].Lessons[0].Subgroup)
	assert.Equal(t, "Хімія", tuesday.Slots[0].Lessons[1].Subject)
	assert.Equal(t, "підгр. 2", tuesday.Slots[0].Lessons[1].Subgroup)
}

func TestParseDayWithoutTable(t *testing.T) {
	sched, err := Parse(parsePage(t, weekPage))
	require.NoError(t, err)

	wednesday := sched.Days[2]
	assert.Equal(t, "29.10.2025", wednesday.Date)
	assert.Empty(t, wednesday.Slots, "a day with no table is a valid empty day")
}

func TestParseNoDayContainers(t *testing.T) {
	_, err := Parse(parsePage(t, `<html><body><p>Групу не знайдено</p></body></html>`))
	require.Error(t, err)
	assert.ErrorIs(t, err, scherrors.ErrNoSchedule)
}

func TestParseSkipsHeadingLessDay(t *testing.T) {
	page := `<html><body><div class="col-md-6"><table class="table"></table></div></body></html>`
	_, err := Parse(parsePage(t, page))
	assert.ErrorIs(t, err, scherrors.ErrNoSchedule)
}

func TestParseDuplicateDatesKeepFirst(t *testing.T) {
	page := `<html><body>
	<div class="col-md-6"><h4>27.10.2025 <small>Пн</small></h4></div>
	<div class="col-md-6"><h4>27.10.2025 <small>Інший</small></h4></div>
	</body></html>`

	sched, err := Parse(parsePage(t, page))
	require.NoError(t, err)
	require.Len(t, sched.Days, 1)
	assert.Equal(t, "Пн", sched.Days[0].DayOfWeek)
}

func TestParseMissingWeekdayLabel(t *testing.T) {
	page := `<html><body><div class="col-md-6"><h4>30.10.2025</h4></div></body></html>`

	sched, err := Parse(parsePage(t, page))
	require.NoError(t, err)
	assert.Equal(t, "", sched.Days[0].DayOfWeek)
}

func TestParseIdempotence(t *testing.T) {
	doc := parsePage(t, weekPage)

	first, err := Parse(doc)
	require.NoError(t, err)
	second, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-running the assembler must yield structurally equal results")
}
