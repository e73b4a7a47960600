package schedule

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// detailsCell parses a <td> fragment and returns its selection.
func detailsCell(t *testing.T, inner string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<html><body><table><tr><td id=\"cell\">" + inner + "</td></tr></table></body></html>"))
	require.NoError(t, err)
	cell := doc.Find("td#cell")
	require.Equal(t, 1, cell.Length())
	return cell
}

func TestSplitLessonBlocks(t *testing.T) {
	t.Run("Two image markers yield two blocks", func(t *testing.T) {
		cell := detailsCell(t, `<img src="i.png"> Перший урок<br><img src="i.png"> Другий урок`)
		blocks := SplitLessonBlocks(cell)
		require.Len(t, blocks, 2)

		assert.Contains(t, blocks[0].Text(), "Перший")
		assert.Contains(t, blocks[1].Text(), "Другий")
		assert.NotContains(t, blocks[0].Text(), "Другий")
	})

	t.Run("No markers yield one block", func(t *testing.T) {
		cell := detailsCell(t, `Вища математика<br>викладач Іванов І.І.`)
		blocks := SplitLessonBlocks(cell)
		require.Len(t, blocks, 1)
		assert.Contains(t, blocks[0].Text(), "Вища математика")
	})

	t.Run("Textless fragments are dropped", func(t *testing.T) {
		// The leading fragment before the first img has no visible text.
		cell := detailsCell(t, `<br> <img src="i.png"> Урок`)
		blocks := SplitLessonBlocks(cell)
		require.Len(t, blocks, 1)
		assert.Contains(t, blocks[0].Text(), "Урок")
	})

	t.Run("Empty cell yields no blocks", func(t *testing.T) {
		cell := detailsCell(t, ` <br> `)
		assert.Empty(t, SplitLessonBlocks(cell))
	})

	t.Run("Three concurrent lessons", func(t *testing.T) {
		cell := detailsCell(t, `<img> А (підгр. 1)<br><img> Б (підгр. 2)<br><img> В`)
		assert.Len(t, SplitLessonBlocks(cell), 3)
	})
}
