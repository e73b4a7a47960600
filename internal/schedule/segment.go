package schedule

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockMarker is injected into the cell markup before each image element
// and split on afterwards. It never survives into parsed output because
// the split happens on the raw string, before re-parsing.
const blockMarker = "\x00"

// SplitLessonBlocks splits one details cell into the lesson blocks it
// contains. The site marks each lesson entry with a small icon, so a new
// block is assumed to start immediately before every <img> element.
// A cell without image markers yields exactly one block; fragments with no
// visible text are dropped. Cells whose internal structure abandoned the
// icon convention may be mis-split, which is an accepted limitation of the
// heuristic.
func SplitLessonBlocks(cell *goquery.Selection) []*goquery.Selection {
	markup, err := goquery.OuterHtml(cell)
	if err != nil {
		return nil
	}

	marked := strings.ReplaceAll(markup, "<img", blockMarker+"<img")

	var blocks []*goquery.Selection
	for _, fragment := range strings.Split(marked, blockMarker) {
		if strings.TrimSpace(fragment) == "" {
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
		if err != nil {
			continue
		}
		if len(flattenLines(doc.Selection)) == 0 {
			continue
		}
		blocks = append(blocks, doc.Selection)
	}
	return blocks
}
