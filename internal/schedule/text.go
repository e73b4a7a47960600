package schedule

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// flattenLines returns the visible text of sel as trimmed non-empty lines,
// one line per text run. Runs are kept separate even when the markup joins
// them without whitespace, which is what lets the classifier treat each
// run as a candidate line.
func flattenLines(sel *goquery.Selection) []string {
	var lines []string
	for _, chunk := range textRuns(sel) {
		for _, part := range strings.Split(chunk, "\n") {
			if t := strings.TrimSpace(part); t != "" {
				lines = append(lines, t)
			}
		}
	}
	return lines
}

// joinText trims every text run in sel and joins the non-empty ones with sep.
func joinText(sel *goquery.Selection, sep string) string {
	var parts []string
	for _, chunk := range textRuns(sel) {
		if t := strings.TrimSpace(chunk); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, sep)
}

// firstTextNode returns the first non-empty direct child text node of sel,
// trimmed. Nested elements are not descended into: the date in a day
// heading precedes the nested weekday label.
func firstTextNode(sel *goquery.Selection) string {
	for _, node := range sel.Nodes {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.TextNode {
				continue
			}
			if t := strings.TrimSpace(c.Data); t != "" {
				return t
			}
		}
	}
	return ""
}

// textRuns collects every text node under sel in document order.
func textRuns(sel *goquery.Selection) []string {
	var runs []string
	for _, node := range sel.Nodes {
		collectTextNodes(node, &runs)
	}
	return runs
}

func collectTextNodes(n *html.Node, out *[]string) {
	if n.Type == html.TextNode {
		*out = append(*out, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTextNodes(c, out)
	}
}
