// Package dekanat fetches group timetables from the dekanat.nung.edu.ua
// CGI endpoint.
//
// The endpoint accepts either a GET with a stable numeric group identifier
// or a POST with the group display name. Names must be URL-encoded in
// windows-1251; the response body is windows-1251 too (decoded by the
// scraper client).
package dekanat

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/metrics"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/scraper"
	"github.com/vitPrograms/NUNG-Schedule-Bot/internal/stringutil"
)

const (
	timetablePath = "/cgi-bin/timetable.cgi"

	// groupFoundMarker appears in the page body when the site recognized
	// the requested group. Its absence means "group not found", even on a
	// 200 response.
	groupFoundMarker = "Розклад групи"
)

var groupIDRegex = regexp.MustCompile(`group=(-?\d+)`)

// Scraper fetches timetable pages for one base URL.
type Scraper struct {
	client  *scraper.Client
	baseURL string
	metrics *metrics.Metrics
}

// New creates a timetable scraper against the given base URL.
func New(client *scraper.Client, baseURL string) *Scraper {
	return &Scraper{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// SetMetrics attaches request instrumentation. Optional; a nil receiver
// field means no metrics are recorded.
func (s *Scraper) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *Scraper) observe(method string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.ScraperRequestsTotal.WithLabelValues(method, status).Inc()
	s.metrics.ScraperDurationSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// FetchSchedule fetches the timetable page for a group identifier.
// A signed-integer-shaped identifier is the site's stable group id and
// routes to a GET; anything else is treated as a group display name and
// routes to a POST with the name encoded in windows-1251.
// No retry and no caching: every call hits the site once.
func (s *Scraper) FetchSchedule(ctx context.Context, identifier string) (*goquery.Document, error) {
	if stringutil.IsSignedNumeric(identifier) {
		url := fmt.Sprintf("%s%s?n=700&group=%s", s.baseURL, timetablePath, identifier)
		start := time.Now()
		doc, err := s.client.GetDocument(ctx, url)
		s.observe("get", start, err)
		if err != nil {
			return nil, fmt.Errorf("fetch schedule for group id %s: %w", identifier, err)
		}
		return doc, nil
	}

	return s.fetchByName(ctx, identifier)
}

// fetchByName issues the POST variant of the timetable query.
func (s *Scraper) fetchByName(ctx context.Context, groupName string) (*goquery.Document, error) {
	encodedName, err := encodeWindows1251Query(groupName)
	if err != nil {
		// Characters outside the code page make the group unrepresentable
		// for the site; treat it as a fetch failure, not a crash.
		return nil, fmt.Errorf("encode group name %q to windows-1251: %w", groupName, err)
	}

	url := fmt.Sprintf("%s%s?n=700", s.baseURL, timetablePath)
	payload := fmt.Sprintf("faculty=0&teacher=&course=0&group=%s&sdate=&edate=&n=700", encodedName)

	start := time.Now()
	doc, err := s.client.PostFormDocumentRaw(ctx, url, payload)
	s.observe("post", start, err)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule for group %q: %w", groupName, err)
	}
	return doc, nil
}

// HasSchedule reports whether the fetched page carries the marker phrase
// the site renders for a recognized group.
func HasSchedule(doc *goquery.Document) bool {
	return strings.Contains(doc.Text(), groupFoundMarker)
}

// ExtractGroupID pulls the stable numeric group id out of the page's
// heading link, for later GET fetches. Returns "" when the link is absent.
func ExtractGroupID(doc *goquery.Document) string {
	link := doc.Find(`h4.hidden-xs a[href*="group="]`).First()
	href, ok := link.Attr("href")
	if !ok {
		return ""
	}

	match := groupIDRegex.FindStringSubmatch(href)
	if match == nil {
		return ""
	}
	return match[1]
}

// encodeWindows1251Query encodes s to windows-1251 and percent-escapes
// every byte that is not an unreserved URL character.
func encodeWindows1251Query(s string) (string, error) {
	encoded, _, err := transform.String(charmap.Windows1251.NewEncoder(), s)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String(), nil
}
