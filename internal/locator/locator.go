// Package locator scans the landing page markup for artifact download links.
package locator

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/etl"
)

// Label patterns for the artifacts published on the landing page.
const (
	PatternCityDoc    = `Doc`
	PatternDashboard  = `COVID-?19 Dashboard - `
	PatternRawData    = `COVID-?19 Raw Data`
	PatternWeeklyData = `Weekly.*Raw Data`
)

// Locator finds download links by anchor-text pattern.
type Locator struct {
	doc    *goquery.Document
	base   *url.URL
	logger *zap.Logger
}

// New parses the page markup. baseURL resolves relative hrefs.
func New(pageHTML []byte, baseURL string, logger *zap.Logger) (*Locator, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse page markup: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &Locator{doc: doc, base: base, logger: logger}, nil
}

// FindLink returns the absolute URL of the first anchor whose text matches
// the case-insensitive pattern. Returns etl.ErrLinkNotFound when no anchor
// matches, which is fatal for the run.
func (l *Locator) FindLink(labelPattern string) (string, error) {
	re, err := regexp.Compile(`(?i)` + labelPattern)
	if err != nil {
		return "", fmt.Errorf("compile label pattern %q: %w", labelPattern, err)
	}

	var href string
	var found bool
	l.doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if !re.MatchString(text) {
			return true
		}
		h, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(h) == "" {
			return true
		}
		href = h
		found = true
		l.logger.Debug("matched download link",
			zap.String("pattern", labelPattern),
			zap.String("anchor_text", text),
			zap.String("href", h),
		)
		return false
	})
	if !found {
		return "", fmt.Errorf("pattern %q: %w", labelPattern, etl.ErrLinkNotFound)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse link href %q: %w", href, err)
	}
	return l.base.ResolveReference(ref).String(), nil
}

// filenameRe captures the first three dash-separated segments of a download
// link, the convention the source site uses for dated artifact names.
var filenameRe = regexp.MustCompile(`([^-]*-[^-]*-[^-]*)-[^-]*/download`)

// DeriveFilename extracts the date-bearing stem of a download URL and turns
// it into an identifier-friendly name. Falls back to the last path segment.
func DeriveFilename(downloadURL string) string {
	if m := filenameRe.FindStringSubmatch(downloadURL); m != nil {
		return strings.ReplaceAll(m[1], "-", "_")
	}
	trimmed := strings.TrimSuffix(downloadURL, "/download")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return strings.ReplaceAll(trimmed, "-", "_")
}

// Recency classifies a date-bearing artifact relative to the run date.
type Recency int

// Artifact recency buckets used to pick the output filename date stamp.
const (
	RecencyToday Recency = iota
	RecencyYesterday
	RecencyOlder
)

// String returns the log form of the recency bucket.
func (r Recency) String() string {
	switch r {
	case RecencyToday:
		return "today"
	case RecencyYesterday:
		return "yesterday"
	default:
		return "older"
	}
}

// dashboardDateRe matches the month-day-year convention embedded in the
// dashboard link, e.g. "may-12-2020" or "5-12-2020".
var dashboardDateRe = regexp.MustCompile(`(?i)([a-z]+|\d{1,2})-(\d{1,2})-(\d{4})`)

// ClassifyDate parses the month/day/year embedded in a link or label and
// classifies it against now. Only the day-of-month is compared: the source
// labels sometimes carry a stale month, and cross-month same-day collisions
// are rare enough to ignore.
func ClassifyDate(label string, now time.Time) (day int, year int, recency Recency, err error) {
	m := dashboardDateRe.FindStringSubmatch(label)
	if m == nil {
		return 0, 0, RecencyOlder, fmt.Errorf("no embedded date in %q", label)
	}
	day = atoiSafe(m[2])
	year = atoiSafe(m[3])
	if day < 1 || day > 31 {
		return 0, 0, RecencyOlder, fmt.Errorf("implausible day %d in %q", day, label)
	}

	switch day {
	case now.Day():
		recency = RecencyToday
	case now.AddDate(0, 0, -1).Day():
		recency = RecencyYesterday
	default:
		recency = RecencyOlder
	}
	return day, year, recency, nil
}

// DateStamp returns the date to embed in derived filenames for the given
// recency: the run date for today's artifact, the prior day for yesterday's,
// and the run date as a fallback for anything older.
func DateStamp(recency Recency, now time.Time) time.Time {
	if recency == RecencyYesterday {
		return now.AddDate(0, 0, -1)
	}
	return now
}

func atoiSafe(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
