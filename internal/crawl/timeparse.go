package crawl

import (
	"strings"
	"time"
)

// timeLayouts are the timestamp shapes seen across sitemaps, feeds, JSON-LD
// blocks, and meta tags, most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"January 2, 2006",
	"2 January 2006",
}

// ParseTime parses a timestamp in any supported layout. Date-only values
// come back at midnight UTC.
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ISO8601 renders t as an RFC 3339 UTC timestamp.
func ISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
