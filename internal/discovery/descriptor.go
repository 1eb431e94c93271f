// Package discovery turns a site's discovery descriptor into a stream of
// candidate article links bounded by a date window.
package discovery

import (
	"net/http"
	"time"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// Descriptor is the tagged union of discovery source shapes. Exactly one
// concrete variant below implements it per site.
type Descriptor interface {
	variant() string
}

// XMLSitemapIndex walks a two-level sitemap: the root lists sub-sitemaps,
// each sub-sitemap lists articles. Sub-sitemaps whose URL encodes a month or
// year outside the window are pruned without fetching.
type XMLSitemapIndex struct {
	RootURL string
	// EntryFilter, when set, limits which sub-sitemap locations are walked.
	EntryFilter func(loc string) bool
}

func (XMLSitemapIndex) variant() string { return "xml_sitemap_index" }

// XMLNewsSitemap walks a single news sitemap carrying publication dates and
// titles in the Google News extension.
type XMLNewsSitemap struct {
	URL string
}

func (XMLNewsSitemap) variant() string { return "xml_news_sitemap" }

// GzippedSitemap is a single sitemap served as a raw gzip object.
type GzippedSitemap struct {
	URL string
}

func (GzippedSitemap) variant() string { return "gzipped_sitemap" }

// DatedArchive iterates one archive page per day in the window and applies
// CSS selectors to extract article links.
type DatedArchive struct {
	URLForDay     func(day time.Time) string
	LinkSelector  string
	TitleSelector string
}

func (DatedArchive) variant() string { return "dated_archive" }

// PaginatedJSON pages through a JSON list endpoint until the stop predicate
// fires or a page comes back empty.
type PaginatedJSON struct {
	Endpoint  string
	Method    string // GET or POST; GET appends the page as a query parameter
	PageParam string
	Headers   http.Header
	// RecordsKey names the field holding the record array; empty means the
	// response body is the array itself.
	RecordsKey string
	// MapRecord converts one record into a link; return false to skip it.
	MapRecord func(record map[string]any) (crawl.DiscoveredLink, bool)
	// Stop ends discovery as soon as it returns true for a record. The
	// triggering record is not emitted.
	Stop func(record map[string]any, window crawl.Window) bool
}

func (PaginatedJSON) variant() string { return "paginated_json" }

// RSSFeed emits one link per feed item.
type RSSFeed struct {
	URL string
}

func (RSSFeed) variant() string { return "rss_feed" }
