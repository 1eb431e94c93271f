package sites

import (
	"fmt"
	"strings"
	"time"

	"github.com/mediawatch/newscrawler/internal/crawl"
	"github.com/mediawatch/newscrawler/internal/discovery"
	"github.com/mediawatch/newscrawler/internal/extract"
	"github.com/mediawatch/newscrawler/internal/headless"
)

// Builtin returns the registry of shipped site adapters. Panics on
// construction errors since the adapter set is fixed at compile time.
func Builtin() *Registry {
	registry, err := NewRegistry(
		newGlobeHerald(),
		newCourierWire(),
		newPacificLedger(),
		newMetroDespatch(),
		newHarborPost(),
		newCivicPress(),
	)
	if err != nil {
		panic(err)
	}
	return registry
}

// globeHerald publishes a monthly-sharded sitemap index and gates its video
// pages behind script execution.
type globeHerald struct {
	BaseAdapter
}

func newGlobeHerald() globeHerald {
	rules := extract.DefaultRules()
	rules.RequireMainBlock = true
	rules.DefaultLanguage = "en"
	rules.DefaultCountry = "US"
	return globeHerald{BaseAdapter{
		SiteID: "globeherald",
		Source: discovery.XMLSitemapIndex{
			RootURL: "https://www.globeherald.com/sitemap_index.xml",
			EntryFilter: func(loc string) bool {
				return strings.Contains(loc, "/post-sitemap")
			},
		},
		Extraction: rules,
	}}
}

func (globeHerald) EscalationFor(rawURL string) *headless.Escalation {
	if !strings.Contains(rawURL, "/video/") {
		return nil
	}
	return &headless.Escalation{
		WaitSelector:  "div.video-player",
		ClickSelector: "div.video-player button.play",
		VideoReads: []headless.AttrRead{
			{Selector: "div.video-player video", Attr: "src"},
			{Selector: "div.video-player video source", Attr: "src"},
		},
	}
}

// courierWire serves a single Google News sitemap.
type courierWire struct {
	BaseAdapter
}

func newCourierWire() courierWire {
	rules := extract.DefaultRules()
	rules.Body = []extract.Selector{"div.story-content p"}
	rules.DefaultLanguage = "en"
	rules.DefaultCountry = "GB"
	return courierWire{BaseAdapter{
		SiteID: "courierwire",
		Source: discovery.XMLNewsSitemap{
			URL: "https://www.courierwire.co.uk/sitemaps/news.xml",
		},
		Extraction: rules,
	}}
}

// pacificLedger compresses its sitemap and renders body text in nested
// markup, so descendant text is collected.
type pacificLedger struct {
	BaseAdapter
}

func newPacificLedger() pacificLedger {
	rules := extract.DefaultRules()
	rules.TextFromAllDescendants = true
	rules.DefaultLanguage = "en"
	rules.DefaultCountry = "AU"
	return pacificLedger{BaseAdapter{
		SiteID: "pacificledger",
		Source: discovery.GzippedSitemap{
			URL: "https://www.pacificledger.com.au/sitemap-news.xml.gz",
		},
		Extraction: rules,
	}}
}

// metroDespatch has no sitemap; its archive publishes one page per day.
type metroDespatch struct {
	BaseAdapter
}

func newMetroDespatch() metroDespatch {
	rules := extract.DefaultRules()
	rules.Title = []extract.Selector{"h1.entry-title"}
	rules.Body = []extract.Selector{"div.entry-content p"}
	rules.DefaultLanguage = "es"
	rules.DefaultCountry = "MX"
	return metroDespatch{BaseAdapter{
		SiteID: "metrodespatch",
		Source: discovery.DatedArchive{
			URLForDay: func(day time.Time) string {
				return fmt.Sprintf("https://www.metrodespatch.mx/archivo/%s/", day.Format("2006/01/02"))
			},
			LinkSelector:  "article h2 a",
			TitleSelector: "",
		},
		Extraction: rules,
	}}
}

// harborPost exposes its article list only through a paginated JSON API.
type harborPost struct {
	BaseAdapter
}

func newHarborPost() harborPost {
	rules := extract.DefaultRules()
	rules.JSONBlockSelectors = []string{"script#article-state"}
	rules.DefaultLanguage = "en"
	rules.DefaultCountry = "CA"
	return harborPost{BaseAdapter{
		SiteID: "harborpost",
		Source: discovery.PaginatedJSON{
			Endpoint:   "https://www.harborpost.ca/api/v2/articles",
			Method:     "GET",
			PageParam:  "page",
			RecordsKey: "articles",
			MapRecord:  harborPostRecord,
			Stop:       harborPostStop,
		},
		Extraction: rules,
	}}
}

func harborPostRecord(record map[string]any) (crawl.DiscoveredLink, bool) {
	link := crawl.DiscoveredLink{}
	u, _ := record["url"].(string)
	if u == "" {
		return link, false
	}
	link.URL = u
	link.Title, _ = record["title"].(string)
	if raw, ok := record["published_at"].(string); ok {
		if t, ok := crawl.ParseTime(raw); ok {
			link.PublishedAt = &t
		}
	}
	return link, true
}

// harborPostStop ends paging once the API, which returns newest first,
// crosses below the window start.
func harborPostStop(record map[string]any, window crawl.Window) bool {
	raw, ok := record["published_at"].(string)
	if !ok {
		return false
	}
	t, ok := crawl.ParseTime(raw)
	if !ok {
		return false
	}
	return crawl.Day(t).Before(crawl.Day(window.Start))
}

// civicPress is discovered through its RSS feed.
type civicPress struct {
	BaseAdapter
}

func newCivicPress() civicPress {
	rules := extract.DefaultRules()
	rules.Section = []extract.Selector{"nav.crumbs a", ".breadcrumb a"}
	rules.DefaultLanguage = "de"
	rules.DefaultCountry = "DE"
	return civicPress{BaseAdapter{
		SiteID: "civicpress",
		Source: discovery.RSSFeed{
			URL: "https://www.civicpress.de/rss/aktuell.xml",
		},
		Extraction: rules,
	}}
}
