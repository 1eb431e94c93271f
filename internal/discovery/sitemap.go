package discovery

import (
	"context"
	"encoding/xml"
	"regexp"
	"strconv"
	"time"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string      `xml:"loc"`
	LastMod string      `xml:"lastmod"`
	News    sitemapNews `xml:"news"`
}

type sitemapNews struct {
	PublicationDate string `xml:"publication_date"`
	Title           string `xml:"title"`
}

func (e *Engine) runSitemapIndex(ctx context.Context, desc XMLSitemapIndex, em *emitter) error {
	root, err := e.fetchResource(ctx, desc.RootURL, true)
	if err != nil {
		return crawl.WrapError(crawl.KindOf(err), err, "sitemap index root")
	}
	var index sitemapIndex
	if err := xml.Unmarshal(root.Body, &index); err != nil {
		return crawl.WrapError(crawl.KindParse, err, "parse sitemap index")
	}

	for _, entry := range index.Sitemaps {
		if ctx.Err() != nil {
			return crawl.WrapError(crawl.KindCancelled, ctx.Err(), "discovery canceled")
		}
		loc := resolveURL(root.URL, entry.Loc)
		if desc.EntryFilter != nil && !desc.EntryFilter(loc) {
			continue
		}
		if start, end, ok := sitemapPeriod(loc); ok && !em.window.Intersects(start, end) {
			continue
		}
		if err := e.walkSitemap(ctx, loc, em); err != nil {
			if crawl.KindOf(err) == crawl.KindCancelled {
				return err
			}
			e.skipResource(loc, err)
		}
	}
	return nil
}

func (e *Engine) runSingleSitemap(ctx context.Context, rawURL string, em *emitter) error {
	if err := e.walkSitemap(ctx, rawURL, em); err != nil {
		return crawl.WrapError(crawl.KindOf(err), err, "sitemap root")
	}
	return nil
}

func (e *Engine) walkSitemap(ctx context.Context, rawURL string, em *emitter) error {
	resp, err := e.fetchResource(ctx, rawURL, true)
	if err != nil {
		return err
	}
	var set urlSet
	if err := xml.Unmarshal(resp.Body, &set); err != nil {
		return crawl.WrapError(crawl.KindParse, err, "parse sitemap")
	}
	for _, entry := range set.URLs {
		link := crawl.DiscoveredLink{
			URL:   resolveURL(resp.URL, entry.Loc),
			Title: entry.News.Title,
		}
		if t, ok := entryDate(entry); ok {
			link.PublishedAt = &t
		}
		if err := em.emit(link); err != nil {
			return err
		}
	}
	return nil
}

// entryDate prefers the news extension publication date over lastmod.
func entryDate(entry sitemapURL) (time.Time, bool) {
	if t, ok := crawl.ParseTime(entry.News.PublicationDate); ok {
		return t, true
	}
	return crawl.ParseTime(entry.LastMod)
}

var (
	yearMonthRe = regexp.MustCompile(`(20\d{2})[-/_.](\d{1,2})(?:\D|$)`)
	yearOnlyRe  = regexp.MustCompile(`[-/_.](20\d{2})(?:\D|$)`)
)

// sitemapPeriod recovers the calendar period encoded in a sub-sitemap URL,
// when there is one, so sitemaps that cannot intersect the window are
// skipped without a fetch.
func sitemapPeriod(loc string) (start, end time.Time, ok bool) {
	if m := yearMonthRe.FindStringSubmatch(loc); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			return start, start.AddDate(0, 1, -1), true
		}
	}
	if m := yearOnlyRe.FindStringSubmatch(loc); m != nil {
		year, _ := strconv.Atoi(m[1])
		start = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, -1), true
	}
	return time.Time{}, time.Time{}, false
}
