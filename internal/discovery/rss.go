package discovery

import (
	"bytes"
	"context"

	"github.com/mmcdole/gofeed"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// runRSSFeed fetches the feed through the normal fetcher (so politeness and
// proxies apply) and hands the body to gofeed, which copes with RSS and Atom
// alike.
func (e *Engine) runRSSFeed(ctx context.Context, desc RSSFeed, em *emitter) error {
	resp, err := e.fetchResource(ctx, desc.URL, false)
	if err != nil {
		return crawl.WrapError(crawl.KindOf(err), err, "feed root")
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return crawl.WrapError(crawl.KindParse, err, "parse feed")
	}
	for _, item := range feed.Items {
		link := crawl.DiscoveredLink{
			URL:   resolveURL(resp.URL, item.Link),
			Title: item.Title,
		}
		switch {
		case item.PublishedParsed != nil:
			link.PublishedAt = item.PublishedParsed
		case item.UpdatedParsed != nil:
			link.PublishedAt = item.UpdatedParsed
		}
		if err := em.emit(link); err != nil {
			return err
		}
	}
	return nil
}
