package discovery

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// runDatedArchive renders the URL template for every day in the window,
// newest first, and pulls article links out of each page with the site's
// selectors. A failed day page is skipped; discovery continues.
func (e *Engine) runDatedArchive(ctx context.Context, desc DatedArchive, em *emitter) error {
	for _, day := range em.window.Days() {
		if ctx.Err() != nil {
			return crawl.WrapError(crawl.KindCancelled, ctx.Err(), "discovery canceled")
		}
		pageURL := desc.URLForDay(day)
		resp, err := e.fetchResource(ctx, pageURL, false)
		if err != nil {
			e.skipResource(pageURL, err)
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			e.skipResource(pageURL, crawl.WrapError(crawl.KindParse, err, "parse archive page"))
			continue
		}

		published := day
		var emitErr error
		doc.Find(desc.LinkSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, ok := sel.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				return true
			}
			title := strings.TrimSpace(sel.Text())
			if desc.TitleSelector != "" {
				if t := strings.TrimSpace(sel.Find(desc.TitleSelector).First().Text()); t != "" {
					title = t
				}
			}
			emitErr = em.emit(crawl.DiscoveredLink{
				URL:         resolveURL(resp.URL, href),
				Title:       title,
				PublishedAt: &published,
			})
			return emitErr == nil
		})
		if emitErr != nil {
			return emitErr
		}
	}
	return nil
}
