package discovery

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

func archiveDescriptor() DatedArchive {
	return DatedArchive{
		URLForDay: func(day time.Time) string {
			return fmt.Sprintf("https://site.test/archive/%s/", day.Format("2006/01/02"))
		},
		LinkSelector: "article h2 a",
	}
}

func archivePage(day string) string {
	return fmt.Sprintf(`<html><body>
<article><h2><a href="/stories/%s-first">First of %s</a></h2></article>
<article><h2><a href="/stories/%s-second">Second of %s</a></h2></article>
<aside><a href="/about">About us</a></aside>
</body></html>`, day, day, day, day)
}

func TestDatedArchive_OnePagePerDay(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.serve("https://site.test/archive/2023/04/10/", archivePage("mon"))
	fetcher.serve("https://site.test/archive/2023/04/11/", archivePage("tue"))
	fetcher.serve("https://site.test/archive/2023/04/12/", archivePage("wed"))

	links, err := collectLinks(t, fetcher, archiveDescriptor(),
		mustWindow(t, "2023-04-10", "2023-04-12"))
	require.NoError(t, err)
	require.Len(t, links, 6)
	require.Len(t, fetcher.requests(), 3)

	// Newest day first, relative hrefs resolved against the page URL.
	require.Equal(t, "https://site.test/stories/wed-first", links[0].URL)
	require.Equal(t, "First of wed", links[0].Title)
	require.NotNil(t, links[0].PublishedAt)
	require.Equal(t, time.Date(2023, 4, 12, 0, 0, 0, 0, time.UTC), *links[0].PublishedAt)
	require.Equal(t, time.Date(2023, 4, 10, 0, 0, 0, 0, time.UTC), *links[5].PublishedAt)
}

func TestDatedArchive_FailedDayIsSkipped(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.serve("https://site.test/archive/2023/04/10/", archivePage("mon"))
	fetcher.fail("https://site.test/archive/2023/04/11/",
		crawl.NewError(crawl.KindNetworkTransient, "timeout"))
	fetcher.serve("https://site.test/archive/2023/04/12/", archivePage("wed"))

	links, err := collectLinks(t, fetcher, archiveDescriptor(),
		mustWindow(t, "2023-04-10", "2023-04-12"))
	require.NoError(t, err)
	require.Len(t, links, 4)
}

func TestDatedArchive_TitleSelector(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<div class="teaser"><a href="/stories/one"><span class="headline">Proper headline</span><span>byline</span></a></div>
</body></html>`
	fetcher := newFakeFetcher()
	fetcher.serve("https://site.test/archive/2023/04/10/", page)

	desc := archiveDescriptor()
	desc.LinkSelector = "div.teaser a"
	desc.TitleSelector = "span.headline"

	links, err := collectLinks(t, fetcher, desc, mustWindow(t, "2023-04-10", "2023-04-10"))
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, "Proper headline", links[0].Title)
}
