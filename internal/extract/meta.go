package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Meta tag ladders per field. Both property= and name= attributes are
// checked for every key.
var (
	metaTitleKeys       = []string{"og:title", "twitter:title"}
	metaDescriptionKeys = []string{"og:description", "description", "twitter:description"}
	metaPublishedKeys   = []string{"article:published_time", "og:article:published_time", "datePublished"}
	metaModifiedKeys    = []string{"article:modified_time", "og:updated_time", "dateModified"}
	metaSectionKeys     = []string{"article:section"}
	metaTagKeys         = []string{"article:tag"}
	metaKeywordKeys     = []string{"keywords", "news_keywords"}
	metaThumbnailKeys   = []string{"og:image", "og:image:url", "twitter:image"}
	metaAuthorKeys      = []string{"article:author", "author"}
	metaVideoKeys       = []string{"og:video", "og:video:url", "og:video:secure_url"}
	metaLocaleKeys      = []string{"og:locale"}
	metaSiteNameKeys    = []string{"og:site_name"}
)

// metaContent returns every non-empty content value for the given keys, in
// key order.
func metaContent(doc *goquery.Document, keys ...string) []string {
	var out []string
	for _, key := range keys {
		selector := fmt.Sprintf(`meta[property="%s"], meta[name="%s"]`, key, key)
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if content := CleanText(sel.AttrOr("content", "")); content != "" {
				out = append(out, content)
			}
		})
	}
	return out
}

// metaKeywords splits comma-separated keyword metas into individual tags.
func metaKeywords(doc *goquery.Document) []string {
	var out []string
	for _, raw := range metaContent(doc, metaKeywordKeys...) {
		for _, part := range strings.Split(raw, ",") {
			if part = CleanText(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
