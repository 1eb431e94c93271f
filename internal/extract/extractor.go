package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mediawatch/newscrawler/internal/crawl"
	"github.com/mediawatch/newscrawler/internal/headless"
)

// Extractor transforms one fetched response into a NormalizedArticle using
// a site's extraction rules. It is stateless across articles and safe for
// concurrent use.
type Extractor struct {
	browser headless.Browser
	logger  *zap.Logger
}

// New constructs an Extractor. A nil browser behaves like headless.Noop.
func New(browser headless.Browser, logger *zap.Logger) *Extractor {
	if browser == nil {
		browser = headless.Noop{}
	}
	return &Extractor{browser: browser, logger: logger}
}

// Extract runs the normalization pipeline. Missing fields never fail the
// article; the only hard failures are an unparseable body and a missing
// mandatory main block.
func (x *Extractor) Extract(
	ctx context.Context,
	resp crawl.Response,
	rules Rules,
	esc *headless.Escalation,
) (crawl.NormalizedArticle, error) {
	body := resp.Body
	var escalatedVideos []string
	if esc != nil {
		rendered, videos, ok := x.escalate(ctx, resp.URL, *esc)
		if ok {
			body = rendered
			escalatedVideos = videos
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return crawl.NormalizedArticle{}, crawl.WrapError(crawl.KindParse, err, "parse article HTML")
	}

	blocks := CollectBlocks(doc, rules.JSONBlockSelectors)
	if rules.RequireMainBlock && blocks.Main == nil {
		return crawl.NormalizedArticle{}, crawl.NewError(
			crawl.KindExtractionIncomplete, "no article-typed structured block in %s", resp.URL)
	}

	// Script and style text must not leak into body text; blocks were
	// already collected above.
	doc.Find("script, style").Remove()

	article := crawl.NormalizedArticle{
		RawResponse: crawl.RawPayload{
			ContentType: resp.ContentType,
			Content:     string(resp.Body),
		},
		ParsedJSON: blocks,
		ParsedData: x.deriveParsedData(doc, blocks, rules, resp.URL, escalatedVideos),
	}
	return article, nil
}

// escalate drives the headless browser. Failure of any kind downgrades to
// static extraction.
func (x *Extractor) escalate(ctx context.Context, url string, esc headless.Escalation) ([]byte, []string, bool) {
	result, err := x.browser.Render(ctx, url, esc)
	if err != nil {
		if errors.Is(err, headless.ErrUnavailable) {
			x.logger.Warn("headless escalation unavailable, extracting statically",
				zap.String("url", url))
		} else {
			x.logger.Warn("headless escalation failed, extracting statically",
				zap.String("url", url), zap.Error(err))
		}
		return nil, nil, false
	}
	return []byte(result.HTML), result.Videos, true
}

func (x *Extractor) deriveParsedData(
	doc *goquery.Document,
	blocks crawl.StructuredBlocks,
	rules Rules,
	base string,
	escalatedVideos []string,
) crawl.ParsedData {
	main := blocks.Main
	data := crawl.ParsedData{}

	data.Title = firstNonEmpty(
		blockStrings(main, "headline"),
		otherBlockStrings(blocks, "headline"),
		metaContent(doc, metaTitleKeys...),
		selectValues(doc, rules.Title),
	)
	data.Description = firstNonEmpty(
		blockStrings(main, "description"),
		otherBlockStrings(blocks, "description"),
		metaContent(doc, metaDescriptionKeys...),
		selectValues(doc, rules.Description),
	)
	data.PublishedAt = firstNonEmpty(
		toISOTimes(blockStrings(main, "datePublished")),
		toISOTimes(otherBlockStrings(blocks, "datePublished")),
		toISOTimes(metaContent(doc, metaPublishedKeys...)),
		toISOTimes(selectValues(doc, rules.PublishedAt)),
	)
	data.ModifiedAt = firstNonEmpty(
		toISOTimes(blockStrings(main, "dateModified")),
		toISOTimes(otherBlockStrings(blocks, "dateModified")),
		toISOTimes(metaContent(doc, metaModifiedKeys...)),
		toISOTimes(selectValues(doc, rules.ModifiedAt)),
	)
	data.Section = firstNonEmpty(
		blockStrings(main, "articleSection"),
		metaContent(doc, metaSectionKeys...),
		selectValues(doc, rules.Section),
	)

	data.Authors = x.deriveAuthors(doc, blocks, rules, base)
	data.Tags = x.deriveTags(doc, blocks, rules)
	data.Publisher = derivePublisher(doc, main)
	data.SourceLanguage, data.SourceCountry = deriveLocale(doc, rules)
	data.Text = bodyText(doc, rules)

	images := x.deriveImages(doc, blocks, rules, base)
	if thumb := deriveThumbnail(doc, images, rules, base); thumb != "" {
		data.ThumbnailImage = thumb
		images = dedupeImages(append([]crawl.Image{{Link: thumb}}, images...))
	}
	data.Images = images
	data.Videos = x.deriveVideos(doc, blocks, rules, base, escalatedVideos)

	return data
}

// Collection-valued fields accumulate across every ladder stage, then
// deduplicate; scalar-valued fields take the first non-empty stage.

func (x *Extractor) deriveAuthors(
	doc *goquery.Document,
	blocks crawl.StructuredBlocks,
	rules Rules,
	base string,
) []crawl.Author {
	var authors []crawl.Author
	if blocks.Main != nil {
		authors = append(authors, authorValues(blocks.Main["author"], base)...)
	}
	for _, obj := range blocks.Other {
		authors = append(authors, authorValues(obj["author"], base)...)
	}
	if len(authors) == 0 {
		for _, name := range metaContent(doc, metaAuthorKeys...) {
			authors = append(authors, authorValues(name, base)...)
		}
	}
	if len(authors) == 0 {
		for _, name := range selectValues(doc, rules.Authors) {
			authors = append(authors, authorValues(name, base)...)
		}
	}
	return dedupeAuthors(authors)
}

func (x *Extractor) deriveTags(doc *goquery.Document, blocks crawl.StructuredBlocks, rules Rules) []string {
	var tags []string
	tags = append(tags, splitKeywords(blockStrings(blocks.Main, "keywords"))...)
	tags = append(tags, metaContent(doc, metaTagKeys...)...)
	tags = append(tags, metaKeywords(doc)...)
	tags = append(tags, selectValues(doc, rules.Tags)...)
	return uniqueStrings(tags)
}

func (x *Extractor) deriveImages(
	doc *goquery.Document,
	blocks crawl.StructuredBlocks,
	rules Rules,
	base string,
) []crawl.Image {
	var images []crawl.Image
	if blocks.Main != nil {
		images = append(images, imageValues(blocks.Main["image"], base)...)
	}
	for _, obj := range blocks.ImageGallery {
		images = append(images, imageValues(obj, base)...)
		images = append(images, imageValues(obj["associatedMedia"], base)...)
		images = append(images, imageValues(obj["itemListElement"], base)...)
	}
	images = append(images, selectorImages(doc, rules.Images, base)...)
	return dedupeImages(images)
}

func (x *Extractor) deriveVideos(
	doc *goquery.Document,
	blocks crawl.StructuredBlocks,
	rules Rules,
	base string,
	escalated []string,
) []crawl.Video {
	var links []string
	for _, obj := range blocks.VideoObjects {
		for _, key := range []string{"contentUrl", "embedUrl"} {
			if u, ok := obj[key].(string); ok {
				links = append(links, u)
			}
		}
	}
	links = append(links, metaContent(doc, metaVideoKeys...)...)
	links = append(links, selectValues(doc, rules.Videos)...)
	links = append(links, escalated...)

	var videos []crawl.Video
	seen := make(map[string]struct{}, len(links))
	for _, raw := range links {
		link := fixVideoLink(base, raw)
		if link == "" {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		videos = append(videos, crawl.Video{Link: link})
	}
	return videos
}

func derivePublisher(doc *goquery.Document, main map[string]any) map[string]any {
	if main != nil {
		if pub, ok := main["publisher"].(map[string]any); ok {
			if pruned, ok := pruneEmpty(pub).(map[string]any); ok {
				return pruned
			}
		}
	}
	if names := metaContent(doc, metaSiteNameKeys...); len(names) > 0 {
		return map[string]any{"name": names[0]}
	}
	return nil
}

// deriveLocale maps the page locale onto human-readable language and
// country names, falling back to the adapter defaults.
func deriveLocale(doc *goquery.Document, rules Rules) (language, country string) {
	candidates := selectValues(doc, []Selector{"html@lang"})
	candidates = append(candidates, metaContent(doc, metaLocaleKeys...)...)
	candidates = append(candidates, selectValues(doc, rules.Language)...)
	candidates = append(candidates, strings.TrimSpace(rules.DefaultLanguage))

	for _, candidate := range candidates {
		langCode, countryCode := splitLocale(candidate)
		if name := languageName(langCode); name != "" && language == "" {
			language = name
		}
		if name := countryName(countryCode); name != "" && country == "" {
			country = name
		}
		if language != "" && country != "" {
			break
		}
	}
	if country == "" {
		country = countryName(rules.DefaultCountry)
	}
	return language, country
}

// deriveThumbnail picks the hero image: the first structured-block image,
// then Open Graph metas, then the site's thumbnail selectors.
func deriveThumbnail(doc *goquery.Document, images []crawl.Image, rules Rules, base string) string {
	if len(images) > 0 {
		return images[0].Link
	}
	if metas := metaContent(doc, metaThumbnailKeys...); len(metas) > 0 {
		return absolutize(base, metas[0])
	}
	if vals := selectValues(doc, rules.Thumbnail); len(vals) > 0 {
		return absolutize(base, vals[0])
	}
	return ""
}
