package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// selectValues runs each selector and collects non-empty text or attribute
// values.
func selectValues(doc *goquery.Document, selectors []Selector) []string {
	var out []string
	for _, selector := range selectors {
		css, attr := selector.Split()
		doc.Find(css).Each(func(_ int, sel *goquery.Selection) {
			var value string
			if attr != "" {
				value = sel.AttrOr(attr, "")
			} else {
				value = sel.Text()
			}
			if value = CleanText(value); value != "" {
				out = append(out, value)
			}
		})
	}
	return out
}

// firstNonEmpty returns the first ladder stage that produced values.
func firstNonEmpty(stages ...[]string) []string {
	for _, stage := range stages {
		if vals := uniqueStrings(stage); len(vals) > 0 {
			return vals
		}
	}
	return nil
}

// blockStrings pulls string values for key from a structured block. Lists
// are flattened; maps contribute their name field.
func blockStrings(obj map[string]any, key string) []string {
	if obj == nil {
		return nil
	}
	return stringValues(obj[key])
}

func stringValues(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		var out []string
		for _, member := range val {
			out = append(out, stringValues(member)...)
		}
		return out
	case map[string]any:
		if name, ok := val["name"].(string); ok {
			return []string{name}
		}
		return nil
	default:
		return nil
	}
}

// otherBlockStrings pulls key from every non-main block, in order.
func otherBlockStrings(blocks crawl.StructuredBlocks, key string) []string {
	var out []string
	for _, obj := range blocks.Other {
		out = append(out, blockStrings(obj, key)...)
	}
	return out
}

func absolutize(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}

// toISOTimes parses each candidate timestamp and renders it as ISO-8601
// UTC. Unparseable candidates are dropped.
func toISOTimes(values []string) []string {
	var out []string
	for _, raw := range values {
		if t, ok := crawl.ParseTime(raw); ok {
			out = append(out, crawl.ISO8601(t))
		}
	}
	return uniqueStrings(out)
}

// authorValues normalizes the author shapes seen in structured blocks:
// bare strings, single objects, and lists of either.
func authorValues(v any, base string) []crawl.Author {
	switch val := v.(type) {
	case string:
		if name := CleanText(val); name != "" {
			return []crawl.Author{{Type: "Person", Name: name}}
		}
		return nil
	case map[string]any:
		author := crawl.Author{Type: "Person"}
		if t, ok := val["@type"].(string); ok && t != "" {
			author.Type = t
		}
		if name, ok := val["name"].(string); ok {
			author.Name = CleanText(name)
		}
		if u, ok := val["url"].(string); ok {
			author.URL = absolutize(base, u)
		}
		if author.Name == "" && author.URL == "" {
			return nil
		}
		return []crawl.Author{author}
	case []any:
		var out []crawl.Author
		for _, member := range val {
			out = append(out, authorValues(member, base)...)
		}
		return out
	default:
		return nil
	}
}

func dedupeAuthors(in []crawl.Author) []crawl.Author {
	var out []crawl.Author
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		key := a.Name + "|" + a.URL
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// imageValues normalizes image shapes: bare URL strings, ImageObject maps,
// and lists of either.
func imageValues(v any, base string) []crawl.Image {
	switch val := v.(type) {
	case string:
		if link := absolutize(base, val); link != "" {
			return []crawl.Image{{Link: link}}
		}
		return nil
	case map[string]any:
		img := crawl.Image{}
		for _, key := range []string{"url", "contentUrl"} {
			if u, ok := val[key].(string); ok && u != "" {
				img.Link = absolutize(base, u)
				break
			}
		}
		for _, key := range []string{"caption", "description", "name"} {
			if c, ok := val[key].(string); ok && c != "" {
				img.Caption = CleanText(c)
				break
			}
		}
		if img.Link == "" {
			return nil
		}
		return []crawl.Image{img}
	case []any:
		var out []crawl.Image
		for _, member := range val {
			out = append(out, imageValues(member, base)...)
		}
		return out
	default:
		return nil
	}
}

func dedupeImages(in []crawl.Image) []crawl.Image {
	var out []crawl.Image
	seen := make(map[string]struct{}, len(in))
	for _, img := range in {
		if img.Link == "" {
			continue
		}
		if _, dup := seen[img.Link]; dup {
			continue
		}
		seen[img.Link] = struct{}{}
		out = append(out, img)
	}
	return out
}

// selectorImages reads image selectors, defaulting to the src attribute and
// taking captions from alt text when present.
func selectorImages(doc *goquery.Document, selectors []Selector, base string) []crawl.Image {
	var out []crawl.Image
	for _, selector := range selectors {
		css, attr := selector.Split()
		if attr == "" {
			attr = "src"
		}
		doc.Find(css).Each(func(_ int, sel *goquery.Selection) {
			link := absolutize(base, sel.AttrOr(attr, ""))
			if link == "" {
				return
			}
			out = append(out, crawl.Image{
				Link:    link,
				Caption: CleanText(sel.AttrOr("alt", "")),
			})
		})
	}
	return out
}

// splitKeywords splits comma-joined keyword strings into individual tags.
func splitKeywords(values []string) []string {
	var out []string
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			if part = CleanText(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// fixVideoLink strips blob: scheme wrappers and resolves relative sources.
func fixVideoLink(base, link string) string {
	link = strings.TrimSpace(strings.TrimPrefix(link, "blob:"))
	if link == "" || strings.HasPrefix(link, "data:") || link == "about:blank" {
		return ""
	}
	return absolutize(base, link)
}

// bodyText joins paragraph text for the first body selector that matches.
// By default only top-level text nodes of each matched element count;
// nested element text is excluded.
func bodyText(doc *goquery.Document, rules Rules) string {
	for _, selector := range rules.Body {
		css, _ := selector.Split()
		matches := doc.Find(css)
		if matches.Length() == 0 {
			continue
		}
		var parts []string
		matches.Each(func(_ int, sel *goquery.Selection) {
			var text string
			if rules.TextFromAllDescendants {
				text = sel.Text()
			} else {
				text = sel.Contents().Not("*").Text()
			}
			if text = CleanText(text); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return ""
}
