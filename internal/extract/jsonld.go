package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

const jsonLDSelector = `script[type="application/ld+json"]`

// CollectBlocks locates every embedded JSON block, parses it (with one
// repair attempt for almost-valid payloads), and classifies the results by
// @type. The first article-typed block becomes the main block.
func CollectBlocks(doc *goquery.Document, extraSelectors []string) crawl.StructuredBlocks {
	var blocks crawl.StructuredBlocks

	selectors := append([]string{jsonLDSelector}, extraSelectors...)
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			raw, ok := parseJSONBlock(sel.Text())
			if !ok {
				return
			}
			for _, candidate := range flattenBlocks(raw) {
				classifyBlock(candidate, &blocks)
			}
		})
	}
	return blocks
}

// parseJSONBlock parses the script text, retrying once after a conservative
// repair. A block that still fails is skipped.
func parseJSONBlock(text string) (any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, true
	}
	if err := json.Unmarshal([]byte(repairJSON(text)), &v); err == nil {
		return v, true
	}
	return nil, false
}

// repairJSON strips the dangling "]," artifact some CMSes leave at the end
// of embedded blocks.
func repairJSON(text string) string {
	if strings.HasSuffix(text, "],") {
		return strings.TrimSuffix(text, "],") + "]"
	}
	return strings.TrimSuffix(text, ",")
}

// flattenBlocks expands top-level arrays and @graph containers into
// individual candidate blocks.
func flattenBlocks(raw any) []any {
	switch v := raw.(type) {
	case []any:
		var out []any
		for _, member := range v {
			out = append(out, flattenBlocks(member)...)
		}
		return out
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			var out []any
			for _, member := range graph {
				out = append(out, flattenBlocks(member)...)
			}
			return out
		}
		return []any{v}
	default:
		return []any{raw}
	}
}

func classifyBlock(candidate any, blocks *crawl.StructuredBlocks) {
	obj, ok := candidate.(map[string]any)
	if !ok {
		blocks.Misc = append(blocks.Misc, candidate)
		return
	}
	switch {
	case isArticleType(obj):
		if blocks.Main == nil {
			blocks.Main = obj
		} else {
			blocks.Other = append(blocks.Other, obj)
		}
	case hasType(obj, "ImageGallery", "ImageObject", "MediaGallery"):
		blocks.ImageGallery = append(blocks.ImageGallery, obj)
	case hasType(obj, "VideoObject"):
		blocks.VideoObjects = append(blocks.VideoObjects, obj)
	default:
		blocks.Other = append(blocks.Other, obj)
	}
}

// blockTypes normalizes @type, which may be a string or a list of strings.
func blockTypes(obj map[string]any) []string {
	switch t := obj["@type"].(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, member := range t {
			if s, ok := member.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func isArticleType(obj map[string]any) bool {
	for _, t := range blockTypes(obj) {
		if strings.Contains(t, "Article") || strings.Contains(t, "Posting") {
			return true
		}
	}
	return false
}

func hasType(obj map[string]any, wanted ...string) bool {
	for _, t := range blockTypes(obj) {
		for _, w := range wanted {
			if strings.EqualFold(t, w) {
				return true
			}
		}
	}
	return false
}
