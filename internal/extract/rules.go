// Package extract turns one fetched article response into a normalized
// record by merging structured-data blocks, meta tags, and DOM selections.
package extract

import "strings"

// Selector is a CSS selector, optionally suffixed with "@attr" to read an
// attribute instead of element text.
type Selector string

// Split separates the CSS part from the attribute part.
func (s Selector) Split() (css, attr string) {
	raw := string(s)
	if i := strings.LastIndex(raw, "@"); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return raw, ""
}

// Rules is the per-site extraction rule set. Every field is optional; the
// base adapter supplies a ladder that works for most JSON-LD-bearing sites
// and concrete adapters override only the exceptional entries.
type Rules struct {
	// RequireMainBlock makes the absence of an article-typed structured
	// block a hard extraction failure.
	RequireMainBlock bool

	// JSONBlockSelectors name script elements beyond the standard JSON-LD
	// ones whose text content is parsed as generic JSON.
	JSONBlockSelectors []string

	Title       []Selector
	Description []Selector
	Body        []Selector
	Authors     []Selector
	PublishedAt []Selector
	ModifiedAt  []Selector
	Section     []Selector
	Tags        []Selector
	Thumbnail   []Selector
	Images      []Selector
	Videos      []Selector
	Language    []Selector

	// TextFromAllDescendants switches body text from top-level paragraph
	// text to all descendant text.
	TextFromAllDescendants bool

	DefaultLanguage string
	DefaultCountry  string
}

// DefaultRules is the base-adapter ladder shared by most sites.
func DefaultRules() Rules {
	return Rules{
		Title:       []Selector{"h1"},
		Description: []Selector{"meta[name=description]@content"},
		Body:        []Selector{"article p", "div[itemprop=articleBody] p", ".article-body p"},
		Authors:     []Selector{"[rel=author]", ".author-name", "[itemprop=author] [itemprop=name]"},
		PublishedAt: []Selector{"time[datetime]@datetime"},
		ModifiedAt:  []Selector{},
		Section:     []Selector{".breadcrumb a"},
		Tags:        []Selector{".tags a", "a[rel=tag]"},
		Thumbnail:   []Selector{},
		Images:      []Selector{"article img@src", "figure img@src"},
		Videos:      []Selector{"article iframe@src", "video@src", "video source@src"},
		Language:    []Selector{"html@lang"},
	}
}
