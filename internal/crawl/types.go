// Package crawl defines core types shared across subsystems.
package crawl

import (
	"net/http"
	"time"
)

// Mode selects what a crawl request does.
type Mode string

// Request modes.
const (
	ModeDiscover   Mode = "discover"
	ModeExtractOne Mode = "article"
)

// Request captures everything needed to run one crawl.
type Request struct {
	Mode        Mode
	Site        string
	Window      Window
	ArticleURL  string
	LinksOnly   bool
	Proxies     []ProxyConfig
	Concurrency int
}

// ProxyConfig describes one upstream proxy.
type ProxyConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL        string
	Method     string
	Headers    http.Header
	Body       []byte
	Timeout    time.Duration
	Decompress bool
}

// Response is the result returned by a Fetcher implementation.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Headers     http.Header
	Body        []byte
	Duration    time.Duration
}

// DiscoveredLink is one candidate article produced by discovery.
type DiscoveredLink struct {
	URL         string     `json:"url"`
	Title       string     `json:"title,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Author is one credited article author.
type Author struct {
	Type string `json:"@type,omitempty"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Image is one article image with an optional caption.
type Image struct {
	Link    string `json:"link,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// Video is one article video source.
type Video struct {
	Link string `json:"link,omitempty"`
}

// StructuredBlocks groups the embedded JSON blocks found in an article page,
// classified by their @type.
type StructuredBlocks struct {
	Main         map[string]any   `json:"main,omitempty"`
	ImageGallery []map[string]any `json:"image_gallery,omitempty"`
	VideoObjects []map[string]any `json:"video_object,omitempty"`
	Other        []map[string]any `json:"other,omitempty"`
	Misc         []any            `json:"misc,omitempty"`
}

// RawPayload carries the article body exactly as fetched.
type RawPayload struct {
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content,omitempty"`
}

// ParsedData is the normalized field set derived for one article. Scalar
// fields that can carry more than one candidate value are kept as lists,
// first entry preferred. Empty members are omitted on the wire.
type ParsedData struct {
	SourceCountry  string         `json:"source_country,omitempty"`
	SourceLanguage string         `json:"source_language,omitempty"`
	Authors        []Author       `json:"authors,omitempty"`
	Description    []string       `json:"description,omitempty"`
	ModifiedAt     []string       `json:"modified_at,omitempty"`
	PublishedAt    []string       `json:"published_at,omitempty"`
	Publisher      map[string]any `json:"publisher,omitempty"`
	Text           string         `json:"text,omitempty"`
	Title          []string       `json:"title,omitempty"`
	ThumbnailImage string         `json:"thumbnail_image,omitempty"`
	Images         []Image        `json:"images,omitempty"`
	Videos         []Video        `json:"videos,omitempty"`
	Section        []string       `json:"section,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
}

// NormalizedArticle is the output record for one extracted article.
type NormalizedArticle struct {
	RawResponse RawPayload       `json:"raw_response"`
	ParsedJSON  StructuredBlocks `json:"parsed_json"`
	ParsedData  ParsedData       `json:"parsed_data"`
}

// ArticleError reports a per-article failure without aborting the crawl.
type ArticleError struct {
	URL     string    `json:"url"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Stats summarizes one finished crawl.
type Stats struct {
	Discovered         int               `json:"discovered"`
	Emitted            int               `json:"emitted"`
	Errors             map[ErrorKind]int `json:"errors,omitempty"`
	ProxiesQuarantined int               `json:"proxies_quarantined,omitempty"`
}

// EventType discriminates Event payloads.
type EventType string

// Event types emitted on the crawl stream.
const (
	EventDiscovered   EventType = "discovered"
	EventArticle      EventType = "article"
	EventArticleError EventType = "article_error"
	EventCrawlError   EventType = "crawl_error"
	EventDone         EventType = "done"
)

// Event is one item on the crawl output stream. Exactly one payload field is
// set, matching Type.
type Event struct {
	Type       EventType          `json:"type"`
	Link       *DiscoveredLink    `json:"link,omitempty"`
	Article    *NormalizedArticle `json:"article,omitempty"`
	ArticleErr *ArticleError      `json:"article_error,omitempty"`
	CrawlErr   *Error             `json:"crawl_error,omitempty"`
	Stats      *Stats             `json:"stats,omitempty"`
}
