package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

const fileTimestampLayout = "2006-01-02_15-04-05"

// FileSink buffers crawl output and writes it on Close as indented JSON
// array files: articles under Articles/ and discovered links under Links/,
// named {site}-{articles|sitemap}-{timestamp}.json.
type FileSink struct {
	dir    string
	site   string
	clock  crawl.Clock
	logger *zap.Logger

	mu       sync.Mutex
	articles []crawl.NormalizedArticle
	links    []crawl.DiscoveredLink
}

// NewFileSink builds a FileSink rooted at dir.
func NewFileSink(dir, site string, clock crawl.Clock, logger *zap.Logger) *FileSink {
	return &FileSink{dir: dir, site: site, clock: clock, logger: logger}
}

// Write buffers article and link events; other event types pass through.
func (s *FileSink) Write(event crawl.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch event.Type {
	case crawl.EventArticle:
		if event.Article != nil {
			s.articles = append(s.articles, *event.Article)
		}
	case crawl.EventDiscovered:
		if event.Link != nil {
			s.links = append(s.links, *event.Link)
		}
	}
	return nil
}

// Close writes the buffered output. Empty groups produce no file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp := s.clock.Now().UTC().Format(fileTimestampLayout)
	if len(s.articles) > 0 {
		if err := s.writeGroup("Articles", "articles", stamp, s.articles); err != nil {
			return err
		}
	}
	if len(s.links) > 0 {
		if err := s.writeGroup("Links", "sitemap", stamp, s.links); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileSink) writeGroup(subdir, kind, stamp string, v any) error {
	dir := filepath.Join(s.dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s output: %w", kind, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s-%s.json", s.site, kind, stamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.logger.Info("output written",
		zap.String("path", path),
		zap.String("kind", kind),
	)
	return nil
}
