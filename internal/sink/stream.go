// Package sink implements the output side of a crawl: an NDJSON event
// stream and a per-run JSON file layout.
package sink

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// StreamSink writes every event as one JSON line. Safe for concurrent
// writers.
type StreamSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	c   io.Closer
}

// NewStreamSink wraps w. If w is also an io.Closer it is closed with the
// sink.
func NewStreamSink(w io.Writer) *StreamSink {
	s := &StreamSink{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// Write encodes one event as an NDJSON line.
func (s *StreamSink) Write(event crawl.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(event)
}

// Close closes the underlying writer when it supports closing.
func (s *StreamSink) Close() error {
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}

// multiSink fans every event out to all members.
type multiSink struct {
	sinks []crawl.Sink
}

// Multi combines sinks; Write and Close hit every member and return the
// first error.
func Multi(sinks ...crawl.Sink) crawl.Sink {
	return &multiSink{sinks: sinks}
}

func (m *multiSink) Write(event crawl.Event) error {
	var first error
	for _, s := range m.sinks {
		if err := s.Write(event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *multiSink) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
