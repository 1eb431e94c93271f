// Package sites holds the per-site adapter contract and the process-wide
// adapter registry.
package sites

import (
	"github.com/mediawatch/newscrawler/internal/discovery"
	"github.com/mediawatch/newscrawler/internal/extract"
	"github.com/mediawatch/newscrawler/internal/headless"
)

// Adapter is the narrow plug-in surface a site implements: where to
// discover articles, how to extract fields, and which URLs need browser
// escalation.
type Adapter interface {
	ID() string
	Descriptor() discovery.Descriptor
	Rules() extract.Rules
	// EscalationFor returns a non-nil escalation script when the URL gates
	// content behind script execution.
	EscalationFor(rawURL string) *headless.Escalation
}

// BaseAdapter carries the common behavior: the standard extraction ladder
// and no escalation. Concrete adapters embed it and override only what
// differs.
type BaseAdapter struct {
	SiteID     string
	Source     discovery.Descriptor
	Extraction extract.Rules
}

// ID returns the site identifier.
func (a BaseAdapter) ID() string { return a.SiteID }

// Descriptor returns the discovery source.
func (a BaseAdapter) Descriptor() discovery.Descriptor { return a.Source }

// Rules returns the extraction rule set.
func (a BaseAdapter) Rules() extract.Rules { return a.Extraction }

// EscalationFor defaults to no escalation.
func (a BaseAdapter) EscalationFor(string) *headless.Escalation { return nil }
