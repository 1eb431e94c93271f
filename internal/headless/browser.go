// Package headless contains the script-executing browser escalation path.
package headless

import (
	"context"
	"errors"
)

// ErrUnavailable signals that no real browser backs this process. Callers
// downgrade to best-effort static extraction.
var ErrUnavailable = errors.New("headless browser unavailable")

// AttrRead names one attribute to pull out of the rendered page.
type AttrRead struct {
	Selector string
	Attr     string
}

// Escalation scripts the browser session for one article: wait for a gate
// element, optionally scroll and click, then read the attributes that hold
// the gated content.
type Escalation struct {
	WaitSelector   string
	ScrollToBottom bool
	ClickSelector  string
	VideoReads     []AttrRead
}

// RenderResult is the outcome of one escalated page load.
type RenderResult struct {
	HTML   string
	Videos []string
}

// Browser renders a page with script execution. Sessions are pooled; Render
// blocks until a session slot is free.
type Browser interface {
	Render(ctx context.Context, url string, esc Escalation) (RenderResult, error)
	Close()
}
