package headless

import "context"

// Noop is the Browser used when no driver is configured. Every render
// reports ErrUnavailable.
type Noop struct{}

// Render always fails with ErrUnavailable.
func (Noop) Render(context.Context, string, Escalation) (RenderResult, error) {
	return RenderResult{}, ErrUnavailable
}

// Close is a no-op.
func (Noop) Close() {}
