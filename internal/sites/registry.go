package sites

import (
	"sort"

	"github.com/mediawatch/newscrawler/internal/crawl"
)

// Registry is the immutable site-id to adapter mapping, built once at
// startup.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a Registry, rejecting duplicate or empty site IDs.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	m := make(map[string]Adapter, len(adapters))
	for _, adapter := range adapters {
		id := adapter.ID()
		if id == "" {
			return nil, crawl.NewError(crawl.KindArgument, "adapter with empty site id")
		}
		if _, dup := m[id]; dup {
			return nil, crawl.NewError(crawl.KindArgument, "duplicate adapter for site %q", id)
		}
		m[id] = adapter
	}
	return &Registry{adapters: m}, nil
}

// Lookup resolves a site id. Unknown IDs are an argument error.
func (r *Registry) Lookup(id string) (Adapter, error) {
	adapter, ok := r.adapters[id]
	if !ok {
		return nil, crawl.NewError(crawl.KindArgument, "unknown site %q (known: %v)", id, r.IDs())
	}
	return adapter, nil
}

// IDs lists the registered site IDs, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
