package handler

import (
	"context"
	"sync"
)

/*
Registry Responsibilities
- Keep (matcher, handler) pairs in registration order
- Dispatch a response to every matching handler
- Concatenate discovered links in registration order
- Stop at the first handler failure

Appending a handler after the crawl has started is allowed; it takes effect
on subsequent dispatches.
*/

type Registry struct {
	mu      sync.RWMutex
	entries []registration
}

type registration struct {
	matcher Matcher
	handler Handler
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a handler with its matcher. Registration order is dispatch
// order.
func (r *Registry) Register(matcher Matcher, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, registration{matcher: matcher, handler: h})
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Dispatch invokes every matching handler in registration order and returns
// the concatenation of their discovered links. The first handler failure
// aborts the dispatch: later handlers do not run, no links are returned and
// the failure is reported to the caller.
func (r *Registry) Dispatch(ctx context.Context, crawl *Context) ([]string, error) {
	r.mu.RLock()
	entries := r.entries
	r.mu.RUnlock()

	var links []string
	for _, entry := range entries {
		if !entry.matcher.Matches(crawl.ContentType()) {
			continue
		}
		discovered, err := entry.handler.Handle(ctx, crawl)
		if err != nil {
			return nil, err
		}
		links = append(links, discovered...)
	}
	return links, nil
}
