// Package citation assigns stable web:<n> tags to source URLs.
package citation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ppiankov/foretell/internal/model"
)

// TagPrefix precedes the sequence number in every tag
const TagPrefix = "web:"

// Registry allocates one tag per unique URL in first-seen order.
// Tags are never renumbered; the registry only grows until Reset.
// Safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	tags map[string]string
	urls []string // index i holds the URL tagged web:<i+1>
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tags: make(map[string]string),
	}
}

// Add returns the tag for url, allocating the next one if url is new
func (r *Registry) Add(url string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tag, ok := r.tags[url]; ok {
		return tag
	}

	r.urls = append(r.urls, url)
	tag := fmt.Sprintf("%s%d", TagPrefix, len(r.urls))
	r.tags[url] = tag
	return tag
}

// Inline returns the bracketed tag for url, registering it if needed
func (r *Registry) Inline(url string) string {
	return "[" + r.Add(url) + "]"
}

// Render returns every citation ordered by tag number
func (r *Registry) Render() []model.Citation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Citation, len(r.urls))
	for i, url := range r.urls {
		out[i] = model.Citation{Tag: r.tags[url], URL: url}
	}
	return out
}

// Len returns the number of registered URLs
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.urls)
}

// String renders the registry as newline-joined "tag: url" lines
func (r *Registry) String() string {
	citations := r.Render()
	lines := make([]string, len(citations))
	for i, c := range citations {
		lines[i] = c.Tag + ": " + c.URL
	}
	return strings.Join(lines, "\n")
}

// Reset discards every citation. Tag numbering restarts at web:1.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = make(map[string]string)
	r.urls = nil
}
