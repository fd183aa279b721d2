package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tooldeck/tooldeck/converter"
)

// Result is one finished conversion kept in a session's history.
type Result struct {
	ID        uuid.UUID
	Source    string
	Target    string
	Output    converter.Output
	CreatedAt time.Time
}

// History is a bounded list of results, most recent first.
type History struct {
	mu      sync.Mutex
	limit   int
	results []Result
}

// NewHistory keeps at most limit results. A non-positive limit keeps one.
func NewHistory(limit int) *History {
	return &History{limit: max(1, limit)}
}

// Add records out and returns the stored Result. The oldest result is
// dropped once the limit is reached.
func (h *History) Add(source, target string, out converter.Output) Result {
	res := Result{
		ID:        uuid.New(),
		Source:    source,
		Target:    target,
		Output:    out,
		CreatedAt: time.Now(),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append([]Result{res}, h.results...)
	if len(h.results) > h.limit {
		h.results = h.results[:h.limit]
	}
	return res
}

// List returns the results, most recent first.
func (h *History) List() []Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Result(nil), h.results...)
}

// Get finds a result by id.
func (h *History) Get(id uuid.UUID) (Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.results {
		if r.ID == id {
			return r, true
		}
	}
	return Result{}, false
}

// Len is the number of stored results.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.results)
}
