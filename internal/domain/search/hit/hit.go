package hit

import "sort"

// Hit is a single search result.
type Hit struct {
	id      string
	score   float64
	payload map[string]any
}

// New creates a search hit.
func New(id string, score float64, payload map[string]any) Hit {
	return Hit{id: id, score: score, payload: payload}
}

// ID returns the record identifier.
func (h *Hit) ID() string { return h.id }

// Score returns the cosine similarity between the query and the record.
func (h *Hit) Score() float64 { return h.score }

// Payload returns the stored metadata verbatim.
func (h *Hit) Payload() map[string]any { return h.payload }

// SortByScore orders hits by non-increasing score. Equal scores keep their incoming order.
func SortByScore(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
}
