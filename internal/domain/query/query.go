// Package query holds the search query value object.
package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// DefaultLimit is the number of hits returned when the caller gives no positive limit.
const DefaultLimit = 5

// Query is a validated search request.
type Query struct {
	text       string
	limit      int
	sourceLang string
}

// New validates raw text and clamps limit into [1, maxLimit].
// A non-positive limit becomes DefaultLimit. maxLimit <= 0 disables the upper clamp.
func New(text string, limit, maxLimit int, sourceLang string) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, fmt.Errorf("query text is required: %w", domain.ErrInvalidQuery)
	}
	return Query{
		text:       text,
		limit:      ClampLimit(limit, maxLimit),
		sourceLang: strings.TrimSpace(sourceLang),
	}, nil
}

// ClampLimit applies the default and upper bound to a requested hit count.
func ClampLimit(limit, maxLimit int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// Text returns the query as the caller wrote it.
func (q *Query) Text() string { return q.text }

// Limit returns the clamped number of hits to return.
func (q *Query) Limit() int { return q.limit }

// SourceLanguage returns the caller-declared language, or "" when it should be detected.
func (q *Query) SourceLanguage() string { return q.sourceLang }
