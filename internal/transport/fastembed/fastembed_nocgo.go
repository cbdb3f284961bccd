//go:build !cgo

// Package fastembed runs embedding models locally through ONNX Runtime.
package fastembed

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// ErrNotAvailable is returned when the binary was built without CGO.
var ErrNotAvailable = errors.New("fastembed: not available (binary built without CGO, use the openai provider)")

// Embedder is a stub for non-CGO builds.
type Embedder struct{}

// New validates the model name and reports that local inference is unavailable.
func New(cfg Config) (*Embedder, error) {
	if _, _, err := resolveModel(cfg.Model); err != nil {
		return nil, err
	}
	return nil, ErrNotAvailable
}

// Embed always fails on non-CGO builds.
func (e *Embedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", ErrNotAvailable, domain.ErrEmbeddingFailure)
}

// Dimension returns 0 on non-CGO builds.
func (e *Embedder) Dimension() int { return 0 }

// Close is a no-op on non-CGO builds.
func (e *Embedder) Close() error { return nil }
