//go:build cgo

// Package fastembed runs embedding models locally through ONNX Runtime.
package fastembed

import (
	"context"
	"fmt"
	"sync"
	"time"

	fastembed "github.com/anush008/fastembed-go"

	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/metrics"
)

const provider = "fastembed"

// Embedder is a local embedding provider backed by fastembed-go.
type Embedder struct {
	model     *fastembed.FlagEmbedding
	modelName string
	dimension int
	mu        sync.Mutex
}

// New loads model into memory, downloading it into cacheDir on first use.
func New(cfg Config) (*Embedder, error) {
	model, dim, err := resolveModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}
	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = 512
	}
	showProgress := false

	fe, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                fastembed.EmbeddingModel(model),
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize fastembed %s: %w", cfg.Model, err)
	}

	return &Embedder{model: fe, modelName: cfg.Model, dimension: dim}, nil
}

// Embed implements domain.Embedder. Documents and queries share one vector space,
// so no passage/query prefix is applied.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("fastembed: %w", err)
	}

	start := time.Now()

	// The ONNX session is not safe for concurrent Run calls.
	e.mu.Lock()
	vecs, err := e.model.Embed([]string{text}, 1)
	e.mu.Unlock()

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.modelName, "error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("fastembed: %v: %w", err, domain.ErrEmbeddingFailure)
	}
	if len(vecs) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.modelName, "error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("fastembed returned no vectors: %w", domain.ErrEmbeddingFailure)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.modelName, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.modelName).Observe(time.Since(start).Seconds())

	return domain.EmbeddingResult{Embedding: vecs[0]}, nil
}

// Dimension implements domain.Dimensioner.
func (e *Embedder) Dimension() int { return e.dimension }

// Close releases the ONNX session.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil
	}
	if err := e.model.Destroy(); err != nil {
		return fmt.Errorf("destroy fastembed model: %w", err)
	}
	e.model = nil
	return nil
}
