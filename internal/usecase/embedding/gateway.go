package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// probeText is encoded once at startup when the provider cannot report its dimension.
const probeText = "dimension probe"

// Gateway encodes text into vectors of one fixed dimensionality.
// The dimension is resolved once in NewGateway and never changes afterwards.
type Gateway struct {
	provider provider
	model    string
	dim      int
	logger   *zap.Logger
}

// NewGateway resolves the provider's output dimension and returns a ready gateway.
func NewGateway(ctx context.Context, p provider, model string, logger *zap.Logger) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{provider: p, model: model, logger: logger}

	if d, ok := p.(domain.Dimensioner); ok && d.Dimension() > 0 {
		g.dim = d.Dimension()
		logger.Info("embedding dimension reported by provider", zap.String("model", model), zap.Int("dimension", g.dim))
		return g, nil
	}

	res, err := p.Embed(ctx, probeText)
	if err != nil {
		return nil, fmt.Errorf("probe embedding dimension: %w", asEmbeddingFailure(err))
	}
	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("probe embedding dimension: provider returned an empty vector: %w",
			domain.ErrEmbeddingFailure)
	}
	g.dim = len(res.Embedding)

	logger.Info("embedding dimension probed", zap.String("model", model), zap.Int("dimension", g.dim))
	return g, nil
}

// Dimension returns the fixed vector length produced by Encode.
func (g *Gateway) Dimension() int { return g.dim }

// Model returns the configured model name.
func (g *Gateway) Model() string { return g.model }

// Encode returns the embedding of text. The result always has exactly Dimension() components.
func (g *Gateway) Encode(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()

	res, err := g.provider.Embed(ctx, text)
	if err != nil {
		g.logger.Error("embedding request failed",
			zap.String("model", g.model),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("encode: %w", asEmbeddingFailure(err))
	}

	if len(res.Embedding) != g.dim {
		g.logger.Error("embedding dimension changed",
			zap.String("model", g.model),
			zap.Int("expected", g.dim),
			zap.Int("got", len(res.Embedding)),
		)
		return nil, fmt.Errorf("encode: provider returned %d components, want %d: %w",
			len(res.Embedding), g.dim, domain.ErrDimensionMismatch)
	}

	g.logger.Debug("text encoded",
		zap.String("model", g.model),
		zap.Int("chars", len(text)),
		zap.Int("tokens", res.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return res.Embedding, nil
}

// asEmbeddingFailure guarantees the error matches domain.ErrEmbeddingFailure.
func asEmbeddingFailure(err error) error {
	if errors.Is(err, domain.ErrEmbeddingFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, err)
}
