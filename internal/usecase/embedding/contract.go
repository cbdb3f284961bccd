package embedding

import (
	"context"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// provider is the embedding backend the gateway wraps.
type provider interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
