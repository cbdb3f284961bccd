package query

import (
	"context"

	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/domain/search/hit"
)

// Translator brings query text into the canonical language.
type Translator interface {
	ToCanonical(ctx context.Context, text, sourceLang string) (domain.Translation, error)
}

// Encoder vectorizes text.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs nearest-neighbour search over the index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int) ([]hit.Hit, error)
}
