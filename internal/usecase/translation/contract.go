package translation

import (
	"context"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// translator is the machine translation backend the gateway wraps.
type translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (domain.Translation, error)
}
