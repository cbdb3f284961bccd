package translation

import (
	"context"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// Identity is a translator for single-language deployments: it returns text unchanged.
// The reported source language is the caller's hint, or the target when there is none.
type Identity struct{}

// Translate implements domain.Translator.
func (Identity) Translate(_ context.Context, text, sourceLang, targetLang string) (domain.Translation, error) {
	src := sourceLang
	if src == "" {
		src = targetLang
	}
	return domain.Translation{Text: text, SourceLanguage: src}, nil
}
