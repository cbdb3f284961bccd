package polysearch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// Embedder converts text to vector embeddings. Documents and queries must share one
// vector space, so the same Embedder serves both.
//
// If it also has a Dimension() int method returning a positive value, no probe
// embedding is requested at startup.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Translator translates text into targetLang. sourceLang may be empty, in which case
// the translator detects it and reports it in Translation.SourceLanguage.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (Translation, error)
}

// Translation is translated text plus the language it was translated from.
type Translation struct {
	Text           string
	SourceLanguage string
}

// healthChecker is optionally implemented by an Embedder or Translator.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// Dimension reports the inner embedder's size, or 0 so the gateway probes it.
func (a *embedderAdapter) Dimension() int {
	if d, ok := a.inner.(domain.Dimensioner); ok {
		return d.Dimension()
	}
	return 0
}

// translatorAdapter wraps public Translator to satisfy internal domain.Translator.
type translatorAdapter struct {
	inner Translator
}

func (a *translatorAdapter) Translate(ctx context.Context, text, sourceLang, targetLang string) (domain.Translation, error) {
	tr, err := a.inner.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return domain.Translation{}, fmt.Errorf("translate: %w", err)
	}
	return domain.Translation{Text: tr.Text, SourceLanguage: tr.SourceLanguage}, nil
}

func checkerOf(v any) healthChecker {
	if hc, ok := v.(healthChecker); ok {
		return hc
	}
	return nil
}
