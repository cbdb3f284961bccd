package translation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/metrics"
)

// Gateway translates arbitrary text into the canonical language of the index.
// Every call reaches the translator, including text that is already canonical.
type Gateway struct {
	translator translator
	canonical  string
	logger     *zap.Logger
}

// NewGateway validates canonical as a BCP 47 tag and returns a gateway targeting it.
func NewGateway(t translator, canonical string, logger *zap.Logger) (*Gateway, error) {
	tag, err := language.Parse(canonical)
	if err != nil {
		return nil, fmt.Errorf("canonical language %q: %w", canonical, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{translator: t, canonical: tag.String(), logger: logger}, nil
}

// Canonical returns the normalized canonical language tag.
func (g *Gateway) Canonical() string { return g.canonical }

// ToCanonical translates text into the canonical language.
// sourceLang is an optional BCP 47 hint; an unparsable hint is dropped and the language is detected instead.
func (g *Gateway) ToCanonical(ctx context.Context, text, sourceLang string) (domain.Translation, error) {
	hint := normalizeTag(sourceLang)
	if sourceLang != "" && hint == "" {
		g.logger.Debug("ignoring invalid source language hint", zap.String("lang", sourceLang))
	}

	tr, err := g.translator.Translate(ctx, text, hint, g.canonical)
	if err != nil {
		if !errors.Is(err, domain.ErrTranslationFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrTranslationFailure, err)
		}
		return domain.Translation{}, fmt.Errorf("translate to %s: %w", g.canonical, err)
	}

	src := normalizeTag(tr.SourceLanguage)
	if src == "" {
		src = language.Und.String()
	}
	metrics.TranslationSourceLanguagesTotal.WithLabelValues(baseLanguage(src)).Inc()

	return domain.Translation{Text: tr.Text, SourceLanguage: src}, nil
}

// normalizeTag returns the canonical form of a BCP 47 tag, or "" when it does not parse.
func normalizeTag(s string) string {
	if s == "" {
		return ""
	}
	tag, err := language.Parse(s)
	if err != nil {
		return ""
	}
	return tag.String()
}

// baseLanguage keeps metric label cardinality to the primary language subtag.
func baseLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return language.Und.String()
	}
	base, _ := t.Base()
	return base.String()
}
