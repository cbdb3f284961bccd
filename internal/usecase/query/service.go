// Package query answers free-text searches in any language against the index.
package query

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	domquery "github.com/kailas-cloud/polysearch/internal/domain/query"
	"github.com/kailas-cloud/polysearch/internal/domain/search/hit"
	"github.com/kailas-cloud/polysearch/internal/logger"
)

const tracerName = "github.com/kailas-cloud/polysearch/internal/usecase/query"

// Result is the answer to one query.
type Result struct {
	Original       string
	Translated     string
	SourceLanguage string
	Hits           []hit.Hit
}

// Service translates, encodes and searches.
type Service struct {
	translator Translator
	encoder    Encoder
	searcher   Searcher
	maxLimit   int
	tracer     trace.Tracer
	logger     *zap.Logger
}

// New creates a query service. maxLimit <= 0 disables the upper clamp.
func New(t Translator, enc Encoder, s Searcher, maxLimit int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		translator: t,
		encoder:    enc,
		searcher:   s,
		maxLimit:   maxLimit,
		tracer:     otel.Tracer(tracerName),
		logger:     logger,
	}
}

// WithTracerProvider replaces the tracer provider.
func (s *Service) WithTracerProvider(tp trace.TracerProvider) *Service {
	s.tracer = tp.Tracer(tracerName)
	return s
}

// MaxLimit returns the upper bound applied to requested limits.
func (s *Service) MaxLimit() int { return s.maxLimit }

// Query runs raw through translation, encoding and search.
// A non-positive limit means domquery.DefaultLimit; larger limits are clamped to MaxLimit.
// Hits come back in index order, best first.
func (s *Service) Query(ctx context.Context, raw string, limit int, sourceLang string) (Result, error) {
	q, err := domquery.New(raw, limit, s.maxLimit, sourceLang)
	if err != nil {
		return Result{}, err //nolint:wrapcheck // ErrInvalidQuery for the caller
	}

	start := time.Now()
	log := logger.FromContext(ctx, s.logger)

	var tr struct{ text, lang string }
	err = s.stage(ctx, "query.translate", func(ctx context.Context) error {
		t, err := s.translator.ToCanonical(ctx, q.Text(), q.SourceLanguage())
		tr.text, tr.lang = t.Text, t.SourceLanguage
		return err //nolint:wrapcheck // ErrTranslationFailure from the gateway
	}, attribute.String("source_language_hint", q.SourceLanguage()))
	if err != nil {
		log.Warn("query translation failed", zap.Error(err))
		return Result{}, err
	}

	var vec []float32
	err = s.stage(ctx, "query.encode", func(ctx context.Context) error {
		var err error
		vec, err = s.encoder.Encode(ctx, tr.text)
		return err //nolint:wrapcheck // ErrEmbeddingFailure from the gateway
	})
	if err != nil {
		log.Warn("query encoding failed", zap.Error(err))
		return Result{}, err
	}

	var hits []hit.Hit
	err = s.stage(ctx, "query.search", func(ctx context.Context) error {
		var err error
		hits, err = s.searcher.Search(ctx, vec, q.Limit())
		return err //nolint:wrapcheck // ErrIndexFailure from the index manager
	}, attribute.Int("limit", q.Limit()))
	if err != nil {
		log.Warn("query search failed", zap.Error(err))
		return Result{}, err
	}

	log.Debug("query answered",
		zap.String("source_language", tr.lang),
		zap.Int("limit", q.Limit()),
		zap.Int("hits", len(hits)),
		zap.Duration("duration", time.Since(start)),
	)

	return Result{
		Original:       q.Text(),
		Translated:     tr.text,
		SourceLanguage: tr.lang,
		Hits:           hits,
	}, nil
}

func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
