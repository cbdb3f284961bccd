// Package ingest turns an uploaded file into a searchable index record.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/polysearch/internal/domain/document"
	"github.com/kailas-cloud/polysearch/internal/domain/format"
	"github.com/kailas-cloud/polysearch/internal/logger"
	"github.com/kailas-cloud/polysearch/internal/metrics"
)

const tracerName = "github.com/kailas-cloud/polysearch/internal/usecase/ingest"

// Service runs extract, store, encode and upsert as one sequential chain.
type Service struct {
	extractor Extractor
	files     FileStore
	encoder   Encoder
	index     Indexer
	tracer    trace.Tracer
	logger    *zap.Logger
	newID     func() string
}

// New creates an ingestion service using the global tracer provider.
func New(ex Extractor, files FileStore, enc Encoder, idx Indexer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		extractor: ex,
		files:     files,
		encoder:   enc,
		index:     idx,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// WithTracerProvider replaces the tracer provider.
func (s *Service) WithTracerProvider(tp trace.TracerProvider) *Service {
	s.tracer = tp.Tracer(tracerName)
	return s
}

// Ingest extracts, stores, encodes and indexes one upload, returning the stored record.
// Input errors surface before anything is written. When encoding or indexing fails
// the stored file is removed again, so a failed upload leaves nothing behind.
func (s *Service) Ingest(ctx context.Context, filename string, raw []byte, source string) (document.Record, error) {
	start := time.Now()
	log := logger.FromContext(ctx, s.logger).With(zap.String("filename", filename))

	f, _ := format.Detect(filename)
	rec, err := s.ingest(ctx, log, filename, raw, source)
	metrics.DocumentsIngestedTotal.WithLabelValues(f.Label(), metrics.Status(err)).Inc()
	if err != nil {
		return document.Record{}, err
	}

	log.Info("document ingested",
		zap.String("id", rec.ID()),
		zap.Int("chars", len(rec.Text())),
		zap.Duration("duration", time.Since(start)),
	)
	return rec, nil
}

func (s *Service) ingest(
	ctx context.Context, log *zap.Logger, filename string, raw []byte, source string,
) (document.Record, error) {
	var text string
	err := s.stage(ctx, "ingest.extract", func(context.Context) error {
		var err error
		text, err = s.extractor.Extract(filename, raw)
		return err //nolint:wrapcheck // extractor errors carry the filename
	}, attribute.Int("bytes", len(raw)))
	if err != nil {
		log.Debug("extraction rejected upload", zap.Error(err))
		return document.Record{}, err
	}

	id := s.newID()

	var location string
	err = s.stage(ctx, "ingest.store", func(ctx context.Context) error {
		var err error
		location, err = s.files.Save(ctx, id, filename, raw)
		return err //nolint:wrapcheck // already ErrStorageFailure
	}, attribute.String("id", id))
	if err != nil {
		log.Error("store upload failed", zap.Error(err))
		return document.Record{}, err
	}

	rec, err := s.encodeAndUpsert(ctx, id, text, document.Payload{
		Text:            text,
		Source:          source,
		Filename:        filename,
		StorageLocation: location,
	})
	if err != nil {
		log.Error("ingest failed after upload was stored", zap.String("id", id), zap.Error(err))
		if rmErr := s.files.Remove(context.WithoutCancel(ctx), location); rmErr != nil {
			log.Warn("remove orphaned upload failed", zap.String("location", location), zap.Error(rmErr))
		}
		return document.Record{}, err
	}
	return rec, nil
}

func (s *Service) encodeAndUpsert(ctx context.Context, id, text string, payload document.Payload) (document.Record, error) {
	var vec []float32
	err := s.stage(ctx, "ingest.encode", func(ctx context.Context) error {
		var err error
		vec, err = s.encoder.Encode(ctx, text)
		return err //nolint:wrapcheck // gateway errors are already classified
	})
	if err != nil {
		return document.Record{}, err
	}

	rec, err := document.New(id, vec, payload, s.encoder.Dimension())
	if err != nil {
		return document.Record{}, fmt.Errorf("build record: %w", err)
	}

	err = s.stage(ctx, "ingest.upsert", func(ctx context.Context) error {
		return s.index.Upsert(ctx, rec)
	})
	if err != nil {
		return document.Record{}, err
	}
	return rec, nil
}

// stage runs fn inside a span named name, recording a failure on the span.
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
