package ingest

import (
	"context"

	"github.com/kailas-cloud/polysearch/internal/domain/document"
)

// Extractor turns raw upload bytes into plain text.
type Extractor interface {
	Extract(filename string, raw []byte) (string, error)
}

// FileStore persists raw uploads.
type FileStore interface {
	Save(ctx context.Context, id, filename string, raw []byte) (location string, err error)
	Remove(ctx context.Context, location string) error
}

// Encoder vectorizes text with a fixed output dimension.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Indexer writes records to the vector index.
type Indexer interface {
	Upsert(ctx context.Context, rec document.Record) error
}
