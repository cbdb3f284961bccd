package chi

import (
	"context"

	"github.com/kailas-cloud/polysearch/internal/domain/document"
	healthuc "github.com/kailas-cloud/polysearch/internal/usecase/health"
	queryuc "github.com/kailas-cloud/polysearch/internal/usecase/query"
)

// Ingester runs the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, filename string, raw []byte, source string) (document.Record, error)
}

// Querier runs the query pipeline.
type Querier interface {
	Query(ctx context.Context, raw string, limit int, sourceLang string) (queryuc.Result, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
