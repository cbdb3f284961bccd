package health

import (
	"context"

	"github.com/kailas-cloud/polysearch/internal/usecase/index"
)

// BackendPinger checks index backend availability.
type BackendPinger interface {
	Ping(ctx context.Context) error
}

// Checker checks availability of an external provider (embedding, translation).
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CompatibilityReporter reports backend and client versions.
type CompatibilityReporter interface {
	Compatibility(ctx context.Context) index.Compatibility
	Collection() string
	Backend() string
}
