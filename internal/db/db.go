package db

import (
	"context"
	"fmt"
	"time"
)

// Backend is the vector index facade the index manager drives.
// Qdrant, Valkey and the embedded store implement it; consumers declare narrower interfaces.
//
//nolint:interfacebloat // consumers depend on the sub-interfaces below
type Backend interface {
	Pinger
	Versioner
	CollectionManager
	PointStore
	Name() string
	Close()
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Versioner reports the server and client library versions.
type Versioner interface {
	ServerVersion(ctx context.Context) (string, error)
	ClientVersion() string
}

// CollectionManager provides collection lifecycle operations.
type CollectionManager interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, spec CollectionSpec) error
	// CollectionDimension returns the configured vector size, or 0 when the backend does not report one.
	CollectionDimension(ctx context.Context, name string) (int, error)
	DeleteCollection(ctx context.Context, name string) error
}

// PointStore writes and queries vector records.
type PointStore interface {
	// Upsert returns only after the backend has applied the write.
	Upsert(ctx context.Context, collection string, p Point) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredPoint, error)
}

// CollectionSpec describes a collection to create.
type CollectionSpec struct {
	Name      string
	Dimension int
	Distance  DistanceMetric
}

// Point is a single record: identifier, dense vector and flat payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a search hit. Score is a similarity, higher is closer.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// WaitForReady polls Ping until the backend responds or timeout expires.
func WaitForReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := p.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}
