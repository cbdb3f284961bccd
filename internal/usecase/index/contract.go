package index

import (
	"context"

	"github.com/kailas-cloud/polysearch/internal/db"
)

// Backend is the vector index the manager drives.
type Backend interface {
	Name() string
	ServerVersion(ctx context.Context) (string, error)
	ClientVersion() string
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, spec db.CollectionSpec) error
	CollectionDimension(ctx context.Context, name string) (int, error)
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, p db.Point) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]db.ScoredPoint, error)
}
