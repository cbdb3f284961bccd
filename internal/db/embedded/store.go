// Package embedded is an in-process vector backend on chromem-go, for local
// development, single-binary deployments and tests. Similarity is always cosine.
package embedded

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/kailas-cloud/polysearch/internal/db"
	"github.com/kailas-cloud/polysearch/internal/version"
)

// Compile-time check: Store implements db.Backend.
var _ db.Backend = (*Store)(nil)

const module = "github.com/philippgille/chromem-go"

var errNoEmbedding = errors.New("embedded backend stores precomputed vectors only")

// Config selects persistence. An empty Path keeps everything in memory.
type Config struct {
	Path     string
	Compress bool
}

// Store implements db.Backend over a chromem-go database.
type Store struct {
	db *chromem.DB

	mu   sync.RWMutex
	dims map[string]int
}

// NewStore opens (or creates) the database.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return newStore(chromem.NewDB()), nil
	}
	d, err := chromem.NewPersistentDB(cfg.Path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("open chromem db %s: %w", cfg.Path, err)
	}
	return newStore(d), nil
}

// NewMemoryStore returns a store with no persistence.
func NewMemoryStore() *Store {
	return newStore(chromem.NewDB())
}

func newStore(d *chromem.DB) *Store {
	return &Store{db: d, dims: make(map[string]int)}
}

// Name identifies the backend in logs and metrics.
func (s *Store) Name() string { return "embedded" }

// Ping always succeeds; the database lives in this process.
func (s *Store) Ping(context.Context) error { return nil }

// ServerVersion is the chromem-go module version, the engine being linked in.
func (s *Store) ServerVersion(context.Context) (string, error) {
	return version.Module(module), nil
}

// ClientVersion is the chromem-go module version.
func (s *Store) ClientVersion() string { return version.Module(module) }

// Close is a no-op; persistent databases write through on every change.
func (s *Store) Close() {}

// CollectionExists reports whether name exists.
func (s *Store) CollectionExists(_ context.Context, name string) (bool, error) {
	return s.db.GetCollection(name, noEmbedding) != nil, nil
}

// CreateCollection creates name. Only cosine distance is supported.
func (s *Store) CreateCollection(_ context.Context, spec db.CollectionSpec) error {
	if spec.Distance != "" && spec.Distance != db.DistanceCosine {
		return fmt.Errorf("embedded backend supports cosine distance only, got %s", spec.Distance)
	}
	if spec.Dimension <= 0 {
		return fmt.Errorf("dimension must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.GetCollection(spec.Name, noEmbedding) != nil {
		return db.ErrCollectionExists
	}
	if _, err := s.db.CreateCollection(spec.Name, nil, noEmbedding); err != nil {
		return fmt.Errorf("create collection %s: %w", spec.Name, err)
	}
	s.dims[spec.Name] = spec.Dimension
	return nil
}

// CollectionDimension returns the dimension set at creation. chromem-go does not expose
// collection metadata, so a collection reopened from disk reports 0.
func (s *Store) CollectionDimension(_ context.Context, name string) (int, error) {
	if s.db.GetCollection(name, noEmbedding) == nil {
		return 0, db.ErrCollectionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims[name], nil
}

// DeleteCollection removes name and its documents. Missing collections are ignored.
func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	delete(s.dims, name)
	return nil
}

// Upsert stores the point. Writes are applied before return.
func (s *Store) Upsert(ctx context.Context, collection string, p db.Point) error {
	col := s.db.GetCollection(collection, noEmbedding)
	if col == nil {
		return db.ErrCollectionNotFound
	}
	if dim, err := s.CollectionDimension(ctx, collection); err == nil && dim > 0 && dim != len(p.Vector) {
		return fmt.Errorf("vector has %d dimensions, collection expects %d", len(p.Vector), dim)
	}

	meta := make(map[string]string, len(p.Payload))
	for k, v := range p.Payload {
		meta[k] = fmt.Sprint(v)
	}

	err := col.AddDocument(ctx, chromem.Document{
		ID:        p.ID,
		Metadata:  meta,
		Embedding: append([]float32(nil), p.Vector...),
	})
	if err != nil {
		return fmt.Errorf("add document %s: %w", p.ID, err)
	}
	return nil
}

// Search runs an exhaustive cosine nearest-neighbour search.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int) ([]db.ScoredPoint, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	col := s.db.GetCollection(collection, noEmbedding)
	if col == nil {
		return nil, db.ErrCollectionNotFound
	}

	// chromem requires nResults <= doc count
	n := min(limit, col.Count())
	if n == 0 {
		return []db.ScoredPoint{}, nil
	}

	res, err := col.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}

	points := make([]db.ScoredPoint, 0, len(res))
	for _, r := range res {
		payload := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			payload[k] = v
		}
		points = append(points, db.ScoredPoint{ID: r.ID, Score: float64(r.Similarity), Payload: payload})
	}
	return points, nil
}

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedding
}
