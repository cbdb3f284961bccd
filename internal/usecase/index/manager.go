package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/polysearch/internal/db"
	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/domain/document"
	"github.com/kailas-cloud/polysearch/internal/domain/search/hit"
	"github.com/kailas-cloud/polysearch/internal/metrics"
	"github.com/kailas-cloud/polysearch/internal/version"
)

// Config pins the collection and the versions the service was built against.
type Config struct {
	Collection            string
	ExpectedServerVersion string
	ExpectedClientVersion string
}

// Compatibility is a point-in-time view of backend and client versions.
type Compatibility struct {
	ServerVersion         string
	ClientVersion         string
	ExpectedServerVersion string
	ExpectedClientVersion string
	Compatible            bool
	// Err is set when the backend could not be reached.
	Err error
}

// Manager owns the index collection lifecycle and its reads and writes.
type Manager struct {
	backend    Backend
	collection string
	expServer  string
	expClient  string
	logger     *zap.Logger
}

// New creates a Manager. An empty collection falls back to domain.DefaultCollection.
func New(b Backend, cfg Config, logger *zap.Logger) *Manager {
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollection
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		backend:    b,
		collection: cfg.Collection,
		expServer:  cfg.ExpectedServerVersion,
		expClient:  cfg.ExpectedClientVersion,
		logger:     logger,
	}
}

// Collection returns the collection Upsert and Search operate on.
func (m *Manager) Collection() string { return m.collection }

// Backend returns the backend name.
func (m *Manager) Backend() string { return m.backend.Name() }

// EnsureCollection creates name if it does not exist. Existing collections are left untouched.
func (m *Manager) EnsureCollection(ctx context.Context, name string, dim int, metric domain.Metric) (bool, error) {
	exists, err := m.backend.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check collection %s: %w: %w", name, domain.ErrIndexFailure, err)
	}
	if exists {
		m.logger.Debug("collection exists", zap.String("collection", name))
		return false, nil
	}

	if err := m.create(ctx, name, dim, metric); err != nil {
		// Lost a race with another instance creating the same collection.
		if errors.Is(err, db.ErrCollectionExists) {
			return false, nil
		}
		return false, err
	}
	m.logger.Info("collection created",
		zap.String("collection", name),
		zap.Int("dimension", dim),
		zap.String("metric", string(metric)),
	)
	return true, nil
}

// Recreate drops name with all its records and creates it empty.
func (m *Manager) Recreate(ctx context.Context, name string, dim int, metric domain.Metric) error {
	if err := m.backend.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("delete collection %s: %w: %w", name, domain.ErrIndexFailure, err)
	}
	if err := m.create(ctx, name, dim, metric); err != nil {
		return err
	}
	m.logger.Info("collection recreated", zap.String("collection", name), zap.Int("dimension", dim))
	return nil
}

func (m *Manager) create(ctx context.Context, name string, dim int, metric domain.Metric) error {
	distance, err := db.ParseDistance(string(metric))
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	err = m.backend.CreateCollection(ctx, db.CollectionSpec{Name: name, Dimension: dim, Distance: distance})
	if err != nil {
		if errors.Is(err, db.ErrCollectionExists) {
			return err
		}
		return fmt.Errorf("create collection %s: %w: %w", name, domain.ErrIndexFailure, err)
	}
	return nil
}

// VerifyDimension fails with ErrDimensionMismatch when name stores vectors of a different size than dim.
// Backends that do not report a dimension pass with a warning.
func (m *Manager) VerifyDimension(ctx context.Context, name string, dim int) error {
	got, err := m.backend.CollectionDimension(ctx, name)
	if err != nil {
		return fmt.Errorf("read collection %s dimension: %w: %w", name, domain.ErrIndexFailure, err)
	}
	if got == 0 {
		m.logger.Warn("collection dimension unknown, skipping check", zap.String("collection", name))
		return nil
	}
	if got != dim {
		return fmt.Errorf("collection %s stores %d-dimensional vectors, embedding model produces %d: %w",
			name, got, dim, domain.ErrDimensionMismatch)
	}
	return nil
}

// CheckVersionCompatibility requires both the backend server and the linked client
// library to match their expected versions exactly, ignoring a leading "v".
func (m *Manager) CheckVersionCompatibility(ctx context.Context) error {
	c := m.Compatibility(ctx)
	if c.Err != nil {
		return fmt.Errorf("%s: %w: %w", m.backend.Name(), domain.ErrBackendUnreachable, c.Err)
	}
	if !c.Compatible {
		return fmt.Errorf("%s server %q (expected %q), client %q (expected %q): %w",
			m.backend.Name(), c.ServerVersion, c.ExpectedServerVersion,
			c.ClientVersion, c.ExpectedClientVersion, domain.ErrVersionMismatch)
	}
	return nil
}

// Compatibility reports the versions without failing; an unreachable backend is reported as incompatible.
func (m *Manager) Compatibility(ctx context.Context) Compatibility {
	c := Compatibility{
		ClientVersion:         version.Normalize(m.backend.ClientVersion()),
		ExpectedServerVersion: version.Normalize(m.expServer),
		ExpectedClientVersion: version.Normalize(m.expClient),
	}

	server, err := m.backend.ServerVersion(ctx)
	if err != nil {
		c.Err = err
		return c
	}
	c.ServerVersion = version.Normalize(server)
	c.Compatible = c.ServerVersion == c.ExpectedServerVersion && c.ClientVersion == c.ExpectedClientVersion
	return c
}

// Upsert writes the record to the configured collection and returns once the backend has applied it.
func (m *Manager) Upsert(ctx context.Context, rec document.Record) error {
	start := time.Now()
	err := m.backend.Upsert(ctx, m.collection, db.Point{
		ID:      rec.ID(),
		Vector:  rec.Vector(),
		Payload: rec.Payload().Map(),
	})
	m.observe("upsert", start, err)
	if err != nil {
		return fmt.Errorf("upsert %s: %w: %w", rec.ID(), domain.ErrIndexFailure, err)
	}
	return nil
}

// Search returns at most limit hits from the configured collection, best first.
func (m *Manager) Search(ctx context.Context, vector []float32, limit int) ([]hit.Hit, error) {
	start := time.Now()
	points, err := m.backend.Search(ctx, m.collection, vector, limit)
	m.observe("search", start, err)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w: %w", m.collection, domain.ErrIndexFailure, err)
	}

	hits := make([]hit.Hit, 0, len(points))
	for _, p := range points {
		hits = append(hits, hit.New(p.ID, p.Score, p.Payload))
	}
	hit.SortByScore(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *Manager) observe(op string, start time.Time, err error) {
	backend := m.backend.Name()
	metrics.IndexOperationsTotal.WithLabelValues(backend, op, metrics.Status(err)).Inc()
	metrics.IndexOperationDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
