package polysearch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kailas-cloud/polysearch/internal/db"
	"github.com/kailas-cloud/polysearch/internal/db/embedded"
	dbQdrant "github.com/kailas-cloud/polysearch/internal/db/qdrant"
	dbValkey "github.com/kailas-cloud/polysearch/internal/db/valkey"
	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/domain/document"
	"github.com/kailas-cloud/polysearch/internal/extract"
	"github.com/kailas-cloud/polysearch/internal/repository/filestore"
	embeddinguc "github.com/kailas-cloud/polysearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/polysearch/internal/usecase/health"
	"github.com/kailas-cloud/polysearch/internal/usecase/index"
	ingestuc "github.com/kailas-cloud/polysearch/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/polysearch/internal/usecase/query"
	translationuc "github.com/kailas-cloud/polysearch/internal/usecase/translation"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultMaxLimit         = 50
	defaultCanonical        = "en"
)

type ingestUseCase interface {
	Ingest(ctx context.Context, filename string, raw []byte, source string) (document.Record, error)
}

type queryUseCase interface {
	Query(ctx context.Context, raw string, limit int, sourceLang string) (queryuc.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the polysearch SDK entry point. It is safe for concurrent use.
type Client struct {
	backend   db.Backend
	ingestSvc ingestUseCase
	querySvc  queryUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New connects to the index backend, resolves the embedding dimension and prepares the
// collection. It fails when pinned versions do not match, or when an existing collection
// was built with a different dimension.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		collection: domain.DefaultCollection,
		canonical:  defaultCanonical,
		uploadDir:  filepath.Join(os.TempDir(), "polysearch-uploads"),
		maxLimit:   defaultMaxLimit,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.embedder == nil {
		return nil, errors.New("polysearch: embedder not configured (use WithEmbedder)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	backend, err := createBackend(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.WaitForReady(ctx, backend, defaultReadinessTimeout); err != nil {
		backend.Close()
		return nil, fmt.Errorf("polysearch: %s: %w: %w", backend.Name(), domain.ErrBackendUnreachable, err)
	}

	c, err := wireClient(ctx, backend, cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}
	c.obs = obs
	return c, nil
}

func createBackend(cfg *clientConfig) (db.Backend, error) {
	var (
		b   db.Backend
		err error
	)
	switch cfg.backend {
	case "qdrant":
		b, err = dbQdrant.NewStore(dbQdrant.Config{
			Host:   cfg.qdrantHost,
			Port:   cfg.qdrantPort,
			APIKey: cfg.qdrantAPIKey,
		})
	case "valkey":
		b, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:     cfg.valkeyAddrs,
			Password:  cfg.valkeyPassword,
			KeyPrefix: "polysearch:",
		})
	case "embedded":
		b, err = embedded.NewStore(embedded.Config{Path: cfg.embeddedPath})
	case "":
		return nil, errors.New("polysearch: no index backend configured (use WithQdrant, WithValkey or WithEmbedded)")
	default:
		return nil, fmt.Errorf("polysearch: unknown backend %q", cfg.backend)
	}
	if err != nil {
		return nil, fmt.Errorf("polysearch: %s: %w", cfg.backend, err)
	}
	return b, nil
}

func wireClient(ctx context.Context, backend db.Backend, cfg *clientConfig) (*Client, error) {
	enc, err := embeddinguc.NewGateway(ctx, &embedderAdapter{inner: cfg.embedder}, cfg.model, nil)
	if err != nil {
		return nil, fmt.Errorf("polysearch: %w", err)
	}

	var tr domain.Translator = translationuc.Identity{}
	if cfg.translator != nil {
		tr = &translatorAdapter{inner: cfg.translator}
	}
	gw, err := translationuc.NewGateway(tr, cfg.canonical, nil)
	if err != nil {
		return nil, fmt.Errorf("polysearch: %w", err)
	}

	pinned := cfg.expectedServer != "" || cfg.expectedClient != ""
	expServer, expClient := cfg.expectedServer, cfg.expectedClient
	if !pinned {
		// Report drift from the versions seen at connect time.
		expServer, _ = backend.ServerVersion(ctx)
		expClient = backend.ClientVersion()
	}
	idx := index.New(backend, index.Config{
		Collection:            cfg.collection,
		ExpectedServerVersion: expServer,
		ExpectedClientVersion: expClient,
	}, nil)
	if err := prepareIndex(ctx, idx, cfg.recreate, pinned, enc.Dimension()); err != nil {
		return nil, fmt.Errorf("polysearch: %w", err)
	}

	files, err := filestore.New(cfg.uploadDir, "/files")
	if err != nil {
		return nil, fmt.Errorf("polysearch: %w", err)
	}

	var translationHealth healthuc.Checker
	if hc := checkerOf(cfg.translator); hc != nil {
		translationHealth = hc
	}
	var embeddingHealth healthuc.Checker
	if hc := checkerOf(cfg.embedder); hc != nil {
		embeddingHealth = hc
	}

	return &Client{
		backend:   backend,
		ingestSvc: ingestuc.New(extract.New(), files, enc, idx, nil),
		querySvc:  queryuc.New(gw, enc, idx, cfg.maxLimit, nil),
		healthSvc: healthuc.New(backend, idx, embeddingHealth, translationHealth, cfg.model),
	}, nil
}

func prepareIndex(ctx context.Context, idx *index.Manager, recreate, pinned bool, dim int) error {
	if pinned {
		if err := idx.CheckVersionCompatibility(ctx); err != nil {
			return err //nolint:wrapcheck // wrapped by caller
		}
	}
	name := idx.Collection()
	if recreate {
		return idx.Recreate(ctx, name, dim, domain.MetricCosine) //nolint:wrapcheck // wrapped by caller
	}
	if _, err := idx.EnsureCollection(ctx, name, dim, domain.MetricCosine); err != nil {
		return err //nolint:wrapcheck // wrapped by caller
	}
	return idx.VerifyDimension(ctx, name, dim) //nolint:wrapcheck // wrapped by caller
}

// Close releases all resources.
func (c *Client) Close() {
	if c.backend != nil {
		c.backend.Close()
	}
}

// Ping checks index backend connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ingest extracts, embeds and indexes raw. The format is chosen from filename's suffix
// (.txt, .docx or .pdf).
func (c *Client) Ingest(ctx context.Context, filename string, raw []byte, opts ...IngestOption) (Document, error) {
	var ic ingestConfig
	for _, o := range opts {
		o(&ic)
	}

	start := time.Now()
	rec, err := c.ingestSvc.Ingest(ctx, filename, raw, ic.source)
	c.obs.observe("ingest", start, err)
	if err != nil {
		return Document{}, err //nolint:wrapcheck // domain errors re-exported as sentinels
	}
	return fromRecord(&rec), nil
}

// IngestFile reads path and ingests it under its base name.
func (c *Client) IngestFile(ctx context.Context, path string, opts ...IngestOption) (Document, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Document{}, fmt.Errorf("polysearch: read %s: %w", path, err)
	}
	return c.Ingest(ctx, filepath.Base(path), raw, opts...)
}

// Search translates query into the canonical language and returns the nearest documents.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (SearchResult, error) {
	var sc searchConfig
	for _, o := range opts {
		o(&sc)
	}

	start := time.Now()
	res, err := c.querySvc.Query(ctx, query, sc.limit, sc.lang)
	c.obs.observe("search", start, err)
	if err != nil {
		return SearchResult{}, err //nolint:wrapcheck // domain errors re-exported as sentinels
	}
	return fromQueryResult(res), nil
}

// Health checks the backend, the providers and version compatibility.
func (c *Client) Health(ctx context.Context) HealthStatus {
	return fromReport(c.healthSvc.Check(ctx))
}
