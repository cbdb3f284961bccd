package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/polysearch/internal/config"
	"github.com/kailas-cloud/polysearch/internal/db"
	"github.com/kailas-cloud/polysearch/internal/db/embedded"
	dbQdrant "github.com/kailas-cloud/polysearch/internal/db/qdrant"
	dbValkey "github.com/kailas-cloud/polysearch/internal/db/valkey"
	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/extract"
	logpkg "github.com/kailas-cloud/polysearch/internal/logger"
	"github.com/kailas-cloud/polysearch/internal/metrics"
	"github.com/kailas-cloud/polysearch/internal/repository/embcache"
	"github.com/kailas-cloud/polysearch/internal/repository/filestore"
	"github.com/kailas-cloud/polysearch/internal/transport/fastembed"
	openaiTransport "github.com/kailas-cloud/polysearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/polysearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/polysearch/internal/usecase/health"
	"github.com/kailas-cloud/polysearch/internal/usecase/index"
	ingestuc "github.com/kailas-cloud/polysearch/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/polysearch/internal/usecase/query"
	translationuc "github.com/kailas-cloud/polysearch/internal/usecase/translation"
)

// app is the composition root shared by every subcommand.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger

	backend db.Backend
	index   *index.Manager
	encoder *embeddinguc.Gateway
	files   *filestore.Store

	ingest *ingestuc.Service
	query  *queryuc.Service
	health *healthuc.Service

	closers []func()
}

type bootOptions struct {
	// recreate drops and recreates the collection regardless of index.recreate_on_start.
	recreate bool
	// skipStartupChecks leaves version and dimension verification to the caller (health command).
	skipStartupChecks bool
}

// loadConfig reads configuration and builds the logger.
func loadConfig(env string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

// newApp wires every component. Version, collection and dimension problems are fatal here
// unless opts.skipStartupChecks is set.
func newApp(ctx context.Context, env string, opts bootOptions) (*app, error) {
	cfg, logger, err := loadConfig(env)
	if err != nil {
		return nil, err
	}
	a := &app{env: env, cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	if err := a.wire(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, opts bootOptions) error {
	cfg, logger := a.cfg, a.logger

	metrics.RegisterPipelineMetrics()

	backend, err := newBackend(cfg)
	if err != nil {
		return fmt.Errorf("create %s backend: %w", cfg.Index.Backend, err)
	}
	a.backend = backend
	a.closers = append(a.closers, backend.Close)

	if err := db.WaitForReady(ctx, backend, time.Duration(cfg.Index.ReadinessTimeout)*time.Second); err != nil {
		if !opts.skipStartupChecks {
			return fmt.Errorf("%s: %w: %w", backend.Name(), domain.ErrBackendUnreachable, err)
		}
		logger.Warn("index backend not ready", zap.String("backend", backend.Name()), zap.Error(err))
	} else {
		logger.Info("connected to index backend", zap.String("backend", backend.Name()))
	}

	provider, err := a.newEmbeddingProvider()
	if err != nil {
		return err
	}
	enc, err := embeddinguc.NewGateway(ctx, provider, cfg.Embedding.Model, logger)
	if err != nil {
		return fmt.Errorf("embedding gateway: %w", err)
	}
	a.encoder = enc

	translator, translatorHealth := a.newTranslator()
	tr, err := translationuc.NewGateway(translator, cfg.Translation.CanonicalLanguage, logger)
	if err != nil {
		return fmt.Errorf("translation gateway: %w", err)
	}

	a.index = index.New(backend, index.Config{
		Collection:            cfg.Index.Collection,
		ExpectedServerVersion: cfg.Index.ExpectedServerVersion,
		ExpectedClientVersion: cfg.Index.ExpectedClientVersion,
	}, logger)

	if !opts.skipStartupChecks {
		if err := a.prepareIndex(ctx, opts.recreate || cfg.Index.RecreateOnStart); err != nil {
			return err
		}
	}

	files, err := filestore.New(cfg.Storage.UploadDir, cfg.Storage.PublicPrefix)
	if err != nil {
		return fmt.Errorf("upload storage: %w", err)
	}
	a.files = files

	a.ingest = ingestuc.New(extract.New(), files, enc, a.index, logger)
	a.query = queryuc.New(tr, enc, a.index, cfg.Search.MaxLimit, logger)

	var embeddingHealth healthuc.Checker
	if hc, ok := provider.(domain.HealthChecker); ok {
		embeddingHealth = hc
	}
	a.health = healthuc.New(backend, a.index, embeddingHealth, translatorHealth, cfg.Embedding.Model)

	logger.Info("pipeline ready",
		zap.String("backend", backend.Name()),
		zap.String("collection", a.index.Collection()),
		zap.String("model", enc.Model()),
		zap.Int("dimension", enc.Dimension()),
		zap.String("canonical_language", tr.Canonical()),
	)
	return nil
}

// prepareIndex runs the startup checks: exact versions, then the collection, then its dimension.
func (a *app) prepareIndex(ctx context.Context, recreate bool) error {
	if err := a.index.CheckVersionCompatibility(ctx); err != nil {
		return fmt.Errorf("startup check: %w", err)
	}

	name, dim := a.index.Collection(), a.encoder.Dimension()
	if recreate {
		a.logger.Warn("recreating collection, all indexed documents are dropped", zap.String("collection", name))
		if err := a.index.Recreate(ctx, name, dim, domain.MetricCosine); err != nil {
			return fmt.Errorf("startup check: %w", err)
		}
		return nil
	}

	if _, err := a.index.EnsureCollection(ctx, name, dim, domain.MetricCosine); err != nil {
		return fmt.Errorf("startup check: %w", err)
	}
	if err := a.index.VerifyDimension(ctx, name, dim); err != nil {
		return fmt.Errorf("startup check: %w", err)
	}
	return nil
}

func newBackend(cfg config.Config) (db.Backend, error) {
	switch cfg.Index.Backend {
	case "valkey":
		return dbValkey.NewStore(dbValkey.Config{
			Addrs:           cfg.Valkey.Addrs,
			Password:        cfg.Valkey.Password,
			KeyPrefix:       cfg.Valkey.KeyPrefix,
			HNSWM:           cfg.Valkey.HNSWM,
			HNSWEFConstruct: cfg.Valkey.HNSWEFConstruct,
		})
	case "embedded":
		return embedded.NewStore(embedded.Config{
			Path:     cfg.Embedded.Path,
			Compress: cfg.Embedded.Compress,
		})
	default:
		return dbQdrant.NewStore(dbQdrant.Config{
			Host:           cfg.Qdrant.Host,
			Port:           cfg.Qdrant.Port,
			APIKey:         cfg.Qdrant.APIKey,
			UseTLS:         cfg.Qdrant.UseTLS,
			MaxMessageMB:   cfg.Qdrant.MaxMessageMB,
			RequestTimeout: time.Duration(cfg.Qdrant.RequestTimeout) * time.Second,
		})
	}
}

// newEmbeddingProvider assembles the provider chain: base provider, then the optional Valkey cache.
func (a *app) newEmbeddingProvider() (domain.Embedder, error) {
	cfg, logger := a.cfg.Embedding, a.logger

	var base domain.Embedder
	switch cfg.Provider {
	case "fastembed":
		fe, err := fastembed.New(fastembed.Config{Model: cfg.Model, CacheDir: cfg.CacheDir})
		if err != nil {
			return nil, fmt.Errorf("fastembed: %w", err)
		}
		a.closers = append(a.closers, func() { _ = fe.Close() })
		base = fe
	default:
		base = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})
	}

	if !cfg.Cache.Enabled {
		return base, nil
	}

	// The cache always talks to Valkey, whichever index backend is selected.
	kv, ok := a.backend.(*dbValkey.Store)
	if !ok {
		var err error
		kv, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:     a.cfg.Valkey.Addrs,
			Password:  a.cfg.Valkey.Password,
			KeyPrefix: a.cfg.Valkey.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		a.closers = append(a.closers, kv.Close)
	}
	ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
	logger.Info("embedding cache enabled", zap.Duration("ttl", ttl))
	return embcache.New(base, kv, cfg.Model, ttl, metrics.EmbeddingCacheTotal, logger), nil
}

// newTranslator returns the translation provider and, when it has one, its health check.
func (a *app) newTranslator() (domain.Translator, healthuc.Checker) {
	cfg := a.cfg.Translation
	if cfg.Provider == "identity" {
		return translationuc.Identity{}, nil
	}
	t := openaiTransport.NewTranslator(&openaiTransport.Config{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		Provider: cfg.Provider,
		Logger:   a.logger,
	})
	return t, t
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
