package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kailas-cloud/polysearch/internal/db"
	"github.com/kailas-cloud/polysearch/internal/version"
)

// Compile-time check: Store implements db.Backend.
var _ db.Backend = (*Store)(nil)

const clientModule = "github.com/qdrant/go-client"

// client is the subset of *qdrant.Client the store uses.
type client interface {
	HealthCheck(ctx context.Context) (*qdrant.HealthCheckReply, error)
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	DeleteCollection(ctx context.Context, collectionName string) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// Config holds connection parameters for a Qdrant store.
type Config struct {
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	MaxMessageMB   int
	RequestTimeout time.Duration
}

// Store implements db.Backend over the Qdrant gRPC API.
type Store struct {
	client  client
	timeout time.Duration
}

// NewStore dials Qdrant. The connection is lazy; call Ping to verify reachability.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d (must be 1-65535)", cfg.Port)
	}
	maxMsg := cfg.MaxMessageMB << 20
	if maxMsg <= 0 {
		maxMsg = 50 << 20
	}

	qcfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		// Compatibility is checked by the index manager against configured versions.
		SkipCompatibilityCheck: true,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(maxMsg),
				grpc.MaxCallSendMsgSize(maxMsg),
			),
		},
	}
	if !cfg.UseTLS {
		qcfg.GrpcOptions = append(qcfg.GrpcOptions,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}

	c, err := qdrant.NewClient(qcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return newStore(c, cfg.RequestTimeout), nil
}

func newStore(c client, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Store{client: c, timeout: timeout}
}

// Name identifies the backend in logs and metrics.
func (s *Store) Name() string { return "qdrant" }

// Ping performs a health check on the Qdrant connection.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.ServerVersion(ctx)
	return err
}

// ServerVersion returns the version reported by the Qdrant health endpoint.
func (s *Store) ServerVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.client.HealthCheck(ctx)
	if err != nil {
		return "", &db.Error{Op: db.OpHealthCheck, Err: err}
	}
	return reply.GetVersion(), nil
}

// ClientVersion returns the linked go-client module version.
func (s *Store) ClientVersion() string {
	return version.Module(clientModule)
}

// Close releases the gRPC connections.
func (s *Store) Close() {
	_ = s.client.Close()
}
