package valkey

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/polysearch/internal/db"
	"github.com/kailas-cloud/polysearch/internal/version"
)

// Compile-time check: Store implements db.Backend.
var _ db.Backend = (*Store)(nil)

const clientModule = "github.com/redis/rueidis"

// Config holds connection parameters for a Valkey store.
type Config struct {
	Addrs     []string
	Password  string
	KeyPrefix string
	// HNSW build parameters; zero leaves the server default.
	HNSWM           int
	HNSWEFConstruct int
}

// Store implements db.Backend via rueidis against Valkey with the search module.
type Store struct {
	client rueidis.Client
	prefix string
	m      int
	ef     int
}

// NewStore creates a Valkey store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg), nil
}

func newStore(client rueidis.Client, cfg Config) *Store {
	return &Store{
		client: client,
		prefix: cfg.KeyPrefix,
		m:      cfg.HNSWM,
		ef:     cfg.HNSWEFConstruct,
	}
}

// Name identifies the backend in logs and metrics.
func (s *Store) Name() string { return "valkey" }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.b().Ping().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// ServerVersion reads valkey_version (or redis_version on older servers) from INFO server.
func (s *Store) ServerVersion(ctx context.Context) (string, error) {
	cmd := s.b().Info().Section("server").Build()
	info, err := s.do(ctx, cmd).ToString()
	if err != nil {
		return "", &db.Error{Op: db.OpInfo, Err: err}
	}
	fields := parseInfo(info)
	if v := fields["valkey_version"]; v != "" {
		return v, nil
	}
	if v := fields["redis_version"]; v != "" {
		return v, nil
	}
	return "", &db.Error{Op: db.OpInfo, Err: fmt.Errorf("no server version in INFO reply")}
}

// ClientVersion returns the linked rueidis module version.
func (s *Store) ClientVersion() string {
	return version.Module(clientModule)
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// parseInfo splits an INFO reply into key/value pairs, skipping section headers.
func parseInfo(info string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}

// isRedisErr checks if err is a server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsIgnoreCase(re.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
