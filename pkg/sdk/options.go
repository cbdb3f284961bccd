package polysearch

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	backend string // "qdrant", "valkey" or "embedded"

	qdrantHost   string
	qdrantPort   int
	qdrantAPIKey string

	valkeyAddrs    []string
	valkeyPassword string

	embeddedPath string

	expectedServer string
	expectedClient string

	embedder   Embedder
	model      string
	translator Translator
	canonical  string

	collection string
	recreate   bool
	uploadDir  string
	maxLimit   int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithQdrant stores vectors in Qdrant, reached over gRPC.
func WithQdrant(host string, port int, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.backend = "qdrant"
		c.qdrantHost = host
		c.qdrantPort = port
		c.qdrantAPIKey = apiKey
	})
}

// WithValkey stores vectors in Valkey with the search module.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.backend = "valkey"
		c.valkeyAddrs = []string{addr}
		c.valkeyPassword = password
	})
}

// WithEmbedded keeps the index in process. An empty path keeps it in memory only.
func WithEmbedded(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.backend = "embedded"
		c.embeddedPath = path
	})
}

// WithExpectedVersions pins the backend server and client library versions.
// New fails with ErrVersionMismatch unless both match exactly. Without this option
// the versions seen in New are recorded and Health reports any later drift.
func WithExpectedVersions(server, client string) Option {
	return optionFunc(func(c *clientConfig) {
		c.expectedServer = server
		c.expectedClient = client
	})
}

// WithEmbedder sets the embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithModelName sets the model name reported by Health.
func WithModelName(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.model = name
	})
}

// WithTranslator sets the query translation provider.
// Without one, queries are searched as written.
func WithTranslator(t Translator) Option {
	return optionFunc(func(c *clientConfig) {
		c.translator = t
	})
}

// WithCanonicalLanguage sets the BCP 47 language queries are translated into. Default: "en".
func WithCanonicalLanguage(tag string) Option {
	return optionFunc(func(c *clientConfig) {
		c.canonical = tag
	})
}

// WithCollection sets the collection name. Default: "my_multilingual_docs".
func WithCollection(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.collection = name
	})
}

// WithRecreate drops and recreates the collection in New, discarding indexed documents.
func WithRecreate() Option {
	return optionFunc(func(c *clientConfig) {
		c.recreate = true
	})
}

// WithUploadDir sets where raw ingested bytes are kept.
// Default: a "polysearch-uploads" directory under os.TempDir().
func WithUploadDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.uploadDir = dir
	})
}

// WithMaxLimit caps the number of hits a search may request. Default: 50.
func WithMaxLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxLimit = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// IngestOption configures a single ingestion.
type IngestOption func(*ingestConfig)

type ingestConfig struct {
	source string
}

// Source labels where a document came from. Default: "uploaded".
func Source(s string) IngestOption {
	return func(c *ingestConfig) {
		c.source = s
	}
}

// SearchOption configures a single search.
type SearchOption func(*searchConfig)

type searchConfig struct {
	limit int
	lang  string
}

// Limit sets the maximum number of hits. Non-positive means 5.
func Limit(n int) SearchOption {
	return func(c *searchConfig) {
		c.limit = n
	}
}

// Language hints the BCP 47 language of the query. When absent it is detected.
func Language(tag string) SearchOption {
	return func(c *searchConfig) {
		c.lang = tag
	}
}
