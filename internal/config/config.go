package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the polysearch service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Index       IndexConfig       `yaml:"index"`
	Qdrant      QdrantConfig      `yaml:"qdrant"`
	Valkey      ValkeyConfig      `yaml:"valkey"`
	Embedded    EmbeddedConfig    `yaml:"embedded"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Translation TranslationConfig `yaml:"translation"`
	Search      SearchConfig      `yaml:"search"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port              int `yaml:"port"`
	ReadTimeoutSec    int `yaml:"read_timeout_sec"`
	WriteTimeoutSec   int `yaml:"write_timeout_sec"`
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
	ShutdownSec       int `yaml:"shutdown_timeout_sec"`
	MaxUploadMB       int `yaml:"max_upload_mb"`
}

// IndexConfig selects the vector index backend and pins the versions it must run.
type IndexConfig struct {
	Backend               string `yaml:"backend"` // qdrant, valkey, embedded (default: qdrant)
	Collection            string `yaml:"collection"`
	ExpectedServerVersion string `yaml:"expected_server_version"`
	ExpectedClientVersion string `yaml:"expected_client_version"`
	RecreateOnStart       bool   `yaml:"recreate_on_start"`
	ReadinessTimeout      int    `yaml:"readiness_timeout_sec"`
}

// QdrantConfig holds Qdrant gRPC connection settings.
type QdrantConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	APIKey         string `yaml:"api_key"`
	UseTLS         bool   `yaml:"use_tls"`
	MaxMessageMB   int    `yaml:"max_message_mb"`
	RequestTimeout int    `yaml:"request_timeout_sec"`
}

// ValkeyConfig holds Valkey/Redis connection and HNSW settings.
type ValkeyConfig struct {
	Addrs           []string `yaml:"addrs"`
	Password        string   `yaml:"password"`
	KeyPrefix       string   `yaml:"key_prefix"`
	HNSWM           int      `yaml:"hnsw_m"`
	HNSWEFConstruct int      `yaml:"hnsw_ef_construction"`
}

// EmbeddedConfig holds settings of the in-process chromem-go backend.
type EmbeddedConfig struct {
	Path     string `yaml:"path"` // empty keeps the index in memory
	Compress bool   `yaml:"compress"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string               `yaml:"provider"` // openai, fastembed (default: openai)
	Model      string               `yaml:"model"`
	BaseURL    string               `yaml:"base_url"`
	APIKey     string               `yaml:"api_key"`
	Dimensions int                  `yaml:"dimensions"` // sent to providers that support truncation; 0 = model default
	CacheDir   string               `yaml:"cache_dir"`  // fastembed model cache
	Cache      EmbeddingCacheConfig `yaml:"cache"`
}

// EmbeddingCacheConfig enables the Valkey-backed embedding cache (uses valkey.addrs).
type EmbeddingCacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"` // 0 = no expiry
}

// TranslationConfig holds translation provider settings.
type TranslationConfig struct {
	Provider          string `yaml:"provider"` // openai, identity (default: openai)
	Model             string `yaml:"model"`
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`
	CanonicalLanguage string `yaml:"canonical_language"`
}

// SearchConfig holds query limits. A missing or non-positive limit always means 5 hits.
type SearchConfig struct {
	MaxLimit int `yaml:"max_limit"`
}

// StorageConfig holds raw upload persistence settings.
type StorageConfig struct {
	UploadDir    string `yaml:"upload_dir"`
	PublicPrefix string `yaml:"public_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, docker, prod).
// A .env file in the working directory, if present, is loaded into the process environment first.
func Load(env string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references in data and decodes it into a validated Config.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.RequestTimeoutSec <= 0 {
		c.HTTP.RequestTimeoutSec = 55
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 32
	}
	if c.Index.Backend == "" {
		c.Index.Backend = "qdrant"
	}
	if c.Index.Collection == "" {
		c.Index.Collection = "my_multilingual_docs"
	}
	if c.Index.ReadinessTimeout <= 0 {
		c.Index.ReadinessTimeout = 10
	}
	if c.Qdrant.Host == "" {
		c.Qdrant.Host = "localhost"
	}
	if c.Qdrant.Port <= 0 {
		c.Qdrant.Port = 6334
	}
	if c.Qdrant.MaxMessageMB <= 0 {
		c.Qdrant.MaxMessageMB = 50
	}
	if c.Qdrant.RequestTimeout <= 0 {
		c.Qdrant.RequestTimeout = 30
	}
	if c.Valkey.KeyPrefix == "" {
		c.Valkey.KeyPrefix = "polysearch:"
	}
	if c.Valkey.HNSWM <= 0 {
		c.Valkey.HNSWM = 16
	}
	if c.Valkey.HNSWEFConstruct <= 0 {
		c.Valkey.HNSWEFConstruct = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "paraphrase-multilingual-mpnet-base-v2"
	}
	if c.Translation.Provider == "" {
		c.Translation.Provider = "openai"
	}
	if c.Translation.CanonicalLanguage == "" {
		c.Translation.CanonicalLanguage = "en"
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 50
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "uploads"
	}
	if c.Storage.PublicPrefix == "" {
		c.Storage.PublicPrefix = "/files"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Index.Backend {
	case "qdrant":
	case "valkey":
		if len(c.Valkey.Addrs) == 0 {
			return errors.New("valkey.addrs is required when index.backend is valkey")
		}
	case "embedded":
	default:
		return fmt.Errorf("index.backend must be \"qdrant\", \"valkey\" or \"embedded\", got %q", c.Index.Backend)
	}

	if c.Index.ExpectedServerVersion == "" {
		return errors.New("index.expected_server_version is required")
	}
	if c.Index.ExpectedClientVersion == "" {
		return errors.New("index.expected_client_version is required")
	}

	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.BaseURL == "" {
			return errors.New("embedding.base_url is required for the openai provider")
		}
	case "fastembed":
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"fastembed\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Cache.Enabled && len(c.Valkey.Addrs) == 0 {
		return errors.New("valkey.addrs is required when embedding.cache.enabled is true")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}

	switch c.Translation.Provider {
	case "openai":
		if c.Translation.Model == "" {
			return errors.New("translation.model is required for the openai provider")
		}
	case "identity":
	default:
		return fmt.Errorf("translation.provider must be \"openai\" or \"identity\", got %q", c.Translation.Provider)
	}
	return nil
}

// loadDotEnv loads KEY=VALUE pairs from path without overriding variables already set.
func loadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := env + ".yaml"

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and `go run` from a subdirectory.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
