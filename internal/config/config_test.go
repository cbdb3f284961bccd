package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8000},
		Index: IndexConfig{
			ExpectedServerVersion: "1.16.2",
			ExpectedClientVersion: "1.16.2",
		},
		Embedding: EmbeddingConfig{
			BaseURL: "http://localhost:7997/v1",
		},
		Translation: TranslationConfig{
			Model: "gpt-4o-mini",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Backend = "milvus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	expected := `index.backend must be "qdrant", "valkey" or "embedded", got "milvus"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValkeyRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Backend = "valkey"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing valkey.addrs")
	}

	cfg.Valkey.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_EmbeddingCacheRequiresValkey(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Cache.Enabled = true
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "embedding.cache") {
		t.Fatalf("expected embedding.cache error, got %v", err)
	}

	cfg.Valkey.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ExpectedVersionsRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Index.ExpectedServerVersion = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing server version")
	}

	cfg = validConfig()
	cfg.Index.ExpectedClientVersion = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing client version")
	}
}

func TestValidate_Providers(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "fastembed"
	cfg.Embedding.BaseURL = ""
	cfg.Translation.Provider = "identity"
	cfg.Translation.Model = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Translation.Provider = "deepl"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown translation provider")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Index.Backend != "qdrant" {
		t.Errorf("Index.Backend = %q, want qdrant", cfg.Index.Backend)
	}
	if cfg.Index.Collection != "my_multilingual_docs" {
		t.Errorf("Index.Collection = %q", cfg.Index.Collection)
	}
	if cfg.Qdrant.Port != 6334 {
		t.Errorf("Qdrant.Port = %d, want 6334", cfg.Qdrant.Port)
	}
	if cfg.Embedding.Model != "paraphrase-multilingual-mpnet-base-v2" {
		t.Errorf("Embedding.Model = %q", cfg.Embedding.Model)
	}
	if cfg.Translation.CanonicalLanguage != "en" {
		t.Errorf("Translation.CanonicalLanguage = %q, want en", cfg.Translation.CanonicalLanguage)
	}
	if cfg.Search.MaxLimit != 50 {
		t.Errorf("Search.MaxLimit = %d, want 50", cfg.Search.MaxLimit)
	}
	if cfg.Storage.PublicPrefix != "/files" {
		t.Errorf("Storage.PublicPrefix = %q", cfg.Storage.PublicPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Index:  IndexConfig{Backend: "valkey", Collection: "docs"},
		Search: SearchConfig{MaxLimit: 10},
	}
	cfg.ApplyDefaults()

	if cfg.Index.Backend != "valkey" || cfg.Index.Collection != "docs" {
		t.Errorf("index overridden: %+v", cfg.Index)
	}
	if cfg.Search.MaxLimit != 10 {
		t.Errorf("Search.MaxLimit = %d, want 10", cfg.Search.MaxLimit)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("POLYSEARCH_TEST_COLLECTION", "from_env")

	got := string(expandEnvVars([]byte(
		"a: ${POLYSEARCH_TEST_COLLECTION}\nb: ${POLYSEARCH_TEST_UNSET:-fallback}\nc: ${POLYSEARCH_TEST_UNSET}",
	)))
	want := "a: from_env\nb: fallback\nc: "
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestParse_EnvOverridesCollection(t *testing.T) {
	t.Setenv("COLLECTION_NAME", "support_docs")

	yml := `
http:
  port: 8000
index:
  collection: ${COLLECTION_NAME:-my_multilingual_docs}
  expected_server_version: "1.16.2"
  expected_client_version: "1.16.2"
embedding:
  base_url: http://localhost:7997/v1
translation:
  model: gpt-4o-mini
`
	cfg, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Index.Collection != "support_docs" {
		t.Errorf("Index.Collection = %q, want support_docs", cfg.Index.Collection)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("http:\n  port: 0\n"))
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port != 8000 {
		t.Errorf("HTTP.Port = %d, want 8000", cfg.HTTP.Port)
	}
}
