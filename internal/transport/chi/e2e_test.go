package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/polysearch/internal/db/embedded"
	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/extract"
	"github.com/kailas-cloud/polysearch/internal/repository/filestore"
	"github.com/kailas-cloud/polysearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/polysearch/internal/usecase/health"
	"github.com/kailas-cloud/polysearch/internal/usecase/index"
	ingestuc "github.com/kailas-cloud/polysearch/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/polysearch/internal/usecase/query"
	"github.com/kailas-cloud/polysearch/internal/usecase/translation"
)

// letterEmbedder embeds text as its a-z letter histogram.
type letterEmbedder struct{}

func (letterEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	// Keep the vector non-zero so cosine similarity stays defined.
	if !strings.ContainsFunc(text, unicode.IsLetter) {
		v[0] = 1
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

func (letterEmbedder) Dimension() int { return 26 }

type stack struct {
	handler http.Handler
	dir     string
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newStack(t *testing.T) stack {
	t.Helper()
	ctx := context.Background()

	store := embedded.NewMemoryStore()
	server, err := store.ServerVersion(ctx)
	mustOK(t, err)
	idx := index.New(store, index.Config{
		Collection:            "docs",
		ExpectedServerVersion: server,
		ExpectedClientVersion: store.ClientVersion(),
	}, nil)

	enc, err := embedding.NewGateway(ctx, letterEmbedder{}, "letters", nil)
	mustOK(t, err)
	_, err = idx.EnsureCollection(ctx, idx.Collection(), enc.Dimension(), domain.MetricCosine)
	mustOK(t, err)

	tr, err := translation.NewGateway(translation.Identity{}, "en", nil)
	mustOK(t, err)

	dir := t.TempDir()
	files, err := filestore.New(dir, "/files")
	mustOK(t, err)

	srv := NewServer(
		ingestuc.New(extract.New(), files, enc, idx, nil),
		queryuc.New(tr, enc, idx, 50, nil),
		healthuc.New(store, idx, nil, nil, enc.Model()),
		Config{UploadDir: dir, FilesPrefix: "/files", MaxUploadBytes: 1 << 20},
		nil,
	)
	r := chi.NewRouter()
	srv.Mount(r)
	return stack{handler: r, dir: dir}
}

func (s stack) upload(t *testing.T, filename, content string) UploadResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, uploadRequest(t, filename, []byte(content), ""))
	expectStatus(t, rec, http.StatusOK)
	return decode[UploadResponse](t, rec)
}

func (s stack) search(t *testing.T, q string, limit string) SearchResponse {
	t.Helper()
	v := url.Values{"q": {q}}
	if limit != "" {
		v.Set("limit", limit)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?"+v.Encode(), nil))
	expectStatus(t, rec, http.StatusOK)
	return decode[SearchResponse](t, rec)
}

func TestEndToEnd_UploadThenSearch(t *testing.T) {
	s := newStack(t)

	up := s.upload(t, "notes.txt", "Hello world")
	if up.Status != "success" || up.Text != "Hello world" {
		t.Errorf("upload = %+v", up)
	}
	if !strings.HasPrefix(up.StorageLocation, "/files/") {
		t.Errorf("storageLocation = %q", up.StorageLocation)
	}
	s.upload(t, "weather.txt", "Rain is expected tomorrow in the mountains")

	res := s.search(t, "Hello world", "")
	if res.OriginalQuery != "Hello world" || res.TranslatedQuery != "Hello world" {
		t.Errorf("queries = %q / %q", res.OriginalQuery, res.TranslatedQuery)
	}
	if res.SourceLanguage != "en" {
		t.Errorf("sourceLanguage = %q, want en", res.SourceLanguage)
	}
	if len(res.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res.Results))
	}
	top := res.Results[0]
	if top.ID != up.ID {
		t.Errorf("top hit = %q, want %q", top.ID, up.ID)
	}
	if top.Payload["text"] != "Hello world" || top.Payload["source"] != "uploaded" {
		t.Errorf("payload = %v", top.Payload)
	}
	if top.Score < res.Results[1].Score {
		t.Errorf("scores not ordered: %v < %v", top.Score, res.Results[1].Score)
	}

	if n := len(s.search(t, "Hello world", "1").Results); n != 1 {
		t.Errorf("limit=1 returned %d results", n)
	}
}

func TestEndToEnd_StoredFileIsServed(t *testing.T) {
	s := newStack(t)
	up := s.upload(t, "notes.txt", "Hello world")

	entries, err := os.ReadDir(s.dir)
	mustOK(t, err)
	if len(entries) != 1 {
		t.Fatalf("expected 1 stored file, got %d", len(entries))
	}
	if entries[0].Name() != filepath.Base(up.StorageLocation) {
		t.Errorf("stored %q, response says %q", entries[0].Name(), up.StorageLocation)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, up.StorageLocation, nil))
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "Hello world" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestEndToEnd_RejectedUploadLeavesNothingBehind(t *testing.T) {
	s := newStack(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, uploadRequest(t, "report.xlsx", []byte("PK\x03\x04"), ""))
	expectStatus(t, rec, http.StatusBadRequest)
	if code := decode[ErrorResponse](t, rec).Code; code != ErrorCodeUnsupportedFormat {
		t.Errorf("code = %q, want %q", code, ErrorCodeUnsupportedFormat)
	}

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, uploadRequest(t, "blank.txt", []byte("  \n\t "), ""))
	expectStatus(t, rec, http.StatusBadRequest)
	if code := decode[ErrorResponse](t, rec).Code; code != ErrorCodeEmptyDocument {
		t.Errorf("code = %q, want %q", code, ErrorCodeEmptyDocument)
	}

	entries, err := os.ReadDir(s.dir)
	mustOK(t, err)
	if len(entries) != 0 {
		t.Errorf("expected no stored files, got %d", len(entries))
	}
	if n := len(s.search(t, "anything", "").Results); n != 0 {
		t.Errorf("expected empty index, got %d results", n)
	}
}

func TestEndToEnd_Health(t *testing.T) {
	s := newStack(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	expectStatus(t, rec, http.StatusOK)
	resp := decode[HealthResponse](t, rec)
	if resp.Status != "ok" || !resp.Compatible {
		t.Errorf("status = %q compatible = %v", resp.Status, resp.Compatible)
	}
	if resp.Backend != "embedded" {
		t.Errorf("backend = %q, want embedded", resp.Backend)
	}
	if resp.ModelName != "letters" || resp.CollectionName != "docs" {
		t.Errorf("model/collection = %q / %q", resp.ModelName, resp.CollectionName)
	}
}
