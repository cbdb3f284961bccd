package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/domain/document"
	"github.com/kailas-cloud/polysearch/internal/domain/search/hit"
	healthuc "github.com/kailas-cloud/polysearch/internal/usecase/health"
	"github.com/kailas-cloud/polysearch/internal/usecase/index"
	queryuc "github.com/kailas-cloud/polysearch/internal/usecase/query"
)

// --- Mocks ---

type mockIngester struct {
	gotFilename, gotSource string
	gotRaw                 []byte
	err                    error
}

func (m *mockIngester) Ingest(_ context.Context, filename string, raw []byte, source string) (document.Record, error) {
	m.gotFilename, m.gotRaw, m.gotSource = filename, raw, source
	if m.err != nil {
		return document.Record{}, m.err
	}
	return document.New("id-1", []float32{1}, document.Payload{
		Text:            string(raw),
		Source:          source,
		Filename:        filename,
		StorageLocation: "/files/id-1_" + filename,
	}, 1)
}

type mockQuerier struct {
	gotQuery string
	gotLimit int
	gotLang  string
	res      queryuc.Result
	err      error
}

func (m *mockQuerier) Query(_ context.Context, raw string, limit int, lang string) (queryuc.Result, error) {
	m.gotQuery, m.gotLimit, m.gotLang = raw, limit, lang
	return m.res, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

func newTestServer(t *testing.T, ing Ingester, q Querier, h HealthChecker, cfg Config) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	NewServer(ing, q, h, cfg, nil).Mount(r)
	return r
}

func uploadRequest(t *testing.T, filename string, content []byte, source string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if source != "" {
		if err := mw.WriteField("source", source); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	body := rec.Body.String()
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// --- Upload ---

func TestUpload_Success(t *testing.T) {
	ing := &mockIngester{}
	h := newTestServer(t, ing, &mockQuerier{}, &mockHealth{}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "notes.txt", []byte("Hello world"), "wiki"))

	expectStatus(t, rec, http.StatusOK)
	resp := decode[UploadResponse](t, rec)
	want := UploadResponse{
		Status:          "success",
		ID:              "id-1",
		Filename:        "notes.txt",
		Text:            "Hello world",
		StorageLocation: "/files/id-1_notes.txt",
	}
	if resp != want {
		t.Errorf("response = %+v, want %+v", resp, want)
	}
	if ing.gotSource != "wiki" {
		t.Errorf("source = %q, want wiki", ing.gotSource)
	}
	if string(ing.gotRaw) != "Hello world" {
		t.Errorf("raw = %q", ing.gotRaw)
	}
}

func TestUpload_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"unsupported", domain.NewInputError(domain.ErrUnsupportedFormat, "report.xlsx", ""), 400, ErrorCodeUnsupportedFormat},
		{"decode", domain.NewInputError(domain.ErrDecode, "a.pdf", "bad xref"), 400, ErrorCodeDecodeError},
		{"empty", domain.NewInputError(domain.ErrEmptyDocument, "a.txt", ""), 400, ErrorCodeEmptyDocument},
		{"storage", fmt.Errorf("save: %w: disk full", domain.ErrStorageFailure), 500, ErrorCodeStorageFailure},
		{"embedding", fmt.Errorf("encode: %w", domain.ErrEmbeddingFailure), 500, ErrorCodeEmbeddingFailure},
		{"index", fmt.Errorf("upsert: %w", domain.ErrIndexFailure), 500, ErrorCodeIndexFailure},
		{"unknown", errors.New("boom"), 500, ErrorCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &mockIngester{err: tt.err}, &mockQuerier{}, &mockHealth{}, Config{})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, uploadRequest(t, "report.xlsx", []byte("x"), ""))

			expectStatus(t, rec, tt.status)
			resp := decode[ErrorResponse](t, rec)
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
			if resp.Message == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestUpload_UnsupportedMessageNamesFile(t *testing.T) {
	err := domain.NewInputError(domain.ErrUnsupportedFormat, "report.xlsx", "supported suffixes are .txt, .docx, .pdf")
	h := newTestServer(t, &mockIngester{err: err}, &mockQuerier{}, &mockHealth{}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "report.xlsx", []byte("x"), ""))

	expectStatus(t, rec, http.StatusBadRequest)
	if msg := decode[ErrorResponse](t, rec).Message; !strings.Contains(msg, "report.xlsx") {
		t.Errorf("message = %q, want it to name report.xlsx", msg)
	}
}

func TestUpload_MalformedMultipart(t *testing.T) {
	ing := &mockIngester{}
	h := newTestServer(t, ing, &mockQuerier{}, &mockHealth{}, Config{})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusBadRequest)
	if code := decode[ErrorResponse](t, rec).Code; code != ErrorCodeBadRequest {
		t.Errorf("code = %q, want %q", code, ErrorCodeBadRequest)
	}
	if ing.gotFilename != "" {
		t.Error("malformed request reached the pipeline")
	}
}

func TestUpload_MissingFileField(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("source", "x"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newTestServer(t, &mockIngester{}, &mockQuerier{}, &mockHealth{}, Config{}).ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusBadRequest)
}

func TestUpload_TooLarge(t *testing.T) {
	ing := &mockIngester{}
	h := newTestServer(t, ing, &mockQuerier{}, &mockHealth{}, Config{MaxUploadBytes: 1024})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "big.txt", bytes.Repeat([]byte("a"), 64<<10), ""))

	if rec.Code < 400 || rec.Code >= 500 {
		t.Errorf("status = %d, want 4xx", rec.Code)
	}
	if ing.gotFilename != "" {
		t.Error("oversized upload reached the pipeline")
	}
}

// --- Search ---

func TestSearch_Success(t *testing.T) {
	q := &mockQuerier{res: queryuc.Result{
		Original:       "Bonjour le monde",
		Translated:     "Hello world",
		SourceLanguage: "fr",
		Hits: []hit.Hit{
			hit.New("a", 0.91, map[string]any{"text": "Hello world", "source": "uploaded"}),
			hit.New("b", 0.12, map[string]any{"text": "It is raining", "source": "uploaded"}),
		},
	}}
	h := newTestServer(t, &mockIngester{}, q, &mockHealth{}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=Bonjour+le+monde&limit=3&lang=fr", nil))

	expectStatus(t, rec, http.StatusOK)
	resp := decode[SearchResponse](t, rec)
	if resp.OriginalQuery != "Bonjour le monde" {
		t.Errorf("originalQuery = %q", resp.OriginalQuery)
	}
	if resp.TranslatedQuery != "Hello world" {
		t.Errorf("translatedQuery = %q", resp.TranslatedQuery)
	}
	if resp.SourceLanguage != "fr" {
		t.Errorf("sourceLanguage = %q", resp.SourceLanguage)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	top := resp.Results[0]
	if top.ID != "a" {
		t.Errorf("ID = %q, want a", top.ID)
	}
	if math.Abs(top.Score-0.91) > 1e-9 {
		t.Errorf("score = %v, want 0.91", top.Score)
	}
	if top.Payload["text"] != "Hello world" {
		t.Errorf("payload text = %v", top.Payload["text"])
	}

	if q.gotQuery != "Bonjour le monde" || q.gotLimit != 3 || q.gotLang != "fr" {
		t.Errorf("querier got (%q, %d, %q)", q.gotQuery, q.gotLimit, q.gotLang)
	}
}

func TestSearch_OptionalParamsDefaultToZero(t *testing.T) {
	q := &mockQuerier{}
	h := newTestServer(t, &mockIngester{}, q, &mockHealth{}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=hello", nil))

	expectStatus(t, rec, http.StatusOK)
	if q.gotLimit != 0 || q.gotLang != "" {
		t.Errorf("querier got limit=%d lang=%q, want zero values", q.gotLimit, q.gotLang)
	}
	var raw struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw.Results) != "[]" {
		t.Errorf("results = %s, want []", raw.Results)
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	q := &mockQuerier{}
	h := newTestServer(t, &mockIngester{}, q, &mockHealth{}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	expectStatus(t, rec, http.StatusBadRequest)
	if code := decode[ErrorResponse](t, rec).Code; code != ErrorCodeInvalidQuery {
		t.Errorf("code = %q, want %q", code, ErrorCodeInvalidQuery)
	}
	if q.gotQuery != "" {
		t.Error("missing query reached the pipeline")
	}
}

func TestSearch_MalformedLimit(t *testing.T) {
	h := newTestServer(t, &mockIngester{}, &mockQuerier{}, &mockHealth{}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=hi&limit=many", nil))

	expectStatus(t, rec, http.StatusBadRequest)
	if code := decode[ErrorResponse](t, rec).Code; code != ErrorCodeBadRequest {
		t.Errorf("code = %q, want %q", code, ErrorCodeBadRequest)
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   ErrorCode
	}{
		{fmt.Errorf("query: %w", domain.ErrInvalidQuery), 400, ErrorCodeInvalidQuery},
		{fmt.Errorf("translate to en: %w", domain.ErrTranslationFailure), 500, ErrorCodeTranslationFailure},
		{fmt.Errorf("encode: %w", domain.ErrEmbeddingFailure), 500, ErrorCodeEmbeddingFailure},
		{fmt.Errorf("search: %w", domain.ErrIndexFailure), 500, ErrorCodeIndexFailure},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			h := newTestServer(t, &mockIngester{}, &mockQuerier{err: tt.err}, &mockHealth{}, Config{})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=x", nil))

			expectStatus(t, rec, tt.status)
			if code := decode[ErrorResponse](t, rec).Code; code != tt.code {
				t.Errorf("code = %q, want %q", code, tt.code)
			}
		})
	}
}

// --- Health ---

func TestHealth_Healthy(t *testing.T) {
	hc := &mockHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{healthuc.CheckIndexBackend: healthuc.CheckOK},
		Compatibility: index.Compatibility{
			ServerVersion:         "1.15.1",
			ClientVersion:         "1.15.1",
			ExpectedServerVersion: "1.15.1",
			ExpectedClientVersion: "1.15.1",
			Compatible:            true,
		},
		Backend:    "qdrant",
		Model:      "paraphrase-multilingual-mpnet-base-v2",
		Collection: "my_multilingual_docs",
	}}
	h := newTestServer(t, &mockIngester{}, &mockQuerier{}, hc, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	expectStatus(t, rec, http.StatusOK)
	resp := decode[HealthResponse](t, rec)
	if resp.Status != "ok" || !resp.Compatible {
		t.Errorf("status = %q compatible = %v", resp.Status, resp.Compatible)
	}
	if resp.BackendVersion != "1.15.1" || resp.ExpectedVersion != "1.15.1" {
		t.Errorf("versions = %q / %q", resp.BackendVersion, resp.ExpectedVersion)
	}
	if resp.ModelName != "paraphrase-multilingual-mpnet-base-v2" {
		t.Errorf("modelName = %q", resp.ModelName)
	}
	if resp.CollectionName != "my_multilingual_docs" {
		t.Errorf("collectionName = %q", resp.CollectionName)
	}
	if resp.Checks["index_backend"] != "ok" {
		t.Errorf("checks = %v", resp.Checks)
	}
	if resp.Error != "" {
		t.Errorf("error = %q, want empty", resp.Error)
	}
}

func TestHealth_VersionMismatchIs503(t *testing.T) {
	hc := &mockHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{healthuc.CheckIndexBackend: healthuc.CheckOK},
		Compatibility: index.Compatibility{
			ServerVersion:         "1.14.0",
			ExpectedServerVersion: "1.15.1",
		},
	}}
	h := newTestServer(t, &mockIngester{}, &mockQuerier{}, hc, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	expectStatus(t, rec, http.StatusServiceUnavailable)
	resp := decode[HealthResponse](t, rec)
	if resp.Compatible {
		t.Error("expected compatible = false")
	}
	if resp.BackendVersion != "1.14.0" {
		t.Errorf("backendVersion = %q, want 1.14.0", resp.BackendVersion)
	}
}

func TestHealth_UnreachableBackendReportsError(t *testing.T) {
	hc := &mockHealth{report: healthuc.Report{
		Status:        healthuc.Degraded,
		Checks:        map[string]healthuc.CheckResult{healthuc.CheckIndexBackend: healthuc.CheckError},
		Compatibility: index.Compatibility{Err: errors.New("connection refused")},
	}}
	h := newTestServer(t, &mockIngester{}, &mockQuerier{}, hc, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	expectStatus(t, rec, http.StatusServiceUnavailable)
	if msg := decode[HealthResponse](t, rec).Error; !strings.Contains(msg, "connection refused") {
		t.Errorf("error = %q", msg)
	}
}

// --- Metrics and files ---

func TestMetrics(t *testing.T) {
	h := newTestServer(t, &mockIngester{}, &mockQuerier{}, &mockHealth{}, Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("exposition is missing go_goroutines")
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "id_notes.txt"), []byte("Hello world"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := newTestServer(t, &mockIngester{}, &mockQuerier{}, &mockHealth{}, Config{UploadDir: dir, FilesPrefix: "files/"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/id_notes.txt", nil))
	expectStatus(t, rec, http.StatusOK)
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "Hello world" {
		t.Errorf("body = %q", body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("directory listing status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/missing.txt", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", rec.Code)
	}
}
