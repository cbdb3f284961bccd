// Package chi is the HTTP transport of polysearch.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/logger"
	healthuc "github.com/kailas-cloud/polysearch/internal/usecase/health"
)

// multipartMemory is the part of a multipart body kept in memory; the rest spills to disk.
const multipartMemory = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Config holds transport settings.
type Config struct {
	MaxUploadBytes int64
	// UploadDir is served read-only under FilesPrefix.
	UploadDir   string
	FilesPrefix string
}

// Server serves the upload, search, health, metrics and file endpoints.
type Server struct {
	ingest        Ingester
	query         Querier
	health        HealthChecker
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(ingest Ingester, query Querier, health HealthChecker, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FilesPrefix == "" {
		cfg.FilesPrefix = "/files"
	}
	cfg.FilesPrefix = "/" + strings.Trim(cfg.FilesPrefix, "/")

	s := &Server{
		ingest: ingest,
		query:  query,
		health: health,
		cfg:    cfg,
		logger: logger,
	}
	// Input errors map to 400, collaborator errors to 500.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusBadRequest, ErrorCodeUnsupportedFormat),
		sentinelHandler(domain.ErrDecode, http.StatusBadRequest, ErrorCodeDecodeError),
		sentinelHandler(domain.ErrEmptyDocument, http.StatusBadRequest, ErrorCodeEmptyDocument),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeInvalidQuery),
		sentinelHandler(domain.ErrStorageFailure, http.StatusInternalServerError, ErrorCodeStorageFailure),
		sentinelHandler(domain.ErrTranslationFailure, http.StatusInternalServerError, ErrorCodeTranslationFailure),
		sentinelHandler(domain.ErrEmbeddingFailure, http.StatusInternalServerError, ErrorCodeEmbeddingFailure),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusInternalServerError, ErrorCodeEmbeddingFailure),
		sentinelHandler(domain.ErrIndexFailure, http.StatusInternalServerError, ErrorCodeIndexFailure),
	}
	return s
}

// Mount registers all routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Post("/upload", s.Upload)
	r.Get("/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	if s.cfg.UploadDir != "" {
		r.Handle(s.cfg.FilesPrefix+"/*", s.files())
	}
}

// Upload handles POST /upload (multipart field "file", optional field "source").
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid multipart body: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "multipart field \"file\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "read upload: "+err.Error())
		return
	}

	rec, err := s.ingest.Ingest(r.Context(), header.Filename, raw, r.FormValue("source"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	p := rec.Payload()
	writeJSON(w, http.StatusOK, UploadResponse{
		Status:          "success",
		ID:              rec.ID(),
		Filename:        p.Filename,
		Text:            p.Text,
		StorageLocation: p.StorageLocation,
	})
}

// Search handles GET /search?q=&limit=&lang=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", params, &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidQuery, err.Error())
		return
	}
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", params, &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	var lang *string
	if err := runtime.BindQueryParameter("form", true, false, "lang", params, &lang); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	res, err := s.query.Query(r.Context(), q, deref(limit), deref(lang))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NewSearchResponse(res))
}

// HealthCheck handles GET /health. It reports, it never fails the process.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, NewHealthResponse(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// files serves the upload directory read-only, without directory listings.
func (s *Server) files() http.Handler {
	fs := http.StripPrefix(s.cfg.FilesPrefix, http.FileServer(http.Dir(s.cfg.UploadDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	if domain.IsInputError(err) {
		log.Info("request rejected", zap.Error(err))
	} else {
		log.Warn("request failed", zap.Error(err))
	}

	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
