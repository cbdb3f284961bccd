package chi

import (
	healthuc "github.com/kailas-cloud/polysearch/internal/usecase/health"
	queryuc "github.com/kailas-cloud/polysearch/internal/usecase/query"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodePayloadTooLarge    ErrorCode = "payload_too_large"
	ErrorCodeUnsupportedFormat  ErrorCode = "unsupported_format"
	ErrorCodeDecodeError        ErrorCode = "decode_error"
	ErrorCodeEmptyDocument      ErrorCode = "empty_document"
	ErrorCodeInvalidQuery       ErrorCode = "invalid_query"
	ErrorCodeEmbeddingFailure   ErrorCode = "embedding_failure"
	ErrorCodeTranslationFailure ErrorCode = "translation_failure"
	ErrorCodeIndexFailure       ErrorCode = "index_failure"
	ErrorCodeStorageFailure     ErrorCode = "storage_failure"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Status          string `json:"status"`
	ID              string `json:"id"`
	Filename        string `json:"filename"`
	Text            string `json:"text"`
	StorageLocation string `json:"storageLocation"`
}

// SearchHit is one ranked result.
type SearchHit struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	OriginalQuery   string      `json:"originalQuery"`
	TranslatedQuery string      `json:"translatedQuery"`
	SourceLanguage  string      `json:"sourceLanguage"`
	Results         []SearchHit `json:"results"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status                string            `json:"status"`
	Backend               string            `json:"backend,omitempty"`
	BackendVersion        string            `json:"backendVersion"`
	ClientVersion         string            `json:"clientVersion"`
	ExpectedVersion       string            `json:"expectedVersion"`
	ExpectedClientVersion string            `json:"expectedClientVersion"`
	Compatible            bool              `json:"compatible"`
	ModelName             string            `json:"modelName"`
	CollectionName        string            `json:"collectionName"`
	Checks                map[string]string `json:"checks"`
	Error                 string            `json:"error,omitempty"`
}

// NewSearchResponse converts a query result. Results is never null.
func NewSearchResponse(res queryuc.Result) SearchResponse {
	results := make([]SearchHit, len(res.Hits))
	for i := range res.Hits {
		h := &res.Hits[i]
		results[i] = SearchHit{ID: h.ID(), Score: h.Score(), Payload: h.Payload()}
	}
	return SearchResponse{
		OriginalQuery:   res.Original,
		TranslatedQuery: res.Translated,
		SourceLanguage:  res.SourceLanguage,
		Results:         results,
	}
}

// NewHealthResponse converts a health report.
func NewHealthResponse(report healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	c := report.Compatibility
	resp := HealthResponse{
		Status:                string(report.Status),
		Backend:               report.Backend,
		BackendVersion:        c.ServerVersion,
		ClientVersion:         c.ClientVersion,
		ExpectedVersion:       c.ExpectedServerVersion,
		ExpectedClientVersion: c.ExpectedClientVersion,
		Compatible:            c.Compatible,
		ModelName:             report.Model,
		CollectionName:        report.Collection,
		Checks:                checks,
	}
	if c.Err != nil {
		resp.Error = c.Err.Error()
	}
	return resp
}
