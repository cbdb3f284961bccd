package polysearch

import "github.com/kailas-cloud/polysearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnsupportedFormat  = domain.ErrUnsupportedFormat
	ErrDecode             = domain.ErrDecode
	ErrEmptyDocument      = domain.ErrEmptyDocument
	ErrInvalidQuery       = domain.ErrInvalidQuery
	ErrEmbeddingFailure   = domain.ErrEmbeddingFailure
	ErrTranslationFailure = domain.ErrTranslationFailure
	ErrIndexFailure       = domain.ErrIndexFailure
	ErrStorageFailure     = domain.ErrStorageFailure
	ErrVersionMismatch    = domain.ErrVersionMismatch
	ErrBackendUnreachable = domain.ErrBackendUnreachable
	ErrDimensionMismatch  = domain.ErrDimensionMismatch
)
