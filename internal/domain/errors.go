package domain

import (
	"errors"
	"fmt"
)

// Input errors: the caller sent something the pipeline cannot process.
var (
	// ErrUnsupportedFormat signals a filename suffix outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrDecode signals bytes that do not decode for their declared format.
	ErrDecode = errors.New("decode error")
	// ErrEmptyDocument signals that extraction produced no text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
	// ErrInvalidQuery signals a missing or blank search query.
	ErrInvalidQuery = errors.New("invalid query")
)

// Collaborator errors: a downstream service failed while handling a valid request.
var (
	// ErrEmbeddingFailure signals an embedding provider failure.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrTranslationFailure signals a translation provider failure.
	ErrTranslationFailure = errors.New("translation failure")
	// ErrIndexFailure signals a vector index failure during upsert or search.
	ErrIndexFailure = errors.New("index failure")
	// ErrStorageFailure signals that raw upload bytes could not be persisted.
	ErrStorageFailure = errors.New("storage failure")
)

// Startup errors: the deployment is misconfigured and the service must not start.
var (
	// ErrVersionMismatch signals a backend or client library version other than the expected one.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrBackendUnreachable signals that the index backend did not answer.
	ErrBackendUnreachable = errors.New("index backend unreachable")
	// ErrDimensionMismatch signals a vector whose length differs from the index dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// InputError attaches the offending filename and a human-readable reason to an input error.
type InputError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *InputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", e.Filename, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s: %s", e.Filename, e.Err.Error(), e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

// NewInputError creates an InputError wrapping sentinel.
func NewInputError(sentinel error, filename, reason string) error {
	return &InputError{Filename: filename, Reason: reason, Err: sentinel}
}

// IsInputError reports whether err is caused by bad caller input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrInvalidQuery)
}
