package document

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// Payload keys as stored next to the vector in the index.
const (
	FieldText            = "text"
	FieldSource          = "source"
	FieldFilename        = "filename"
	FieldStorageLocation = "storage_location"
)

// Payload is the metadata stored alongside a document vector.
type Payload struct {
	Text            string
	Source          string
	Filename        string
	StorageLocation string
}

// Map returns the payload in its stored key/value form. Empty optional fields are omitted.
func (p Payload) Map() map[string]any {
	m := map[string]any{
		FieldText:   p.Text,
		FieldSource: p.Source,
	}
	if p.Filename != "" {
		m[FieldFilename] = p.Filename
	}
	if p.StorageLocation != "" {
		m[FieldStorageLocation] = p.StorageLocation
	}
	return m
}

// Record is the unit stored in the vector index (immutable value object).
type Record struct {
	id      string
	vector  []float32
	payload Payload
}

// New validates and creates a Record.
// The vector must have exactly dim components; a mismatch is a configuration error, never coerced.
func New(id string, vector []float32, payload Payload, dim int) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record ID is required")
	}
	if len(vector) != dim {
		return Record{}, fmt.Errorf("record %s: got %d components, want %d: %w",
			id, len(vector), dim, domain.ErrDimensionMismatch)
	}
	if strings.TrimSpace(payload.Text) == "" {
		return Record{}, fmt.Errorf("record %s: %w", id, domain.ErrEmptyDocument)
	}
	if payload.Source == "" {
		payload.Source = domain.DefaultSource
	}

	v := make([]float32, len(vector))
	copy(v, vector)

	return Record{id: id, vector: v, payload: payload}, nil
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// Vector returns the embedding vector.
func (r *Record) Vector() []float32 { return r.vector }

// Payload returns the stored metadata.
func (r *Record) Payload() Payload { return r.payload }

// Text returns the extracted document text.
func (r *Record) Text() string { return r.payload.Text }
