// Package extract converts uploaded document containers into plain text.
package extract

import (
	"strings"

	"github.com/kailas-cloud/polysearch/internal/domain"
	"github.com/kailas-cloud/polysearch/internal/domain/format"
)

// Func extracts text from the raw bytes of one container format.
// filename is only used to annotate errors.
type Func func(filename string, raw []byte) (string, error)

// Extractor dispatches on the filename suffix to a per-format strategy.
type Extractor struct {
	strategies map[format.Format]Func
}

// New creates an Extractor with the built-in strategies for every supported format.
func New() *Extractor {
	return &Extractor{
		strategies: map[format.Format]Func{
			format.Text: extractText,
			format.Docx: extractDocx,
			format.PDF:  newPDFExtractor(openPDF),
		},
	}
}

// WithStrategy replaces the strategy for f.
func (e *Extractor) WithStrategy(f format.Format, fn Func) *Extractor {
	e.strategies[f] = fn
	return e
}

// Extract returns the plain text of raw. The format is chosen from filename before any bytes are read.
// The result is never empty after trimming whitespace: such documents fail with domain.ErrEmptyDocument.
func (e *Extractor) Extract(filename string, raw []byte) (string, error) {
	f, err := format.Detect(filename)
	if err != nil {
		return "", err //nolint:wrapcheck // already an InputError carrying the filename
	}

	fn, ok := e.strategies[f]
	if !ok {
		return "", domain.NewInputError(domain.ErrUnsupportedFormat, filename, "no extractor registered")
	}

	text, err := fn(filename, raw)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", domain.NewInputError(domain.ErrEmptyDocument, filename, "")
	}
	return text, nil
}
