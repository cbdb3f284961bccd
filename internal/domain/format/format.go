// Package format enumerates the document container formats accepted for ingestion.
package format

import (
	"strings"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// Format is a supported document container, identified by its filename suffix.
type Format string

const (
	// Text is UTF-8 plain text.
	Text Format = ".txt"
	// Docx is an Office Open XML word-processing document.
	Docx Format = ".docx"
	// PDF is a Portable Document Format file.
	PDF Format = ".pdf"
)

// All lists every supported format in dispatch order.
var All = []Format{Text, Docx, PDF}

// Detect returns the format for filename. Matching is a case-sensitive suffix check.
func Detect(filename string) (Format, error) {
	for _, f := range All {
		if strings.HasSuffix(filename, string(f)) && len(filename) > len(f) {
			return f, nil
		}
	}
	return "", domain.NewInputError(domain.ErrUnsupportedFormat, filename, "supported suffixes are .txt, .docx, .pdf")
}

// Label returns the metrics label for f.
func (f Format) Label() string {
	if f == "" {
		return "unknown"
	}
	return strings.TrimPrefix(string(f), ".")
}
