package extract

import (
	"bytes"
	"unicode/utf8"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func extractText(filename string, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", domain.NewInputError(domain.ErrDecode, filename, "file is not valid UTF-8")
	}
	return string(bytes.TrimPrefix(raw, utf8BOM)), nil
}
