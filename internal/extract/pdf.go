package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

// pageSource is a parsed PDF: pages are numbered from 1.
type pageSource interface {
	NumPage() int
	PageText(n int) (string, error)
}

type openFunc func(raw []byte) (pageSource, error)

// newPDFExtractor joins page texts with "\n". Pages that yield no text contribute an empty segment.
func newPDFExtractor(open openFunc) Func {
	return func(filename string, raw []byte) (text string, err error) {
		// The PDF parser panics on some malformed cross-reference tables.
		defer func() {
			if r := recover(); r != nil {
				text = ""
				err = domain.NewInputError(domain.ErrDecode, filename, fmt.Sprintf("malformed pdf: %v", r))
			}
		}()

		doc, err := open(raw)
		if err != nil {
			return "", domain.NewInputError(domain.ErrDecode, filename, err.Error())
		}

		n := doc.NumPage()
		pages := make([]string, n)
		for i := 1; i <= n; i++ {
			t, err := doc.PageText(i)
			if err != nil {
				continue
			}
			pages[i-1] = t
		}
		return strings.Join(pages, "\n"), nil
	}
}

type ledongthucDoc struct {
	r *pdf.Reader
}

func openPDF(raw []byte) (pageSource, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &ledongthucDoc{r: r}, nil
}

func (d *ledongthucDoc) NumPage() int { return d.r.NumPage() }

func (d *ledongthucDoc) PageText(n int) (string, error) {
	p := d.r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	t, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	return t, nil
}
