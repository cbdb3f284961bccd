package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kailas-cloud/polysearch/internal/domain"
)

const (
	docxBodyPart  = "word/document.xml"
	wordprocessNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	// mc:AlternateContent repeats text boxes under mc:Choice and mc:Fallback.
	markupCompatNS = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

// extractDocx joins the non-blank paragraphs of the main document part with "\n".
func extractDocx(filename string, raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", domain.NewInputError(domain.ErrDecode, filename, "not a docx container: "+err.Error())
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return "", domain.NewInputError(domain.ErrDecode, filename, "missing "+docxBodyPart)
	}

	rc, err := body.Open()
	if err != nil {
		return "", domain.NewInputError(domain.ErrDecode, filename, err.Error())
	}
	defer func() { _ = rc.Close() }()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return "", domain.NewInputError(domain.ErrDecode, filename, err.Error())
	}

	kept := paragraphs[:0]
	for _, p := range paragraphs {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n"), nil
}

// readParagraphs streams WordprocessingML and returns every <w:p> text in document order.
// Paragraphs nested in text boxes are emitted on their own, before the enclosing paragraph.
func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		out    []string
		stack  []*strings.Builder
		inText bool
	)

	current := func() *strings.Builder {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == markupCompatNS && t.Name.Local == "Fallback" {
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("parse %s: %w", docxBodyPart, err)
				}
				continue
			}
			if t.Name.Space != wordprocessNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				stack = append(stack, &strings.Builder{})
			case "t":
				inText = true
			case "tab":
				if b := current(); b != nil {
					b.WriteByte('\t')
				}
			case "br", "cr":
				if b := current(); b != nil {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordprocessNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if b := current(); b != nil {
					out = append(out, b.String())
					stack = stack[:len(stack)-1]
				}
			}
		case xml.CharData:
			if !inText {
				continue
			}
			if b := current(); b != nil {
				b.Write(t)
			}
		}
	}

	return out, nil
}
