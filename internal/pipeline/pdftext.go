package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// ExtractionError marks a PDF that could not be read. It is terminal for the
// file: unlike fetch failures, retrying will not help.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("pdf extraction: %v", e.Err) }

func (e *ExtractionError) Unwrap() error { return e.Err }

// ExtractPDFText converts PDF bytes to plain text, page by page. Pages that
// fail individually are skipped; the whole document fails only when the
// reader cannot open it or no page yields text.
func ExtractPDFText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", &ExtractionError{Err: err}
	}

	var b strings.Builder
	pages := 0
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
		pages++
	}

	if pages == 0 {
		return "", &ExtractionError{Err: fmt.Errorf("no readable pages")}
	}
	return b.String(), nil
}
