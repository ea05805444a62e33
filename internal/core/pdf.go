// ABOUTME: Plain-text extraction from PDF files
// ABOUTME: Page texts are concatenated in page order
package core

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextSource extracts the text of one source file
type TextSource interface {
	Text(path string) (string, error)
}

// PDFSource reads PDFs with ledongthuc/pdf
type PDFSource struct{}

// Text returns the concatenated plain text of every page
func (PDFSource) Text(path string) (text string, err error) {
	// the parser panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%s page %d: %w", path, i, err)
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}
