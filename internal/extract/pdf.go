package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts text page by page so chunks can carry page numbers. When
// per-page extraction yields nothing usable it falls back to whole-document
// extraction, which handles some PDFs whose page content streams the
// per-page walker cannot decode.
func PDF(path string) ([]Section, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}
	defer f.Close()

	var sections []Section
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sections = append(sections, Section{Text: text, Page: i})
	}
	if len(sections) > 0 {
		return sections, nil
	}

	return pdfWholeText(reader)
}

func pdfWholeText(reader *pdf.Reader) ([]Section, error) {
	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("pdf fallback extraction failed: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("read pdf fallback text failed: %w", err)
	}
	if strings.TrimSpace(string(out)) == "" {
		return nil, nil
	}
	return []Section{{Text: string(out), Page: 1}}, nil
}
