// Package extract pulls plain text out of uploaded files, one extractor
// per supported format.
package extract

import (
	"fmt"
	"strings"
)

// Section is one extracted unit of a file: a PDF page, a CSV row, or the
// whole body for formats without internal structure. Page starts at 1.
type Section struct {
	Text string
	Page int
}

// supportedExts maps known extensions to their extractors.
var supportedExts = map[string]func(path string) ([]Section, error){
	".pdf":  PDF,
	".docx": DOCX,
	".txt":  Text,
	".csv":  CSV,
}

// Supported reports whether the extension (with leading dot, any case) has
// an extractor.
func Supported(ext string) bool {
	_, ok := supportedExts[strings.ToLower(ext)]
	return ok
}

// File dispatches to the extractor for the extension.
func File(path, ext string) ([]Section, error) {
	fn, ok := supportedExts[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("no extractor for %q", ext)
	}
	return fn(path)
}
