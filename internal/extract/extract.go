// Package extract turns uploaded files into plain text for use as prompt
// context.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
)

// supportedExtensions lists the accepted upload types.
var supportedExtensions = map[string]bool{
	".py":  true,
	".txt": true,
	".md":  true,
	".csv": true,
	".pdf": true,
}

// Extractor validates and extracts text from uploaded files.
type Extractor struct {
	maxBytes int64
}

// New creates an extractor with the given size ceiling in MiB.
func New(maxSizeMB int) *Extractor {
	return &Extractor{maxBytes: int64(maxSizeMB) * 1024 * 1024}
}

// MaxBytes returns the upload size ceiling.
func (e *Extractor) MaxBytes() int64 {
	return e.maxBytes
}

// Process validates fileName and data and returns the extracted text.
// Validation happens before any content is read: oversized files and
// unsupported extensions are rejected up front.
func (e *Extractor) Process(fileName string, data []byte) (string, error) {
	if int64(len(data)) > e.maxBytes {
		return "", fmt.Errorf("file %q is too large (%.2f MB); the maximum is %d MB",
			fileName, float64(len(data))/1024/1024, e.maxBytes/1024/1024)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !supportedExtensions[ext] {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	if ext == ".pdf" {
		return extractPDF(fileName, data)
	}
	return decodeText(data), nil
}

// decodeText interprets bytes as UTF-8, falling back to Latin-1 for
// legacy encodings. Latin-1 decoding cannot fail: every byte maps to a
// code point.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(decoded)
}

// extractPDF concatenates the text of every page.
func extractPDF(fileName string, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("could not read PDF %q: the file may be corrupt", fileName)
	}
	if reader.NumPage() == 0 {
		return "", fmt.Errorf("PDF %q is empty or corrupt", fileName)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", fmt.Errorf("no text could be extracted from %q (it may be a scanned image)", fileName)
	}
	return content, nil
}
