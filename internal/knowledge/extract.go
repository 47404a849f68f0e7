package knowledge

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const (
	// maxPDFPages limits how many pages are read from a single document.
	maxPDFPages = 100

	// maxExtractedTextSize caps extracted text at 1MB.
	maxExtractedTextSize = 1024 * 1024
)

// textExtensions are the file types read verbatim.
var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".json": true,
	".csv":  true,
}

// Supported reports whether path names a file type the ingester can read.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || textExtensions[ext]
}

// ExtractText reads a training file and returns its plain-text content.
// Plain text files are read directly; PDFs go through text extraction.
func ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return extractPDFText(data)
	case textExtensions[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		if len(data) > maxExtractedTextSize {
			data = data[:maxExtractedTextSize]
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file type %q", ext)
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	total := reader.NumPage()
	if total == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}
	if total > maxPDFPages {
		return "", fmt.Errorf("PDF has %d pages, max allowed is %d", total, maxPDFPages)
	}

	var b strings.Builder
	for n := 1; n <= total; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages rather than failing the whole file.
			continue
		}
		cleaned := cleanText(text)
		if cleaned == "" {
			continue
		}
		b.WriteString(cleaned)
		b.WriteString("\n")
		if b.Len() > maxExtractedTextSize {
			break
		}
	}

	out := b.String()
	if len(out) > maxExtractedTextSize {
		out = out[:maxExtractedTextSize]
	}
	return out, nil
}

// cleanText strips null bytes and collapses runs of whitespace, keeping
// newlines.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")

	var b strings.Builder
	lastWasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if r == '\n' {
				b.WriteRune('\n')
				lastWasSpace = false
			} else if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			b.WriteRune(r)
			lastWasSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}
