// Package pdfx extracts plain text from uploaded research PDFs.
package pdfx

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	rpdf "rsc.io/pdf"
)

// ExtractText returns the text content of a PDF, pages joined by blank
// lines. The file is validated and page-counted with pdfcpu before text
// extraction; a PDF with no extractable text (scanned images) yields an
// error rather than an empty string.
func ExtractText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pageCount, err := api.PageCount(f, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	if pageCount == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat PDF: %w", err)
	}

	pages, err := extractPages(f, info.Size(), pageCount)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if text == "" {
		return "", fmt.Errorf("no extractable text in PDF (%d pages)", pageCount)
	}
	return text, nil
}

// extractPages reads per-page text runs. The underlying reader panics on
// some malformed content streams, so extraction recovers per document.
func extractPages(f *os.File, size int64, pageCount int) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text extraction failed: %v", r)
		}
	}()

	doc, err := rpdf.NewReader(f, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	n := doc.NumPage()
	if n > pageCount {
		n = pageCount
	}

	for i := 1; i <= n; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, pageText(page))
	}
	return pages, nil
}

// pageText joins a page's text runs, inserting newlines when the vertical
// position changes and spaces between runs on the same line.
func pageText(page rpdf.Page) string {
	content := page.Content()

	var b strings.Builder
	var lastY float64
	for i, txt := range content.Text {
		if i > 0 {
			if txt.Y != lastY {
				b.WriteString("\n")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(txt.S)
		lastY = txt.Y
	}
	return strings.TrimSpace(b.String())
}
