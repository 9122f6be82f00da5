package pdfextract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractFile extracts the text of every page of the PDF at path, one page
// per line block.
func ExtractFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat pdf failed: %w", err)
	}
	if info.Size() == 0 {
		return "", nil
	}
	return extract(f, info.Size())
}

func extract(ra io.ReaderAt, size int64) (text string, err error) {
	// the parser panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf failed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(ra, size)
	if err != nil {
		return "", fmt.Errorf("parse pdf failed: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d failed: %w", i, err)
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
