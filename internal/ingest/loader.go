package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"research-assistant/internal/pkg/pdfextract"
)

var supportedTypes = map[string]struct{}{
	"pdf": {},
	"txt": {},
}

// FileType returns the lower-cased extension of filename without the dot, or
// ErrUnsupportedFormat.
func FileType(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := supportedTypes[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	return ext, nil
}

// LoadText extracts the plain text of a stored upload.
func LoadText(path, fileType string) (string, error) {
	var (
		text string
		err  error
	)
	switch fileType {
	case "pdf":
		text, err = pdfextract.ExtractFile(path)
	case "txt":
		text, err = readTextFile(path)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileType)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func readTextFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file failed: %w", err)
	}
	raw = []byte(strings.TrimPrefix(string(raw), "\ufeff"))
	if !utf8.Valid(raw) {
		// keep what decodes; invalid bytes become U+FFFD
		return strings.ToValidUTF8(string(raw), "\uFFFD"), nil
	}
	return string(raw), nil
}
