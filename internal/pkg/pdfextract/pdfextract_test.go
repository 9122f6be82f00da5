package pdfextract

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractFile_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	text, err := ExtractFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Fatalf("expected no text, got %q", text)
	}
}

func TestExtractFile_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("this is plain text pretending to be a pdf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ExtractFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestExtractFile_Missing(t *testing.T) {
	if _, err := ExtractFile(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatalf("expected open error")
	}
}
