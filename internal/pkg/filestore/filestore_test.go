package filestore

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestLocalStore_SaveAndRemove(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	path, n, err := store.Save("a.txt", strings.NewReader("hello"), 10)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes, got %d", n)
	}
	if err := store.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file to be gone, got %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Fatalf("second remove should be a no-op, got %v", err)
	}
}

func TestLocalStore_RejectsOversized(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, _, err := store.Save("big.txt", strings.NewReader(strings.Repeat("x", 11)), 10); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("oversized upload must not be kept, found %d files", len(entries))
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":            "report.pdf",
		"../../etc/passwd":      "passwd",
		`C:\docs\My Notes!.txt`: "My_Notes_.txt",
		"...":                   "upload",
		"résumé final.txt":      "r_sum_final.txt",
	}
	for in, want := range tests {
		if got := SafeName(in); got != want {
			t.Fatalf("SafeName(%q) = %q, want %q", in, got, want)
		}
	}
}
