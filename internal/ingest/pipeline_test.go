package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type countingEmbedder struct {
	batches [][]string
	failOn  int
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	_ = ctx
	e.batches = append(e.batches, texts)
	if e.failOn > 0 && len(e.batches) == e.failOn {
		return nil, errors.New("upstream down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

func TestPipeline_BatchesEmbeddings(t *testing.T) {
	emb := &countingEmbedder{}
	p := NewPipeline(emb, 100, 20, 3)

	text := strings.Repeat("a", 80*6+20) // 6 chunks
	chunks, err := p.Process(context.Background(), text)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(chunks) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(chunks))
	}
	if len(emb.batches) != 2 || len(emb.batches[0]) != 3 || len(emb.batches[1]) != 3 {
		t.Fatalf("unexpected batching: %d batches", len(emb.batches))
	}
	for i, c := range chunks {
		if c.Index != i || len(c.Embedding) != 2 {
			t.Fatalf("chunk %d malformed: %+v", i, c.Chunk)
		}
	}
}

func TestPipeline_EmbeddingFailure(t *testing.T) {
	emb := &countingEmbedder{failOn: 2}
	p := NewPipeline(emb, 10, 0, 1)

	_, err := p.Process(context.Background(), strings.Repeat("b", 35))
	if !errors.Is(err, ErrEmbeddingService) {
		t.Fatalf("expected ErrEmbeddingService, got %v", err)
	}
}

func TestLoadText(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(txt, []byte("\ufeffhello world"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte("  \n\t "), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadText(txt, "txt")
	if err != nil || got != "hello world" {
		t.Fatalf("LoadText = %q, %v", got, err)
	}
	if _, err := LoadText(blank, "txt"); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if _, err := LoadText(txt, "docx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFileType(t *testing.T) {
	for name, want := range map[string]string{"a.PDF": "pdf", "notes.txt": "txt"} {
		got, err := FileType(name)
		if err != nil || got != want {
			t.Fatalf("FileType(%q) = %q, %v", name, got, err)
		}
	}
	for _, name := range []string{"a.docx", "noext", "image.png"} {
		if _, err := FileType(name); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("FileType(%q) expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
}
