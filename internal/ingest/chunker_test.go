package ingest

import (
	"strings"
	"testing"
)

func TestSplitText_DefaultWindow(t *testing.T) {
	text := strings.Repeat("abcdefghij", 300) // 3000 runes

	chunks, err := SplitText(text, 1000, 200)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	wantStarts := []int{0, 800, 1600, 2400}
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
		if c.Start != wantStarts[i] {
			t.Fatalf("chunk %d starts at %d, want %d", i, c.Start, wantStarts[i])
		}
		if i > 0 {
			prev := chunks[i-1]
			overlap := []rune(prev.Text)[len([]rune(prev.Text))-200:]
			if !strings.HasPrefix(c.Text, string(overlap)) {
				t.Fatalf("chunk %d does not overlap its predecessor by 200 runes", i)
			}
		}
	}
	if last := chunks[3]; last.End != 3000 || len([]rune(last.Text)) != 600 {
		t.Fatalf("unexpected last chunk span [%d,%d) len %d", last.Start, last.End, len([]rune(last.Text)))
	}
}

func TestSplitText_Edges(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    int
		wantErr bool
	}{
		{name: "empty", text: "", size: 10, overlap: 2, want: 0},
		{name: "shorter than window", text: "hello", size: 10, overlap: 2, want: 1},
		{name: "exact window", text: strings.Repeat("x", 10), size: 10, overlap: 2, want: 1},
		{name: "one past window", text: strings.Repeat("x", 11), size: 10, overlap: 2, want: 2},
		{name: "no overlap", text: strings.Repeat("x", 30), size: 10, overlap: 0, want: 3},
		{name: "multibyte runes", text: strings.Repeat("é", 15), size: 10, overlap: 5, want: 2},
		{name: "overlap equals size", text: "abc", size: 3, overlap: 3, wantErr: true},
		{name: "zero size", text: "abc", size: 0, overlap: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := SplitText(tt.text, tt.size, tt.overlap)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("split: %v", err)
			}
			if len(chunks) != tt.want {
				t.Fatalf("expected %d chunks, got %d", tt.want, len(chunks))
			}
		})
	}
}
