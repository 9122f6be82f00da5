package ingest

import "fmt"

// Chunk is one window of a document's text. Start and End are rune offsets
// into the source text, End exclusive.
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

// SplitText cuts text into windows of size runes, each starting size-overlap
// runes after the previous one. The last window is the first one that reaches
// the end of the text, so no chunk is fully contained in its predecessor.
func SplitText(text string, size, overlap int) ([]Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
	chunks := make([]Chunk, 0, len(runes)/step+1)
	for start := 0; ; start += step {
		end := min(start+size, len(runes))
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
