package ingest

import (
	"context"
	"fmt"
)

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddedChunk is a chunk with its vector.
type EmbeddedChunk struct {
	Chunk
	Embedding []float32
}

type Pipeline struct {
	embedder  Embedder
	size      int
	overlap   int
	batchSize int
}

func NewPipeline(embedder Embedder, size, overlap, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Pipeline{embedder: embedder, size: size, overlap: overlap, batchSize: batchSize}
}

// Process chunks text and embeds every chunk. Embedding requests go out in
// batches; the first failed batch aborts the whole document.
func (p *Pipeline) Process(ctx context.Context, text string) ([]EmbeddedChunk, error) {
	chunks, err := SplitText(text, p.size, p.overlap)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyDocument
	}

	out := make([]EmbeddedChunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %w", ErrEmbeddingService, start, end, err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingService, len(vectors), len(texts))
		}
		for i, c := range chunks[start:end] {
			out = append(out, EmbeddedChunk{Chunk: c, Embedding: vectors[i]})
		}
	}
	return out, nil
}
