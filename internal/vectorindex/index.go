// Package vectorindex stores chunk embeddings per document and answers
// top-k cosine similarity queries against them.
package vectorindex

import (
	"context"
	"errors"
	"sort"
)

// ErrIndexNotFound is returned when a document has never been embedded.
var ErrIndexNotFound = errors.New("vector index not found for document")

type Entry struct {
	ChunkIndex int
	Start      int
	End        int
	Text       string
	Embedding  []float32
}

type Hit struct {
	DocumentID uint
	ChunkIndex int
	Start      int
	End        int
	Text       string
	Score      float64
}

type Index interface {
	// Replace drops every entry of the document and stores entries instead.
	Replace(ctx context.Context, documentID uint, entries []Entry) error
	// Search returns at most k hits ordered by score, highest first. Ties keep
	// chunk order.
	Search(ctx context.Context, documentID uint, query []float32, k int) ([]Hit, error)
	// Chunks returns every entry of the document in chunk order.
	Chunks(ctx context.Context, documentID uint) ([]Entry, error)
	Delete(ctx context.Context, documentID uint) error
}

// SortHits orders hits by score descending, then document id, then chunk index.
func SortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})
}
