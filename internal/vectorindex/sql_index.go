package vectorindex

import (
	"context"
	"fmt"

	"research-assistant/internal/model"
)

// ChunkStore is the persistence the SQL index needs.
type ChunkStore interface {
	ReplaceForDocument(ctx context.Context, documentID uint, chunks []model.Chunk) error
	ListByDocumentID(ctx context.Context, documentID uint) ([]model.Chunk, error)
	DeleteByDocumentID(ctx context.Context, documentID uint) error
}

// SQLIndex keeps vectors as JSON in the relational chunks table and scores
// them in process. Good for a few thousand chunks per document.
type SQLIndex struct {
	store ChunkStore
}

func NewSQLIndex(store ChunkStore) *SQLIndex {
	return &SQLIndex{store: store}
}

func (x *SQLIndex) Replace(ctx context.Context, documentID uint, entries []Entry) error {
	rows := make([]model.Chunk, len(entries))
	for i, e := range entries {
		rows[i] = model.Chunk{
			DocumentID:  documentID,
			ChunkIndex:  e.ChunkIndex,
			StartOffset: e.Start,
			EndOffset:   e.End,
			Content:     e.Text,
		}
		rows[i].SetEmbedding(e.Embedding)
	}
	if err := x.store.ReplaceForDocument(ctx, documentID, rows); err != nil {
		return fmt.Errorf("replace index entries: %w", err)
	}
	return nil
}

func (x *SQLIndex) Search(ctx context.Context, documentID uint, query []float32, k int) ([]Hit, error) {
	rows, err := x.store.ListByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("document %d: %w", documentID, ErrIndexNotFound)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]Hit, 0, len(rows))
	for i := range rows {
		vec, err := rows[i].EmbeddingVector()
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", documentID, err)
		}
		score, err := Cosine(query, vec)
		if err != nil {
			return nil, fmt.Errorf("score chunk %d of document %d: %w", rows[i].ChunkIndex, documentID, err)
		}
		hits = append(hits, Hit{
			DocumentID: documentID,
			ChunkIndex: rows[i].ChunkIndex,
			Start:      rows[i].StartOffset,
			End:        rows[i].EndOffset,
			Text:       rows[i].Content,
			Score:      score,
		})
	}
	SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (x *SQLIndex) Chunks(ctx context.Context, documentID uint) ([]Entry, error) {
	rows, err := x.store.ListByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("document %d: %w", documentID, ErrIndexNotFound)
	}
	entries := make([]Entry, len(rows))
	for i := range rows {
		entries[i] = Entry{
			ChunkIndex: rows[i].ChunkIndex,
			Start:      rows[i].StartOffset,
			End:        rows[i].EndOffset,
			Text:       rows[i].Content,
		}
	}
	return entries, nil
}

func (x *SQLIndex) Delete(ctx context.Context, documentID uint) error {
	return x.store.DeleteByDocumentID(ctx, documentID)
}
