package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Chunk is a persisted vector-index entry: a span of a document's text and its
// embedding. Embedding is stored as a JSON array of float32 for portability
// across SQLite and MySQL.
type Chunk struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DocumentID  uint      `gorm:"not null;index:idx_chunk_doc_pos,priority:1" json:"document_id"`
	ChunkIndex  int       `gorm:"not null;index:idx_chunk_doc_pos,priority:2" json:"chunk_index"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Embedding   string    `gorm:"type:text" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// EmbeddingVector decodes the stored embedding. An empty column yields nil.
func (c *Chunk) EmbeddingVector() ([]float32, error) {
	if c.Embedding == "" {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(c.Embedding), &v); err != nil {
		return nil, fmt.Errorf("decode embedding of chunk %d: %w", c.ID, err)
	}
	return v, nil
}

func (c *Chunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
