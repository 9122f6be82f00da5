package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"research-assistant/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ReplaceForDocument swaps every chunk of a document in one transaction.
func (r *ChunkRepository) ReplaceForDocument(ctx context.Context, documentID uint, chunks []model.Chunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
			return fmt.Errorf("delete old chunks failed: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}
		for i := range chunks {
			chunks[i].DocumentID = documentID
		}
		if err := tx.CreateInBatches(&chunks, 100).Error; err != nil {
			return fmt.Errorf("create chunks batch failed: %w", err)
		}
		return nil
	})
}

// ListByDocumentID returns the chunks of a document in their original order.
func (r *ChunkRepository) ListByDocumentID(ctx context.Context, documentID uint) ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks by document failed: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) DeleteByDocumentID(ctx context.Context, documentID uint) error {
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by document failed: %w", err)
	}
	return nil
}
