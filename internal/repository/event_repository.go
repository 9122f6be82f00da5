package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"research-assistant/internal/model"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, rec *model.EventRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create event record failed: %w", err)
	}
	return nil
}

// ListByDocumentID returns the lifecycle of one document in occurrence order.
func (r *EventRepository) ListByDocumentID(ctx context.Context, documentID uint) ([]model.EventRecord, error) {
	var list []model.EventRecord
	if err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("occurred_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list event records failed: %w", err)
	}
	return list, nil
}
