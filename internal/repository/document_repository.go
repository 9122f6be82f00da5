package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"research-assistant/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// GetByIDAndSessionID treats documents of other sessions as missing.
func (r *DocumentRepository) GetByIDAndSessionID(ctx context.Context, id uint, sessionID string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ? AND session_id = ?", id, sessionID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListBySessionID(ctx context.Context, sessionID string) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("uploaded_at DESC, id DESC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// ListReadyBySessionID returns ready documents in upload order.
func (r *DocumentRepository) ListReadyBySessionID(ctx context.Context, sessionID string) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND status = ?", sessionID, model.DocumentReady).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list ready documents failed: %w", err)
	}
	return list, nil
}

// ListByIDsAndSessionID returns the matching documents ordered by id.
func (r *DocumentRepository) ListByIDsAndSessionID(ctx context.Context, ids []uint, sessionID string) ([]model.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Document
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND session_id = ?", ids, sessionID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents by ids failed: %w", err)
	}
	return list, nil
}

// TransitionStatus moves a document from one status to another. The update is
// conditional on the current status so each edge is taken at most once.
// Extra column updates (summary, chunk_count, failure_reason) ride along.
func (r *DocumentRepository) TransitionStatus(
	ctx context.Context,
	id uint,
	from, to model.DocumentStatus,
	fields map[string]any,
) error {
	if !model.CanTransition(from, to) {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update document status failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document %d not in status %s: %w", id, from, ErrInvalidTransition)
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Document{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete document failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return nil
}

// ReassignSession moves every document of one session to another.
func (r *DocumentRepository) ReassignSession(ctx context.Context, fromSessionID, toSessionID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("session_id = ?", fromSessionID).
		Update("session_id", toSessionID)
	if res.Error != nil {
		return 0, fmt.Errorf("reassign documents failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
