package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"research-assistant/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create stores a turn and its document links. Every referenced document must
// exist, belong to the same session and be ready.
func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	ids := uniqueIDs(conv.DocumentIDs)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(ids) > 0 {
			var n int64
			if err := tx.Model(&model.Document{}).
				Where("id IN ? AND session_id = ? AND status = ?", ids, conv.SessionID, model.DocumentReady).
				Count(&n).Error; err != nil {
				return fmt.Errorf("check referenced documents failed: %w", err)
			}
			if int(n) != len(ids) {
				return fmt.Errorf("turn references %d documents, %d ready: %w", len(ids), n, ErrConstraintViolation)
			}
		}
		if err := tx.Create(conv).Error; err != nil {
			return fmt.Errorf("create conversation failed: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		links := make([]model.ConversationDocument, len(ids))
		for i, id := range ids {
			links[i] = model.ConversationDocument{ConversationID: conv.ID, DocumentID: id}
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("link conversation documents failed: %w", err)
		}
		conv.DocumentIDs = ids
		return nil
	})
}

// ListBySessionID returns the session's turns oldest first.
func (r *ConversationRepository) ListBySessionID(ctx context.Context, sessionID string) ([]model.Conversation, error) {
	var list []model.Conversation
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	if err := r.attachDocumentIDs(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListRecentBySessionID returns at most limit newest turns, oldest first.
func (r *ConversationRepository) ListRecentBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Conversation, error) {
	if limit <= 0 {
		return nil, nil
	}
	var desc []model.Conversation
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&desc).Error; err != nil {
		return nil, fmt.Errorf("list recent conversations failed: %w", err)
	}
	list := make([]model.Conversation, 0, len(desc))
	for i := len(desc) - 1; i >= 0; i-- {
		list = append(list, desc[i])
	}
	if err := r.attachDocumentIDs(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ConversationRepository) DeleteBySessionID(ctx context.Context, sessionID string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&model.Conversation{}).Select("id").Where("session_id = ?", sessionID)
		if err := tx.Where("conversation_id IN (?)", sub).Delete(&model.ConversationDocument{}).Error; err != nil {
			return fmt.Errorf("delete conversation links failed: %w", err)
		}
		res := tx.Where("session_id = ?", sessionID).Delete(&model.Conversation{})
		if res.Error != nil {
			return fmt.Errorf("delete conversations failed: %w", res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// DeleteByDocumentID removes every turn grounded on the document, so no turn
// outlives a document it references.
func (r *ConversationRepository) DeleteByDocumentID(ctx context.Context, documentID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var convIDs []uint
		if err := tx.Model(&model.ConversationDocument{}).
			Where("document_id = ?", documentID).
			Pluck("conversation_id", &convIDs).Error; err != nil {
			return fmt.Errorf("list conversations by document failed: %w", err)
		}
		if len(convIDs) == 0 {
			return nil
		}
		if err := tx.Where("conversation_id IN ?", convIDs).Delete(&model.ConversationDocument{}).Error; err != nil {
			return fmt.Errorf("delete conversation links failed: %w", err)
		}
		if err := tx.Where("id IN ?", convIDs).Delete(&model.Conversation{}).Error; err != nil {
			return fmt.Errorf("delete conversations by document failed: %w", err)
		}
		return nil
	})
}

func (r *ConversationRepository) attachDocumentIDs(ctx context.Context, list []model.Conversation) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	var links []model.ConversationDocument
	if err := r.db.WithContext(ctx).
		Where("conversation_id IN ?", ids).
		Order("document_id ASC").
		Find(&links).Error; err != nil {
		return fmt.Errorf("list conversation links failed: %w", err)
	}
	byConv := make(map[uint][]uint, len(list))
	for _, l := range links {
		byConv[l.ConversationID] = append(byConv[l.ConversationID], l.DocumentID)
	}
	for i := range list {
		list[i].DocumentIDs = byConv[list[i].ID]
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
