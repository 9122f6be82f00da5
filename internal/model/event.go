package model

import "time"

type DocumentEventType string

const (
	EventDocumentReady   DocumentEventType = "document.ready"
	EventDocumentFailed  DocumentEventType = "document.failed"
	EventDocumentDeleted DocumentEventType = "document.deleted"
	EventSessionCleared  DocumentEventType = "session.cleared"
)

// DocumentEvent is published when a document reaches a terminal state, is
// deleted, or its session history is cleared.
type DocumentEvent struct {
	Type       DocumentEventType `json:"type"`
	SessionID  string            `json:"session_id"`
	DocumentID uint              `json:"document_id,omitempty"`
	Status     DocumentStatus    `json:"status,omitempty"`
	ChunkCount int               `json:"chunk_count,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// EventRecord is the persisted audit row of a consumed DocumentEvent.
type EventRecord struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Type       DocumentEventType `gorm:"size:32;not null;index" json:"type"`
	SessionID  string            `gorm:"size:64;not null;index" json:"session_id"`
	DocumentID uint              `gorm:"index" json:"document_id,omitempty"`
	Status     DocumentStatus    `gorm:"size:16" json:"status,omitempty"`
	ChunkCount int               `json:"chunk_count,omitempty"`
	Reason     string            `gorm:"type:text" json:"reason,omitempty"`
	RequestID  string            `gorm:"size:64" json:"request_id,omitempty"`
	OccurredAt time.Time         `gorm:"index" json:"occurred_at"`
}

func (EventRecord) TableName() string { return "document_events" }

func NewEventRecord(e DocumentEvent) EventRecord {
	return EventRecord{
		Type:       e.Type,
		SessionID:  e.SessionID,
		DocumentID: e.DocumentID,
		Status:     e.Status,
		ChunkCount: e.ChunkCount,
		Reason:     e.Reason,
		RequestID:  e.RequestID,
		OccurredAt: e.OccurredAt,
	}
}
