package model

import "time"

// Conversation is one question/answer turn of a session.
type Conversation struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"size:64;not null;index" json:"session_id"`
	Question    string    `gorm:"type:text;not null" json:"question"`
	Answer      string    `gorm:"type:text;not null" json:"answer"`
	ContextUsed string    `gorm:"type:text" json:"context_used,omitempty"`
	DocumentIDs []uint    `gorm:"-" json:"document_ids"`
	CreatedAt   time.Time `gorm:"index" json:"timestamp"`
}

// ConversationDocument links a turn to every document it was grounded on.
type ConversationDocument struct {
	ConversationID uint `gorm:"primaryKey;autoIncrement:false"`
	DocumentID     uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (ConversationDocument) TableName() string { return "conversation_documents" }
