package app

import (
	"context"
	"io"
	"log/slog"

	"research-assistant/internal/ingest"
	"research-assistant/internal/model"
	"research-assistant/internal/rag"
)

type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByIDAndSessionID(ctx context.Context, id uint, sessionID string) (*model.Document, error)
	ListBySessionID(ctx context.Context, sessionID string) ([]model.Document, error)
	ListReadyBySessionID(ctx context.Context, sessionID string) ([]model.Document, error)
	ListByIDsAndSessionID(ctx context.Context, ids []uint, sessionID string) ([]model.Document, error)
	TransitionStatus(ctx context.Context, id uint, from, to model.DocumentStatus, fields map[string]any) error
	ReassignSession(ctx context.Context, fromSessionID, toSessionID string) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type ConversationStore interface {
	Create(ctx context.Context, conv *model.Conversation) error
	ListBySessionID(ctx context.Context, sessionID string) ([]model.Conversation, error)
	ListRecentBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Conversation, error)
	DeleteBySessionID(ctx context.Context, sessionID string) (int64, error)
	DeleteByDocumentID(ctx context.Context, documentID uint) error
}

type FileStore interface {
	Save(name string, r io.Reader, maxSize int64) (string, int64, error)
	Remove(path string) error
}

// Ingestor chunks and embeds extracted text.
type Ingestor interface {
	Process(ctx context.Context, text string) ([]ingest.EmbeddedChunk, error)
}

type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Answerer interface {
	Answer(ctx context.Context, in rag.AnswerInput) (string, error)
}

type Comparer interface {
	Compare(ctx context.Context, mode rag.CompareMode, docs []rag.CompareDocument) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.DocumentEvent) error
}

// EventLog reads the audit rows written by the event consumer.
type EventLog interface {
	ListByDocumentID(ctx context.Context, documentID uint) ([]model.EventRecord, error)
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string, limit int) ([]model.Conversation, bool, error)
	SetHistory(ctx context.Context, sessionID string, limit int, turns []model.Conversation) error
	Invalidate(ctx context.Context, sessionID string) error
}

// notifier publishes lifecycle events and drops history caches. Both are
// optional and failures only get logged.
type notifier struct {
	events EventPublisher
	cache  HistoryCache
	log    *slog.Logger
}

func (n notifier) publish(ctx context.Context, event model.DocumentEvent) {
	if n.events == nil {
		return
	}
	if err := n.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		n.log.Warn("publish document event failed", "type", event.Type, "document_id", event.DocumentID, "error", err)
	}
}

func (n notifier) invalidate(ctx context.Context, sessionID string) {
	if n.cache == nil {
		return
	}
	if err := n.cache.Invalidate(context.WithoutCancel(ctx), sessionID); err != nil {
		n.log.Warn("invalidate history cache failed", "session_id", sessionID, "error", err)
	}
}
