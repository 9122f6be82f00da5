package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"research-assistant/internal/model"
	"research-assistant/internal/pkg/logger"
	"research-assistant/internal/platform/database"
	"research-assistant/internal/repository"
)

func TestEventAuditWorker_HandleStoresEvent(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	repo := repository.NewEventRepository(db)
	w := NewEventAuditWorker(nil, repo, "documents.events", logger.Discard())

	body, err := json.Marshal(model.DocumentEvent{
		Type:       model.EventDocumentReady,
		SessionID:  "s1",
		DocumentID: 7,
		Status:     model.DocumentReady,
		ChunkCount: 4,
		RequestID:  "req",
		OccurredAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := w.handle(context.Background(), body); err != nil {
		t.Fatalf("handle: %v", err)
	}

	records, err := repo.ListByDocumentID(context.Background(), 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].Type != model.EventDocumentReady || records[0].ChunkCount != 4 {
		t.Fatalf("unexpected record %+v", records[0])
	}
}

func TestEventAuditWorker_HandleRejectsBadPayload(t *testing.T) {
	w := NewEventAuditWorker(nil, nil, "q", logger.Discard())
	if err := w.handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
	if err := w.handle(context.Background(), []byte(`{"type":"document.ready"}`)); err == nil {
		t.Fatalf("expected error for event without session")
	}
}
