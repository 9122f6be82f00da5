package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"research-assistant/internal/model"
	"research-assistant/internal/platform/database"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func createDocument(t *testing.T, repo *DocumentRepository, sessionID string, status model.DocumentStatus) *model.Document {
	t.Helper()
	doc := &model.Document{
		SessionID:        sessionID,
		OriginalFilename: "notes.txt",
		StoredFilename:   "stored_notes.txt",
		FilePath:         "/tmp/stored_notes.txt",
		FileType:         "txt",
		Status:           status,
		UploadedAt:       time.Now(),
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	return doc
}

func TestDocumentRepository_GetMissing(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))

	if _, err := repo.GetByIDAndSessionID(context.Background(), 42, "sess"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestDocumentRepository_SessionScoping(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))
	doc := createDocument(t, repo, "sess-a", model.DocumentPending)

	if _, err := repo.GetByIDAndSessionID(context.Background(), doc.ID, "sess-b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other session to miss, got %v", err)
	}
	got, err := repo.GetByIDAndSessionID(context.Background(), doc.ID, "sess-a")
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if got.OriginalFilename != "notes.txt" {
		t.Fatalf("unexpected filename %q", got.OriginalFilename)
	}
}

func TestDocumentRepository_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(openTestDB(t))
	doc := createDocument(t, repo, "sess", model.DocumentPending)

	if err := repo.TransitionStatus(ctx, doc.ID, model.DocumentPending, model.DocumentProcessing, nil); err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	// the same edge can only be taken once
	if err := repo.TransitionStatus(ctx, doc.ID, model.DocumentPending, model.DocumentProcessing, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on repeated edge, got %v", err)
	}
	err := repo.TransitionStatus(ctx, doc.ID, model.DocumentProcessing, model.DocumentReady, map[string]any{
		"chunk_count": 4,
		"summary":     "short summary",
	})
	if err != nil {
		t.Fatalf("processing -> ready: %v", err)
	}
	if err := repo.TransitionStatus(ctx, doc.ID, model.DocumentReady, model.DocumentFailed, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("ready must be terminal, got %v", err)
	}

	got, err := repo.GetByIDAndSessionID(ctx, doc.ID, "sess")
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if got.Status != model.DocumentReady || got.ChunkCount != 4 || got.Summary != "short summary" {
		t.Fatalf("unexpected document after transitions: %+v", got)
	}
}

func TestConversationRepository_RejectsNotReadyDocument(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	docs := NewDocumentRepository(db)
	convs := NewConversationRepository(db)
	pending := createDocument(t, docs, "sess", model.DocumentPending)

	err := convs.Create(ctx, &model.Conversation{
		SessionID:   "sess",
		Question:    "q",
		Answer:      "a",
		DocumentIDs: []uint{pending.ID},
	})
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for pending document, got %v", err)
	}

	err = convs.Create(ctx, &model.Conversation{
		SessionID:   "sess",
		Question:    "q",
		Answer:      "a",
		DocumentIDs: []uint{999},
	})
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for missing document, got %v", err)
	}

	list, err := convs.ListBySessionID(ctx, "sess")
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("rejected turns must not be stored, got %d", len(list))
	}
}

func TestConversationRepository_HistoryAndDelete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	docs := NewDocumentRepository(db)
	convs := NewConversationRepository(db)
	a := createDocument(t, docs, "sess", model.DocumentReady)
	b := createDocument(t, docs, "sess", model.DocumentReady)

	base := time.Now().Add(-time.Hour)
	turns := []struct {
		q   string
		ids []uint
	}{
		{"first", nil},
		{"second", []uint{a.ID}},
		{"third", []uint{a.ID, b.ID, a.ID}},
		{"fourth", []uint{b.ID}},
	}
	for i, tc := range turns {
		conv := &model.Conversation{
			SessionID:   "sess",
			Question:    tc.q,
			Answer:      "answer " + tc.q,
			DocumentIDs: tc.ids,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := convs.Create(ctx, conv); err != nil {
			t.Fatalf("create turn %q: %v", tc.q, err)
		}
	}

	all, err := convs.ListBySessionID(ctx, "sess")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].Question != "first" || all[3].Question != "fourth" {
		t.Fatalf("expected chronological history, got %+v", all)
	}
	if len(all[2].DocumentIDs) != 2 {
		t.Fatalf("expected duplicate ids to collapse, got %v", all[2].DocumentIDs)
	}

	recent, err := convs.ListRecentBySessionID(ctx, "sess", 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Question != "third" || recent[1].Question != "fourth" {
		t.Fatalf("unexpected recent window: %+v", recent)
	}

	if err := convs.DeleteByDocumentID(ctx, a.ID); err != nil {
		t.Fatalf("delete by document: %v", err)
	}
	left, err := convs.ListBySessionID(ctx, "sess")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(left) != 2 || left[0].Question != "first" || left[1].Question != "fourth" {
		t.Fatalf("expected turns referencing the document to be removed, got %+v", left)
	}

	n, err := convs.DeleteBySessionID(ctx, "sess")
	if err != nil {
		t.Fatalf("delete by session: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted turns, got %d", n)
	}
}

func TestChunkRepository_ReplaceKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewChunkRepository(openTestDB(t))

	first := []model.Chunk{{ChunkIndex: 1, Content: "b"}, {ChunkIndex: 0, Content: "a"}}
	if err := repo.ReplaceForDocument(ctx, 7, first); err != nil {
		t.Fatalf("replace: %v", err)
	}
	second := []model.Chunk{{ChunkIndex: 0, Content: "x"}}
	if err := repo.ReplaceForDocument(ctx, 7, second); err != nil {
		t.Fatalf("replace again: %v", err)
	}

	got, err := repo.ListByDocumentID(ctx, 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Content != "x" {
		t.Fatalf("expected replacement to drop old chunks, got %+v", got)
	}
}
