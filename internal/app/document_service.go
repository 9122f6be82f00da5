package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"research-assistant/internal/ingest"
	"research-assistant/internal/model"
	"research-assistant/internal/pkg/filestore"
	"research-assistant/internal/vectorindex"
)

type DocumentService struct {
	docs          DocumentStore
	convs         ConversationStore
	index         vectorindex.Index
	files         FileStore
	ingestor      Ingestor
	summarizer    Summarizer
	audit         EventLog
	notify        notifier
	log           *slog.Logger
	maxUploadSize int64
	now           func() time.Time
}

type DocumentDeps struct {
	Documents     DocumentStore
	Conversations ConversationStore
	Index         vectorindex.Index
	Files         FileStore
	Ingestor      Ingestor
	// Summarizer is optional.
	Summarizer Summarizer
	Events     EventPublisher
	// Audit is set when the event consumer runs.
	Audit  EventLog
	Cache  HistoryCache
	Logger *slog.Logger
}

func NewDocumentService(deps DocumentDeps, maxUploadSize int64) *DocumentService {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &DocumentService{
		docs:          deps.Documents,
		convs:         deps.Conversations,
		index:         deps.Index,
		files:         deps.Files,
		ingestor:      deps.Ingestor,
		summarizer:    deps.Summarizer,
		audit:         deps.Audit,
		notify:        notifier{events: deps.Events, cache: deps.Cache, log: log},
		log:           log,
		maxUploadSize: maxUploadSize,
		now:           time.Now,
	}
}

type UploadInput struct {
	Filename string
	Content  io.Reader
}

// Upload stores the file, records the document and processes it before
// returning. When processing fails the document is kept in the failed state
// and returned together with the cause.
func (s *DocumentService) Upload(ctx context.Context, scope Scope, in UploadInput) (*model.Document, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Filename)
	if name == "" || in.Content == nil {
		return nil, fmt.Errorf("%w: no file selected", ErrValidation)
	}
	fileType, err := ingest.FileType(name)
	if err != nil {
		return nil, err
	}

	stored := uuid.NewString() + "_" + filestore.SafeName(name)
	path, size, err := s.files.Save(stored, in.Content, s.maxUploadSize)
	if err != nil {
		if errors.Is(err, filestore.ErrTooLarge) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, err
	}

	doc := &model.Document{
		SessionID:        scope.SessionID,
		OriginalFilename: name,
		StoredFilename:   stored,
		FilePath:         path,
		FileType:         fileType,
		SizeBytes:        size,
		Status:           model.DocumentPending,
		UploadedAt:       s.now().UTC(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		_ = s.files.Remove(path)
		return nil, err
	}
	s.log.Info("document uploaded",
		"request_id", scope.RequestID, "document_id", doc.ID, "file_type", fileType, "size_bytes", size)

	if err := s.process(ctx, scope, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

func (s *DocumentService) process(ctx context.Context, scope Scope, doc *model.Document) error {
	if err := s.docs.TransitionStatus(ctx, doc.ID, model.DocumentPending, model.DocumentProcessing, nil); err != nil {
		return s.fail(ctx, scope, doc, err)
	}
	doc.Status = model.DocumentProcessing

	text, err := ingest.LoadText(doc.FilePath, doc.FileType)
	if err != nil {
		return s.fail(ctx, scope, doc, err)
	}
	chunks, err := s.ingestor.Process(ctx, text)
	if err != nil {
		return s.fail(ctx, scope, doc, err)
	}
	entries := make([]vectorindex.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = vectorindex.Entry{
			ChunkIndex: c.Index,
			Start:      c.Start,
			End:        c.End,
			Text:       c.Text,
			Embedding:  c.Embedding,
		}
	}
	if err := s.index.Replace(ctx, doc.ID, entries); err != nil {
		return s.fail(ctx, scope, doc, err)
	}

	summary := ""
	if s.summarizer != nil {
		summary, err = s.summarizer.Summarize(ctx, text)
		if err != nil {
			s.log.Warn("summary generation failed", "request_id", scope.RequestID, "document_id", doc.ID, "error", err)
			summary = ""
		}
	}

	err = s.docs.TransitionStatus(ctx, doc.ID, model.DocumentProcessing, model.DocumentReady, map[string]any{
		"chunk_count": len(entries),
		"summary":     summary,
	})
	if err != nil {
		// the record changed under us; do not leave an orphaned index behind
		_ = s.index.Delete(context.WithoutCancel(ctx), doc.ID)
		return err
	}
	doc.Status = model.DocumentReady
	doc.ChunkCount = len(entries)
	doc.Summary = summary

	s.log.Info("document ready", "request_id", scope.RequestID, "document_id", doc.ID, "chunks", len(entries))
	s.notify.publish(ctx, model.DocumentEvent{
		Type:       model.EventDocumentReady,
		SessionID:  doc.SessionID,
		DocumentID: doc.ID,
		Status:     doc.Status,
		ChunkCount: doc.ChunkCount,
		RequestID:  scope.RequestID,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// fail moves the document to failed and returns cause.
func (s *DocumentService) fail(ctx context.Context, scope Scope, doc *model.Document, cause error) error {
	ctx = context.WithoutCancel(ctx)
	reason := cause.Error()
	if err := s.docs.TransitionStatus(ctx, doc.ID, doc.Status, model.DocumentFailed, map[string]any{
		"failure_reason": reason,
	}); err != nil {
		s.log.Error("mark document failed", "request_id", scope.RequestID, "document_id", doc.ID, "error", err)
		return cause
	}
	doc.Status = model.DocumentFailed
	doc.FailureReason = reason

	s.log.Warn("document processing failed", "request_id", scope.RequestID, "document_id", doc.ID, "error", cause)
	s.notify.publish(ctx, model.DocumentEvent{
		Type:       model.EventDocumentFailed,
		SessionID:  doc.SessionID,
		DocumentID: doc.ID,
		Status:     doc.Status,
		Reason:     reason,
		RequestID:  scope.RequestID,
		OccurredAt: s.now().UTC(),
	})
	return cause
}

func (s *DocumentService) List(ctx context.Context, scope Scope) ([]model.Document, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	return s.docs.ListBySessionID(ctx, scope.SessionID)
}

func (s *DocumentService) Get(ctx context.Context, scope Scope, id uint) (*model.Document, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, fmt.Errorf("%w: invalid document id", ErrValidation)
	}
	return s.docs.GetByIDAndSessionID(ctx, id, scope.SessionID)
}

// Delete removes the index entries first, then the stored file, the turns
// grounded on the document and finally the record itself.
func (s *DocumentService) Delete(ctx context.Context, scope Scope, id uint) error {
	doc, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}

	if err := s.index.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document index: %w", err)
	}
	if err := s.files.Remove(doc.FilePath); err != nil {
		return err
	}
	if err := s.convs.DeleteByDocumentID(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return err
	}

	s.notify.invalidate(ctx, scope.SessionID)
	s.log.Info("document deleted", "request_id", scope.RequestID, "document_id", doc.ID)
	s.notify.publish(ctx, model.DocumentEvent{
		Type:       model.EventDocumentDeleted,
		SessionID:  doc.SessionID,
		DocumentID: doc.ID,
		RequestID:  scope.RequestID,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// Events returns the recorded lifecycle of a document, oldest first. Without
// an event consumer the list is empty.
func (s *DocumentService) Events(ctx context.Context, scope Scope, id uint) ([]model.EventRecord, error) {
	doc, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if s.audit == nil {
		return []model.EventRecord{}, nil
	}
	return s.audit.ListByDocumentID(ctx, doc.ID)
}
