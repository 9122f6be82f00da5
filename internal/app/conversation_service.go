package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"research-assistant/internal/config"
	"research-assistant/internal/model"
	"research-assistant/internal/rag"
	"research-assistant/internal/vectorindex"
)

type ConversationService struct {
	docs     DocumentStore
	convs    ConversationStore
	index    vectorindex.Index
	embedder QueryEmbedder
	answerer Answerer
	cache    HistoryCache
	notify   notifier
	log      *slog.Logger
	cfg      config.RetrievalConfig
	now      func() time.Time
}

type ConversationDeps struct {
	Documents     DocumentStore
	Conversations ConversationStore
	Index         vectorindex.Index
	Embedder      QueryEmbedder
	Answerer      Answerer
	Events        EventPublisher
	Cache         HistoryCache
	Logger        *slog.Logger
}

func NewConversationService(deps ConversationDeps, cfg config.RetrievalConfig) *ConversationService {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 5
	}
	return &ConversationService{
		docs:     deps.Documents,
		convs:    deps.Conversations,
		index:    deps.Index,
		embedder: deps.Embedder,
		answerer: deps.Answerer,
		cache:    deps.Cache,
		notify:   notifier{events: deps.Events, cache: deps.Cache, log: log},
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

type AskInput struct {
	Question string
	// DocumentID restricts the question to one document when set.
	DocumentID *uint
}

type Source struct {
	DocumentID   uint    `json:"document_id"`
	DocumentName string  `json:"document_name"`
	ChunkIndex   int     `json:"chunk_index"`
	Score        float64 `json:"score"`
}

type AskResult struct {
	Answer       string             `json:"answer"`
	Mode         string             `json:"mode"`
	Sources      []Source           `json:"sources"`
	Conversation model.Conversation `json:"conversation"`
}

func (s *ConversationService) Ask(ctx context.Context, scope Scope, in AskInput) (*AskResult, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrValidation)
	}

	history, err := s.recentHistory(ctx, scope.SessionID)
	if err != nil {
		return nil, err
	}

	input := rag.AnswerInput{Question: question, History: history}
	var docIDs []uint
	if in.DocumentID != nil {
		doc, err := s.docs.GetByIDAndSessionID(ctx, *in.DocumentID, scope.SessionID)
		if err != nil {
			return nil, err
		}
		if !doc.Ready() {
			return nil, fmt.Errorf("document %d is %s: %w", doc.ID, doc.Status, ErrDocumentNotReady)
		}
		passages, err := s.retrieve(ctx, question, []model.Document{*doc}, s.cfg.DocumentTopK, s.cfg.DocumentTopK, true)
		if err != nil {
			return nil, err
		}
		input.Mode = rag.ModeDocument
		input.DocumentName = doc.OriginalFilename
		input.Passages = passages
		docIDs = []uint{doc.ID}
	} else {
		ready, err := s.docs.ListReadyBySessionID(ctx, scope.SessionID)
		if err != nil {
			return nil, err
		}
		input.Mode = rag.ModeGeneral
		if len(ready) > 0 {
			passages, err := s.retrieve(ctx, question, ready, s.cfg.PerDocumentTopK, s.cfg.GeneralContextMax, false)
			if err != nil {
				return nil, err
			}
			if len(passages) > 0 {
				input.Mode = rag.ModeAllDocuments
				input.Passages = passages
				docIDs = passageDocumentIDs(passages)
			}
		}
	}

	answer, err := s.answerer.Answer(ctx, input)
	if err != nil {
		return nil, err
	}
	if answer == "" {
		answer = "The model returned an empty response."
	}

	conv := &model.Conversation{
		SessionID:   scope.SessionID,
		Question:    question,
		Answer:      answer,
		ContextUsed: rag.ContextSnapshot(input.Passages),
		DocumentIDs: docIDs,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, err
	}
	s.notify.invalidate(ctx, scope.SessionID)
	s.log.Info("question answered",
		"request_id", scope.RequestID, "mode", input.Mode.String(), "passages", len(input.Passages), "conversation_id", conv.ID)

	sources := make([]Source, len(input.Passages))
	for i, p := range input.Passages {
		sources[i] = Source{DocumentID: p.DocumentID, DocumentName: p.DocumentName, ChunkIndex: p.ChunkIndex, Score: p.Score}
	}
	return &AskResult{
		Answer:       answer,
		Mode:         input.Mode.String(),
		Sources:      sources,
		Conversation: *conv,
	}, nil
}

// retrieve embeds the question once and takes perDoc hits from every
// document, keeping the best limit overall. Unless strict, documents without
// index entries are skipped.
func (s *ConversationService) retrieve(
	ctx context.Context,
	question string,
	docs []model.Document,
	perDoc, limit int,
	strict bool,
) ([]rag.Passage, error) {
	query, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	names := make(map[uint]string, len(docs))
	var hits []vectorindex.Hit
	for _, d := range docs {
		names[d.ID] = d.OriginalFilename
		found, err := s.index.Search(ctx, d.ID, query, perDoc)
		if err != nil {
			if !strict && errors.Is(err, vectorindex.ErrIndexNotFound) {
				s.log.Warn("ready document has no index entries", "document_id", d.ID)
				continue
			}
			return nil, err
		}
		hits = append(hits, found...)
	}
	vectorindex.SortHits(hits)
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	passages := make([]rag.Passage, len(hits))
	for i, h := range hits {
		passages[i] = rag.Passage{
			DocumentID:   h.DocumentID,
			DocumentName: names[h.DocumentID],
			ChunkIndex:   h.ChunkIndex,
			Text:         h.Text,
			Score:        h.Score,
		}
	}
	return passages, nil
}

func passageDocumentIDs(passages []rag.Passage) []uint {
	seen := make(map[uint]struct{}, len(passages))
	var ids []uint
	for _, p := range passages {
		if _, ok := seen[p.DocumentID]; ok {
			continue
		}
		seen[p.DocumentID] = struct{}{}
		ids = append(ids, p.DocumentID)
	}
	return ids
}

func (s *ConversationService) recentHistory(ctx context.Context, sessionID string) ([]rag.Turn, error) {
	limit := s.cfg.HistoryTurns
	var turns []model.Conversation
	cached := false
	if s.cache != nil {
		if list, hit, err := s.cache.GetHistory(ctx, sessionID, limit); err == nil && hit {
			turns, cached = list, true
		} else if err != nil {
			s.log.Warn("read history cache failed", "session_id", sessionID, "error", err)
		}
	}
	if !cached {
		list, err := s.convs.ListRecentBySessionID(ctx, sessionID, limit)
		if err != nil {
			return nil, err
		}
		turns = list
		if s.cache != nil {
			if err := s.cache.SetHistory(ctx, sessionID, limit, list); err != nil {
				s.log.Warn("write history cache failed", "session_id", sessionID, "error", err)
			}
		}
	}

	out := make([]rag.Turn, len(turns))
	for i, t := range turns {
		out[i] = rag.Turn{Question: t.Question, Answer: t.Answer}
	}
	return out, nil
}

// History returns every turn of the session, oldest first.
func (s *ConversationService) History(ctx context.Context, scope Scope) ([]model.Conversation, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	return s.convs.ListBySessionID(ctx, scope.SessionID)
}

type ClearResult struct {
	NewSessionID string `json:"new_session_id"`
	Deleted      int64  `json:"deleted_turns"`
}

// ClearSession deletes the session's turns and starts a new session. The
// session's documents move to the new session.
func (s *ConversationService) ClearSession(ctx context.Context, scope Scope) (*ClearResult, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	deleted, err := s.convs.DeleteBySessionID(ctx, scope.SessionID)
	if err != nil {
		return nil, err
	}
	next := uuid.NewString()
	if _, err := s.docs.ReassignSession(ctx, scope.SessionID, next); err != nil {
		return nil, err
	}
	s.notify.invalidate(ctx, scope.SessionID)
	s.log.Info("session cleared", "request_id", scope.RequestID, "deleted_turns", deleted)
	s.notify.publish(ctx, model.DocumentEvent{
		Type:       model.EventSessionCleared,
		SessionID:  scope.SessionID,
		RequestID:  scope.RequestID,
		OccurredAt: s.now().UTC(),
	})
	return &ClearResult{NewSessionID: next, Deleted: deleted}, nil
}

type Export struct {
	Text     string `json:"export_text"`
	Filename string `json:"filename"`
}

// Export renders the session history as Markdown.
func (s *ConversationService) Export(ctx context.Context, scope Scope) (*Export, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	turns, err := s.convs.ListBySessionID(ctx, scope.SessionID)
	if err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("%w: no conversations to export", ErrValidation)
	}
	return &Export{
		Text:     RenderExport(scope.SessionID, turns, s.now().UTC()),
		Filename: exportFilename(scope.SessionID),
	}, nil
}

func RenderExport(sessionID string, turns []model.Conversation, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString("# AI Research Assistant Conversation Export\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n", generatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Session ID: %s\n\n", sessionID)
	b.WriteString("---\n\n")
	for _, t := range turns {
		fmt.Fprintf(&b, "**Q:** %s\n\n", t.Question)
		fmt.Fprintf(&b, "**A:** %s\n\n", t.Answer)
		fmt.Fprintf(&b, "*Time: %s*\n\n", t.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		b.WriteString("---\n\n")
	}
	return b.String()
}

func exportFilename(sessionID string) string {
	prefix := sessionID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("research_conversation_%s.md", prefix)
}
