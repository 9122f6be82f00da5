package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"research-assistant/internal/config"
	"research-assistant/internal/model"
	"research-assistant/internal/rag"
	"research-assistant/internal/vectorindex"
)

// InsightService answers questions that span several documents: comparisons
// and semantic search.
type InsightService struct {
	docs     DocumentStore
	convs    ConversationStore
	index    vectorindex.Index
	embedder QueryEmbedder
	comparer Comparer
	notify   notifier
	log      *slog.Logger
	cfg      config.RetrievalConfig
	now      func() time.Time
}

type InsightDeps struct {
	Documents     DocumentStore
	Conversations ConversationStore
	Index         vectorindex.Index
	Embedder      QueryEmbedder
	Comparer      Comparer
	Cache         HistoryCache
	Logger        *slog.Logger
}

func NewInsightService(deps InsightDeps, cfg config.RetrievalConfig) *InsightService {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.CompareCharsPerDoc <= 0 {
		cfg.CompareCharsPerDoc = 2000
	}
	if cfg.SearchPerDocument <= 0 {
		cfg.SearchPerDocument = 3
	}
	if cfg.SearchMaxResults <= 0 {
		cfg.SearchMaxResults = 10
	}
	return &InsightService{
		docs:     deps.Documents,
		convs:    deps.Conversations,
		index:    deps.Index,
		embedder: deps.Embedder,
		comparer: deps.Comparer,
		notify:   notifier{cache: deps.Cache, log: log},
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

type CompareInput struct {
	DocumentIDs []uint
	Mode        string
}

type CompareResult struct {
	Comparison   string             `json:"comparison"`
	Mode         string             `json:"mode"`
	DocumentIDs  []uint             `json:"document_ids"`
	Conversation model.Conversation `json:"conversation"`
}

// Compare asks the model to contrast the ready documents among the requested
// ids. Documents that are not ready yet are left out; fewer than two ready
// documents is an error.
func (s *InsightService) Compare(ctx context.Context, scope Scope, in CompareInput) (*CompareResult, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	mode, err := rag.ParseCompareMode(in.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	ids := distinctIDs(in.DocumentIDs)
	if len(ids) < 2 {
		return nil, fmt.Errorf("%w: got %d document ids", ErrInsufficientDocuments, len(ids))
	}

	docs, err := s.docs.ListByIDsAndSessionID(ctx, ids, scope.SessionID)
	if err != nil {
		return nil, err
	}
	if len(docs) != len(ids) {
		return nil, fmt.Errorf("one or more documents not found: %w", ErrNotFound)
	}
	ready := docs[:0:0]
	for _, d := range docs {
		if d.Ready() {
			ready = append(ready, d)
		}
	}
	if len(ready) < 2 {
		return nil, fmt.Errorf("%w: %d of %d documents ready", ErrInsufficientDocuments, len(ready), len(docs))
	}

	inputs := make([]rag.CompareDocument, 0, len(ready))
	names := make([]string, 0, len(ready))
	readyIDs := make([]uint, 0, len(ready))
	for _, d := range ready {
		entries, err := s.index.Chunks(ctx, d.ID)
		if err != nil {
			return nil, fmt.Errorf("load chunks of document %d: %w", d.ID, err)
		}
		inputs = append(inputs, rag.CompareDocument{
			Name:    d.OriginalFilename,
			Summary: d.Summary,
			Content: rag.Truncate(ReconstructText(entries), s.cfg.CompareCharsPerDoc),
		})
		names = append(names, d.OriginalFilename)
		readyIDs = append(readyIDs, d.ID)
	}

	comparison, err := s.comparer.Compare(ctx, mode, inputs)
	if err != nil {
		return nil, err
	}

	conv := &model.Conversation{
		SessionID:   scope.SessionID,
		Question:    "Compare documents: " + strings.Join(names, ", "),
		Answer:      comparison,
		ContextUsed: fmt.Sprintf("Compared %d documents (%s)", len(ready), mode),
		DocumentIDs: readyIDs,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, err
	}
	s.notify.invalidate(ctx, scope.SessionID)
	s.log.Info("documents compared", "request_id", scope.RequestID, "mode", string(mode), "documents", len(ready))

	return &CompareResult{
		Comparison:   comparison,
		Mode:         string(mode),
		DocumentIDs:  readyIDs,
		Conversation: *conv,
	}, nil
}

// ReconstructText stitches ordered, overlapping chunks back into the source
// text using their rune spans.
func ReconstructText(entries []vectorindex.Entry) string {
	var b strings.Builder
	covered := 0
	for _, e := range entries {
		r := []rune(e.Text)
		skip := covered - e.Start
		if skip < 0 {
			skip = 0
		}
		if skip >= len(r) {
			continue
		}
		b.WriteString(string(r[skip:]))
		if e.End > covered {
			covered = e.End
		}
	}
	return b.String()
}

type SearchInput struct {
	Query string
	// DocumentIDs limits the search; empty means every ready document.
	DocumentIDs []uint
}

type SearchResult struct {
	DocumentID   uint    `json:"document_id"`
	DocumentName string  `json:"document_name"`
	ChunkIndex   int     `json:"chunk_index"`
	Content      string  `json:"content"`
	Score        float64 `json:"similarity_score"`
	Relevance    string  `json:"relevance"`
}

const snippetRunes = 300

// Search runs the query against each document and merges the hits. Results
// are ordered by score, highest first.
func (s *InsightService) Search(ctx context.Context, scope Scope, in SearchInput) ([]SearchResult, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrValidation)
	}

	docs, err := s.searchTargets(ctx, scope, in.DocumentIDs)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []SearchResult{}, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed search query: %w", err)
	}

	names := make(map[uint]string, len(docs))
	var hits []vectorindex.Hit
	for _, d := range docs {
		names[d.ID] = d.OriginalFilename
		found, err := s.index.Search(ctx, d.ID, vec, s.cfg.SearchPerDocument)
		if err != nil {
			if errors.Is(err, vectorindex.ErrIndexNotFound) {
				s.log.Warn("ready document has no index entries", "document_id", d.ID)
				continue
			}
			return nil, err
		}
		hits = append(hits, found...)
	}
	vectorindex.SortHits(hits)
	if len(hits) > s.cfg.SearchMaxResults {
		hits = hits[:s.cfg.SearchMaxResults]
	}

	results := make([]SearchResult, len(hits))
	for i, h := range hits {
		snippet := rag.Truncate(h.Text, snippetRunes)
		if len(snippet) < len(h.Text) {
			snippet += "..."
		}
		results[i] = SearchResult{
			DocumentID:   h.DocumentID,
			DocumentName: names[h.DocumentID],
			ChunkIndex:   h.ChunkIndex,
			Content:      snippet,
			Score:        h.Score,
			Relevance:    Relevance(h.Score),
		}
	}
	return results, nil
}

func (s *InsightService) searchTargets(ctx context.Context, scope Scope, ids []uint) ([]model.Document, error) {
	ids = distinctIDs(ids)
	if len(ids) == 0 {
		return s.docs.ListReadyBySessionID(ctx, scope.SessionID)
	}
	docs, err := s.docs.ListByIDsAndSessionID(ctx, ids, scope.SessionID)
	if err != nil {
		return nil, err
	}
	if len(docs) != len(ids) {
		return nil, fmt.Errorf("one or more documents not found: %w", ErrNotFound)
	}
	for _, d := range docs {
		if !d.Ready() {
			return nil, fmt.Errorf("document %d is %s: %w", d.ID, d.Status, ErrDocumentNotReady)
		}
	}
	return docs, nil
}

// Relevance labels a cosine similarity score.
func Relevance(score float64) string {
	switch {
	case score >= 0.80:
		return "High"
	case score >= 0.60:
		return "Medium"
	default:
		return "Low"
	}
}

func distinctIDs(ids []uint) []uint {
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
