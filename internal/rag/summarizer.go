package rag

import (
	"context"
	"fmt"
	"strings"

	"research-assistant/internal/ai"
)

type Summarizer struct {
	llm      ChatCompleter
	maxInput int
}

// NewSummarizer summarizes at most maxInput runes of a document.
func NewSummarizer(llm ChatCompleter, maxInput int) *Summarizer {
	if maxInput <= 0 {
		maxInput = 3000
	}
	return &Summarizer{llm: llm, maxInput: maxInput}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	excerpt := Truncate(text, s.maxInput)
	if len(excerpt) < len(text) {
		excerpt += "..."
	}
	prompt := fmt.Sprintf(`Please provide a concise summary of the following document in about 2-3 sentences.
Focus on the main topics, key points, and overall purpose of the document.

Document text:
%s

Summary:`, excerpt)

	out, err := s.llm.Complete(ctx, []ai.ChatMessage{{Role: "user", Content: prompt}},
		ai.CompletionParams{Temperature: 0.3, MaxTokens: 150})
	if err != nil {
		return "", fmt.Errorf("summarize document: %w", err)
	}
	return strings.TrimSpace(out), nil
}
