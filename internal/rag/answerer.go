package rag

import (
	"context"
	"fmt"
	"strings"

	"research-assistant/internal/ai"
)

type AnswerMode int

const (
	// ModeDocument answers from one document's passages.
	ModeDocument AnswerMode = iota
	// ModeAllDocuments answers from the best passages across the session.
	ModeAllDocuments
	// ModeGeneral is plain conversation without document context.
	ModeGeneral
)

func (m AnswerMode) String() string {
	switch m {
	case ModeDocument:
		return "document"
	case ModeAllDocuments:
		return "all_documents"
	default:
		return "general"
	}
}

const (
	documentHistoryTurns = 5
	mixedHistoryTurns    = 3
	generalHistoryTurns  = 5

	generalSystemPrompt = "You are a helpful research assistant. You can answer questions and have conversations, " +
		"but you work best when provided with documents to analyze."
	documentSystemPrompt = "You are a research assistant answering questions about the document %q. " +
		"Use the excerpts below and the conversation so far. If the excerpts do not contain the answer, say so " +
		"instead of guessing."
)

type AnswerInput struct {
	Mode         AnswerMode
	Question     string
	DocumentName string
	// History is chronological, oldest first.
	History  []Turn
	Passages []Passage
}

type Answerer struct {
	llm ChatCompleter
}

func NewAnswerer(llm ChatCompleter) *Answerer {
	return &Answerer{llm: llm}
}

func (a *Answerer) Answer(ctx context.Context, in AnswerInput) (string, error) {
	answer, err := a.llm.Complete(ctx, BuildAnswerMessages(in), ai.CompletionParams{Temperature: 0.7, MaxTokens: 500})
	if err != nil {
		return "", fmt.Errorf("answer question (%s): %w", in.Mode, err)
	}
	return strings.TrimSpace(answer), nil
}

// BuildAnswerMessages renders the chat messages for one question.
func BuildAnswerMessages(in AnswerInput) []ai.ChatMessage {
	switch in.Mode {
	case ModeDocument:
		return documentMessages(in)
	case ModeAllDocuments:
		return mixedMessages(in)
	default:
		return generalMessages(in)
	}
}

func documentMessages(in AnswerInput) []ai.ChatMessage {
	var sys strings.Builder
	fmt.Fprintf(&sys, documentSystemPrompt, in.DocumentName)
	sys.WriteString("\n\nExcerpts:")
	for _, p := range in.Passages {
		sys.WriteString("\n---\n")
		sys.WriteString(p.Text)
	}
	sys.WriteString("\n---")

	messages := []ai.ChatMessage{{Role: "system", Content: sys.String()}}
	for _, t := range lastTurns(in.History, documentHistoryTurns) {
		messages = append(messages,
			ai.ChatMessage{Role: "user", Content: t.Question},
			ai.ChatMessage{Role: "assistant", Content: t.Answer},
		)
	}
	return append(messages, ai.ChatMessage{Role: "user", Content: in.Question})
}

func mixedMessages(in AnswerInput) []ai.ChatMessage {
	var history strings.Builder
	for _, t := range lastTurns(in.History, mixedHistoryTurns) {
		fmt.Fprintf(&history, "Q: %s\nA: %s\n\n", t.Question, t.Answer)
	}
	var excerpts strings.Builder
	for i, p := range in.Passages {
		if i > 0 {
			excerpts.WriteString("\n")
		}
		if p.DocumentName != "" {
			fmt.Fprintf(&excerpts, "[%s] ", p.DocumentName)
		}
		excerpts.WriteString(p.Text)
	}

	prompt := fmt.Sprintf(`Based on the following document context and conversation history, please answer the question.

Previous conversation:
%s
Document context:
%s

Question: %s

Please provide a helpful and accurate answer based on the available information.`,
		history.String(), excerpts.String(), in.Question)
	return []ai.ChatMessage{{Role: "user", Content: prompt}}
}

func generalMessages(in AnswerInput) []ai.ChatMessage {
	messages := []ai.ChatMessage{{Role: "system", Content: generalSystemPrompt}}
	for _, t := range lastTurns(in.History, generalHistoryTurns) {
		messages = append(messages,
			ai.ChatMessage{Role: "user", Content: t.Question},
			ai.ChatMessage{Role: "assistant", Content: t.Answer},
		)
	}
	return append(messages, ai.ChatMessage{Role: "user", Content: in.Question})
}
