// Package rag builds grounded prompts and turns model replies into answers,
// comparisons and summaries.
package rag

import (
	"context"
	"strings"

	"research-assistant/internal/ai"
)

// ChatCompleter is the part of the model client the prompt builders need.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []ai.ChatMessage, params ai.CompletionParams) (string, error)
}

// Turn is a previous question/answer pair fed back as history.
type Turn struct {
	Question string
	Answer   string
}

// Passage is a retrieved chunk handed to the model as context.
type Passage struct {
	DocumentID   uint
	DocumentName string
	ChunkIndex   int
	Text         string
	Score        float64
}

const snapshotRunes = 200

// ContextSnapshot is the compact record of the passages an answer used: each
// passage cut to its first 200 runes, one per line.
func ContextSnapshot(passages []Passage) string {
	if len(passages) == 0 {
		return ""
	}
	lines := make([]string, len(passages))
	for i, p := range passages {
		lines[i] = Truncate(p.Text, snapshotRunes) + "..."
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// lastTurns returns the newest n turns, keeping chronological order.
func lastTurns(history []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}
