package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"research-assistant/internal/ai"
)

type CompareMode string

const (
	CompareSimilarities CompareMode = "similarities"
	CompareDifferences  CompareMode = "differences"
	CompareThemes       CompareMode = "themes"
)

var ErrUnknownCompareMode = errors.New("unknown comparison mode")

// ParseCompareMode defaults an empty mode to similarities.
func ParseCompareMode(s string) (CompareMode, error) {
	switch CompareMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", CompareSimilarities:
		return CompareSimilarities, nil
	case CompareDifferences:
		return CompareDifferences, nil
	case CompareThemes:
		return CompareThemes, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCompareMode, s)
	}
}

func (m CompareMode) instruction() string {
	switch m {
	case CompareDifferences:
		return "identify key differences, contrasting viewpoints, and unique aspects of"
	case CompareThemes:
		return "extract and analyze the main themes across"
	default:
		return "identify key similarities, common themes, and shared concepts between"
	}
}

type CompareDocument struct {
	Name    string
	Summary string
	Content string
}

type Comparer struct {
	llm ChatCompleter
}

func NewComparer(llm ChatCompleter) *Comparer {
	return &Comparer{llm: llm}
}

func (c *Comparer) Compare(ctx context.Context, mode CompareMode, docs []CompareDocument) (string, error) {
	out, err := c.llm.Complete(ctx, []ai.ChatMessage{
		{Role: "user", Content: BuildComparePrompt(mode, docs)},
	}, ai.CompletionParams{Temperature: 0.7, MaxTokens: 1000})
	if err != nil {
		return "", fmt.Errorf("compare documents: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func BuildComparePrompt(mode CompareMode, docs []CompareDocument) string {
	summaries := make([]string, len(docs))
	contents := make([]string, len(docs))
	for i, d := range docs {
		summary := d.Summary
		if summary == "" {
			summary = "(no summary)"
		}
		summaries[i] = fmt.Sprintf("- %s: %s", d.Name, summary)
		contents[i] = fmt.Sprintf("Document: %s\n%s", d.Name, d.Content)
	}
	return fmt.Sprintf(`Please %s the following documents. Provide a detailed analysis with specific examples.

Document Summaries:
%s

Full Content Analysis:
%s

Provide a comprehensive comparison covering:
1. Main points of comparison
2. Specific examples from each document
3. Key insights or conclusions`,
		mode.instruction(), strings.Join(summaries, "\n"), strings.Join(contents, "\n"))
}
