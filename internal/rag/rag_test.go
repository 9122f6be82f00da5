package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"research-assistant/internal/ai"
)

type recordingLLM struct {
	last   []ai.ChatMessage
	params ai.CompletionParams
	reply  string
	err    error
}

func (l *recordingLLM) Complete(ctx context.Context, messages []ai.ChatMessage, params ai.CompletionParams) (string, error) {
	_ = ctx
	l.last = append([]ai.ChatMessage(nil), messages...)
	l.params = params
	return l.reply, l.err
}

func history(n int) []Turn {
	turns := make([]Turn, n)
	for i := range turns {
		turns[i] = Turn{Question: "q" + string(rune('a'+i)), Answer: "a" + string(rune('a'+i))}
	}
	return turns
}

func TestBuildAnswerMessages_Document(t *testing.T) {
	msgs := BuildAnswerMessages(AnswerInput{
		Mode:         ModeDocument,
		Question:     "what is it?",
		DocumentName: "paper.pdf",
		History:      history(7),
		Passages:     []Passage{{Text: "alpha"}, {Text: "beta"}},
	})

	if msgs[0].Role != "system" || !strings.Contains(msgs[0].Content, "alpha") || !strings.Contains(msgs[0].Content, "paper.pdf") {
		t.Fatalf("system prompt missing context: %q", msgs[0].Content)
	}
	// system + 5 history pairs + question
	if len(msgs) != 1+10+1 {
		t.Fatalf("expected 12 messages, got %d", len(msgs))
	}
	if msgs[1].Content != "qc" {
		t.Fatalf("expected history to start at the 3rd turn, got %q", msgs[1].Content)
	}
	if last := msgs[len(msgs)-1]; last.Role != "user" || last.Content != "what is it?" {
		t.Fatalf("unexpected final message %+v", last)
	}
}

func TestBuildAnswerMessages_AllDocuments(t *testing.T) {
	msgs := BuildAnswerMessages(AnswerInput{
		Mode:     ModeAllDocuments,
		Question: "compare?",
		History:  history(5),
		Passages: []Passage{{DocumentName: "a.txt", Text: "one"}, {DocumentName: "b.txt", Text: "two"}},
	})
	if len(msgs) != 1 {
		t.Fatalf("expected a single prompt, got %d messages", len(msgs))
	}
	prompt := msgs[0].Content
	if strings.Contains(prompt, "Q: qb") || !strings.Contains(prompt, "Q: qc") || !strings.Contains(prompt, "Q: qe") {
		t.Fatalf("expected only the last 3 turns in prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "[a.txt] one") || !strings.Contains(prompt, "Question: compare?") {
		t.Fatalf("prompt missing context or question: %q", prompt)
	}
}

func TestBuildAnswerMessages_General(t *testing.T) {
	msgs := BuildAnswerMessages(AnswerInput{Mode: ModeGeneral, Question: "hi", History: history(2)})
	if len(msgs) != 1+4+1 || msgs[0].Content != generalSystemPrompt {
		t.Fatalf("unexpected general messages %+v", msgs)
	}
}

func TestAnswerer_PropagatesUpstreamError(t *testing.T) {
	llm := &recordingLLM{err: ai.ErrUpstreamUnavailable}
	_, err := NewAnswerer(llm).Answer(context.Background(), AnswerInput{Mode: ModeGeneral, Question: "hi"})
	if !errors.Is(err, ai.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestContextSnapshot(t *testing.T) {
	long := strings.Repeat("x", 250)
	got := ContextSnapshot([]Passage{{Text: long}, {Text: "short"}})
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != strings.Repeat("x", 200)+"..." || lines[1] != "short..." {
		t.Fatalf("unexpected snapshot %q", got)
	}
	if ContextSnapshot(nil) != "" {
		t.Fatalf("expected empty snapshot without passages")
	}
}

func TestParseCompareMode(t *testing.T) {
	tests := map[string]CompareMode{
		"":             CompareSimilarities,
		"Similarities": CompareSimilarities,
		"differences":  CompareDifferences,
		" themes ":     CompareThemes,
	}
	for in, want := range tests {
		got, err := ParseCompareMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseCompareMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseCompareMode("contrast"); !errors.Is(err, ErrUnknownCompareMode) {
		t.Fatalf("expected ErrUnknownCompareMode, got %v", err)
	}
}

func TestComparer_PromptCarriesEveryDocument(t *testing.T) {
	llm := &recordingLLM{reply: "  analysis  "}
	out, err := NewComparer(llm).Compare(context.Background(), CompareDifferences, []CompareDocument{
		{Name: "a.txt", Summary: "about cats", Content: "cats purr"},
		{Name: "b.txt", Content: "dogs bark"},
	})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if out != "analysis" {
		t.Fatalf("expected trimmed output, got %q", out)
	}
	prompt := llm.last[0].Content
	for _, want := range []string{"key differences", "- a.txt: about cats", "Document: b.txt\ndogs bark"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if llm.params.MaxTokens != 1000 {
		t.Fatalf("unexpected max tokens %d", llm.params.MaxTokens)
	}
}

func TestSummarizer_TruncatesInput(t *testing.T) {
	llm := &recordingLLM{reply: "summary"}
	text := strings.Repeat("y", 50)
	if _, err := NewSummarizer(llm, 10).Summarize(context.Background(), text); err != nil {
		t.Fatalf("summarize: %v", err)
	}
	prompt := llm.last[0].Content
	if !strings.Contains(prompt, strings.Repeat("y", 10)+"...") || strings.Contains(prompt, strings.Repeat("y", 11)) {
		t.Fatalf("expected input cut to 10 runes:\n%s", prompt)
	}
}
