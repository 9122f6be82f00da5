package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Embed returns the embedding vector for the given text.
func (c *OpenAICompatibleClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request. The result is aligned with the
// input: result[i] belongs to texts[i].
func (c *OpenAICompatibleClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("embedding input %d is empty", i)
		}
	}

	ctx, span := c.tracer.Start(ctx, "llm.embeddings")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.cfg.EmbeddingModel),
		attribute.Int("llm.inputs", len(texts)),
	)

	reqBody := map[string]interface{}{
		"model": c.cfg.EmbeddingModel,
		"input": texts,
	}
	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.post(ctx, span, "/embeddings", reqBody, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) != len(texts) {
		return nil, c.fail(span, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrUpstreamUnavailable, len(parsed.Data), len(texts)))
	}

	sort.SliceStable(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
	result := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		if len(parsed.Data[i].Embedding) == 0 {
			return nil, c.fail(span, fmt.Errorf("%w: empty embedding at index %d", ErrUpstreamUnavailable, i))
		}
		result[i] = parsed.Data[i].Embedding
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}
