package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAICompatibleClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAICompatibleClient(Config{
		BaseURL:            srv.URL + "/v1/",
		APIKey:             "test-key",
		ChatModel:          "chat-model",
		EmbeddingModel:     "embed-model",
		Temperature:        0.7,
		Timeout:            5 * time.Second,
		BreakerMaxFailures: 2,
	}, nil)
}

func TestComplete_SendsMessagesAndReturnsContent(t *testing.T) {
	var got struct {
		Model    string        `json:"model"`
		Messages []ChatMessage `json:"messages"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello there"}}]}`))
	})

	answer, err := client.Complete(context.Background(), []ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	}, CompletionParams{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if answer != "hello there" {
		t.Fatalf("unexpected answer %q", answer)
	}
	if got.Model != "chat-model" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestComplete_NonSuccessStatusIsUpstreamUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.Complete(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, CompletionParams{})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestComplete_OpenBreakerFailsFast(t *testing.T) {
	var hits int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	for i := 0; i < 4; i++ {
		_, err := client.Complete(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, CompletionParams{})
		if !errors.Is(err, ErrUpstreamUnavailable) {
			t.Fatalf("call %d: expected ErrUpstreamUnavailable, got %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected breaker to stop calls after 2 failures, server saw %d", n)
	}
	if client.BreakerState() != "open" {
		t.Fatalf("expected open breaker, got %s", client.BreakerState())
	}
}

func TestEmbedBatch_AlignsByIndex(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0,1]},
			{"index":0,"embedding":[1,0]}
		]}`))
	})

	vectors, err := client.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("embed batch: %v", err)
	}
	if len(vectors) != 2 || vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("unexpected vectors %v", vectors)
	}
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0]}]}`))
	})

	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
