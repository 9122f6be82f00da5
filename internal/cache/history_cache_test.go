package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"research-assistant/internal/config"
	"research-assistant/internal/model"
	redisClient "research-assistant/internal/platform/redis"
)

// Runs only against a live server: REDIS_TEST_ADDR=localhost:6379 go test
func TestHistoryCache_SetGetInvalidate(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client, err := redisClient.New(ctx, config.RedisConfig{Addr: addr, DB: 15})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	c := NewHistoryCache(client, time.Minute)
	session := "cache-test-" + t.Name()
	if _, hit, err := c.GetHistory(ctx, session, 5); err != nil || hit {
		t.Fatalf("expected miss, hit=%v err=%v", hit, err)
	}

	turns := []model.Conversation{{ID: 1, SessionID: session, Question: "q", Answer: "a"}}
	if err := c.SetHistory(ctx, session, 5, turns); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, hit, err := c.GetHistory(ctx, session, 5)
	if err != nil || !hit || len(got) != 1 || got[0].Answer != "a" {
		t.Fatalf("expected cached turn, got %+v hit=%v err=%v", got, hit, err)
	}

	if err := c.Invalidate(ctx, session); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, hit, _ := c.GetHistory(ctx, session, 5); hit {
		t.Fatalf("expected miss after invalidate")
	}
}

func TestHistoryCache_KeysAreScopedBySessionAndWindow(t *testing.T) {
	c := NewHistoryCache(nil, 0)
	if c.historyTTL != 60*time.Second {
		t.Fatalf("expected default ttl, got %v", c.historyTTL)
	}
	if c.historyKey("s1", 5) == c.historyKey("s1", 3) {
		t.Fatalf("windows must not share a key")
	}
	if c.historyKey("s1", 5) == c.historyKey("s2", 5) {
		t.Fatalf("sessions must not share a key")
	}
}
