package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"research-assistant/internal/model"
)

// HistoryCache keeps the recent turns of a session in Redis so repeated
// questions skip the history query. Entries are dropped whenever a session
// gains or loses turns.
type HistoryCache struct {
	client     *redisv9.Client
	historyTTL time.Duration
}

func NewHistoryCache(client *redisv9.Client, historyTTL time.Duration) *HistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	return &HistoryCache{
		client:     client,
		historyTTL: historyTTL,
	}
}

func (c *HistoryCache) GetHistory(ctx context.Context, sessionID string, limit int) ([]model.Conversation, bool, error) {
	raw, err := c.client.Get(ctx, c.historyKey(sessionID, limit)).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var turns []model.Conversation
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return turns, true, nil
}

func (c *HistoryCache) SetHistory(ctx context.Context, sessionID string, limit int, turns []model.Conversation) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	key := c.historyKey(sessionID, limit)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, payload, c.historyTTL)
	pipe.SAdd(ctx, c.indexKey(sessionID), key)
	pipe.Expire(ctx, c.indexKey(sessionID), c.historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

// Invalidate removes every cached window of the session.
func (c *HistoryCache) Invalidate(ctx context.Context, sessionID string) error {
	indexKey := c.indexKey(sessionID)
	keys, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis list history keys failed: %w", err)
	}
	keys = append(keys, indexKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

func (c *HistoryCache) historyKey(sessionID string, limit int) string {
	return fmt.Sprintf("research:history:%s:%d", sessionID, limit)
}

func (c *HistoryCache) indexKey(sessionID string) string {
	return fmt.Sprintf("research:history:keys:%s", sessionID)
}
