package convo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session's conversation log as a Redis list of JSON
// entries under chat:<session>. RPUSH preserves append order and the list
// position at append time becomes the entry's sequence index.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func chatKey(sessionID string) string {
	return "chat:" + sessionID
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, role Role, content string) (Entry, error) {
	entry := Entry{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal entry: %w", err)
	}
	length, err := s.client.RPush(ctx, chatKey(sessionID), payload).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("append entry: %w", err)
	}
	entry.Seq = int(length) - 1
	return entry, nil
}

func (s *RedisStore) History(ctx context.Context, sessionID string) ([]Entry, error) {
	return s.rangeEntries(ctx, sessionID, 0, -1)
}

func (s *RedisStore) Recent(ctx context.Context, sessionID string, n int) ([]Entry, error) {
	if n <= 0 {
		return s.History(ctx, sessionID)
	}
	return s.rangeEntries(ctx, sessionID, int64(-n), -1)
}

func (s *RedisStore) rangeEntries(ctx context.Context, sessionID string, start, stop int64) ([]Entry, error) {
	raw, err := s.client.LRange(ctx, chatKey(sessionID), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	length, err := s.client.LLen(ctx, chatKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("log length: %w", err)
	}

	base := int(length) - len(raw)
	entries := make([]Entry, 0, len(raw))
	for i, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		// Seq reflects the list position, kept gap-free even if the stored
		// payload predates the field.
		entry.Seq = base + i
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, chatKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear log: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
