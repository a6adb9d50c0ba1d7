package convo

import (
	"context"
	"strings"
)

// NewStore creates a redis-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, redisURL string) (Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewRedisStore(ctx, redisURL)
}
