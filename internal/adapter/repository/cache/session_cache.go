package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type SessionCache struct {
	client *redis.Client
}

func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

func (c *SessionCache) CacheToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	return c.client.Set(ctx, "session:"+userID, token, ttl).Err()
}

func (c *SessionCache) GetToken(ctx context.Context, userID string) (string, error) {
	token, err := c.client.Get(ctx, "session:"+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return token, err
}

func (c *SessionCache) InvalidateToken(ctx context.Context, userID string) error {
	return c.client.Del(ctx, "session:"+userID).Err()
}
