package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect initializes a Redis client from URL or host:port input.
func Connect(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// Redis is a WeekGuard shared by every server instance.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a guard whose entries expire after ttl. A closed week
// never reopens, so the ttl only bounds memory use.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// IsClosed reports whether any instance has marked the week closed.
func (r *Redis) IsClosed(ctx context.Context, groupID, weekID string) (bool, error) {
	n, err := r.client.Exists(ctx, key(groupID, weekID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// MarkClosed sets the week key with the guard ttl, overwriting any earlier
// mark.
func (r *Redis) MarkClosed(ctx context.Context, groupID, weekID string) error {
	if err := r.client.Set(ctx, key(groupID, weekID), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
