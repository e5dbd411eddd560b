// Package dedup keeps the server from pushing the same message to a user twice.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "push:sent:"

// RedisGuard records pushed (user, message) pairs with SET NX and a TTL
type RedisGuard struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisGuard(client redis.Cmdable, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Claim reports true the first time a pair is seen within the TTL
func (g *RedisGuard) Claim(ctx context.Context, userID uuid.UUID, messageID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, key(userID, messageID), 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim push %s: %w", messageID, err)
	}
	return ok, nil
}

// Release forgets a pair so a later retry can push again
func (g *RedisGuard) Release(ctx context.Context, userID uuid.UUID, messageID string) error {
	return g.client.Del(ctx, key(userID, messageID)).Err()
}

// Ping checks the Redis connection for readiness probes
func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

func key(userID uuid.UUID, messageID string) string {
	return keyPrefix + userID.String() + ":" + messageID
}
