package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// dispatchLockTTL caps how long a tenant's dispatch lock can outlive a
// crashed request.
const dispatchLockTTL = 5 * time.Minute

func dispatchLockKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("invites:dispatch:%s", tenantID)
}

// Locker serializes dispatches per tenant so two concurrent uploads cannot
// interleave their batches.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLocker implements Locker with SET NX.
type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "1", ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, key).Err()
}
