package progress

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryStore is a process-local Store for single-instance deployments
// and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (s *MemoryStore) Put(_ context.Context, batchID string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[batchID] = state
	return nil
}

func (s *MemoryStore) Get(_ context.Context, batchID string) (State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[batchID]
	return state, ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, batchID)
	return nil
}

// snapshotTTL bounds how long an abandoned snapshot can linger in Redis.
const snapshotTTL = 10 * time.Minute

const redisKeyPrefix = "invites:progress:"

// RedisStore shares progress snapshots across API replicas.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed Store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, batchID string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+batchID, payload, snapshotTTL).Err()
}

func (s *RedisStore) Get(ctx context.Context, batchID string) (State, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+batchID).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, false, err
	}
	return state, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, batchID string) error {
	return s.client.Del(ctx, redisKeyPrefix+batchID).Err()
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
