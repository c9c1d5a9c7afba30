package progress

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEstimatorStartWritesInitialSnapshot(t *testing.T) {
	store := NewMemoryStore()
	est := newEstimator(store, "batch-1", 100, "발송 중", time.Hour, time.Hour)
	est.Start(context.Background())
	defer est.Finish(context.Background())

	state, found, err := store.Get(context.Background(), "batch-1")
	if err != nil || !found {
		t.Fatalf("expected initial snapshot, found=%v err=%v", found, err)
	}
	if state.EstimatedProcessed != 0 || state.Total != 100 || state.Done {
		t.Fatalf("unexpected initial state: %+v", state)
	}
	if state.Processing != "발송 중" {
		t.Fatalf("expected label carried in snapshot, got %q", state.Processing)
	}
}

func TestEstimatorAdvancesByTwentiethPerTick(t *testing.T) {
	store := NewMemoryStore()
	est := newEstimator(store, "batch-2", 100, "", 5*time.Millisecond, time.Hour)
	est.Start(context.Background())
	defer est.Finish(context.Background())

	// step for 100 rows is ceil(100/20) = 5
	waitFor(t, time.Second, func() bool {
		state, _, _ := store.Get(context.Background(), "batch-2")
		return state.EstimatedProcessed >= 5
	})

	state, _, _ := store.Get(context.Background(), "batch-2")
	if state.EstimatedProcessed%5 != 0 {
		t.Fatalf("expected estimate to move in steps of 5, got %d", state.EstimatedProcessed)
	}
}

func TestEstimatorClampsEstimateToTotal(t *testing.T) {
	store := NewMemoryStore()
	est := newEstimator(store, "batch-3", 3, "", time.Millisecond, time.Hour)
	est.Start(context.Background())
	defer est.Finish(context.Background())

	// give the ticker ample time to overshoot 3/20 rounding
	time.Sleep(30 * time.Millisecond)

	state, _, _ := store.Get(context.Background(), "batch-3")
	if state.EstimatedProcessed > state.Total {
		t.Fatalf("estimate exceeded total: %+v", state)
	}
	if state.Done {
		t.Fatal("timer alone must never mark a batch done")
	}
}

func TestEstimatorFinishForcesDoneThenDeletesAfterRetention(t *testing.T) {
	store := NewMemoryStore()
	est := newEstimator(store, "batch-4", 40, "", time.Millisecond, 20*time.Millisecond)
	est.Start(context.Background())
	est.Finish(context.Background())

	state, found, _ := store.Get(context.Background(), "batch-4")
	if !found {
		t.Fatal("expected final snapshot to remain during retention")
	}
	if !state.Done || state.EstimatedProcessed != 40 {
		t.Fatalf("expected done state at total, got %+v", state)
	}

	waitFor(t, time.Second, func() bool {
		_, found, _ := store.Get(context.Background(), "batch-4")
		return !found
	})
}

func TestEstimatorFinishIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	est := newEstimator(store, "batch-5", 10, "", time.Hour, time.Hour)
	est.Start(context.Background())
	est.Finish(context.Background())
	est.Finish(context.Background()) // must not panic on closed channel
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreRoundTripsState(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	in := State{EstimatedProcessed: 15, Total: 40, Processing: "발송 중"}
	if err := store.Put(ctx, "batch-6", in); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	out, found, err := store.Get(ctx, "batch-6")
	if err != nil || !found {
		t.Fatalf("expected snapshot, found=%v err=%v", found, err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestRedisStoreGetMissingReturnsNotFound(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, found, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected missing snapshot to report not found")
	}
}

func TestRedisStoreDeleteRemovesSnapshot(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "batch-7", State{Total: 5}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Delete(ctx, "batch-7"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, found, _ := store.Get(ctx, "batch-7")
	if found {
		t.Fatal("expected snapshot removed")
	}
}

func TestRedisStoreSnapshotsExpire(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "batch-8", State{Total: 5}); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	mr.FastForward(snapshotTTL + time.Second)

	_, found, _ := store.Get(ctx, "batch-8")
	if found {
		t.Fatal("expected abandoned snapshot to expire")
	}
}
