// Package progress derives a coarse, time-based progress estimate for an
// invitation batch in flight. The dispatch call is a single request without
// server-side per-row acknowledgment, so the estimate is explicitly
// cosmetic: EstimatedProcessed moves on a timer, and Done is the only
// truthful completion signal.
package progress

import (
	"context"
	"sync"
	"time"
)

const (
	defaultTick      = 500 * time.Millisecond
	defaultRetention = 1 * time.Second
	estimateSlices   = 20
)

// State is the progress snapshot served to pollers.
// Invariant: 0 <= EstimatedProcessed <= Total.
type State struct {
	EstimatedProcessed int    `json:"estimatedProcessed"`
	Total              int    `json:"total"`
	Processing         string `json:"processing,omitempty"`
	Done               bool   `json:"done"`
}

// Store persists progress snapshots keyed by batch ID so any API replica
// can answer a poll.
type Store interface {
	Put(ctx context.Context, batchID string, state State) error
	Get(ctx context.Context, batchID string) (State, bool, error)
	Delete(ctx context.Context, batchID string) error
}

// Estimator fabricates an approximate progress curve for one batch: every
// tick it advances the estimate by ceil(total/20), clamped to total. On
// Finish the estimate is forced to total, then the snapshot is removed
// after a short retention so the final state stays observable.
type Estimator struct {
	store   Store
	batchID string
	total   int
	label   string

	tick      time.Duration
	retention time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
}

// NewEstimator creates an estimator with production timing (500ms tick,
// 1s retention after completion).
func NewEstimator(store Store, batchID string, total int, label string) *Estimator {
	return newEstimator(store, batchID, total, label, defaultTick, defaultRetention)
}

func newEstimator(store Store, batchID string, total int, label string, tick, retention time.Duration) *Estimator {
	return &Estimator{
		store:     store,
		batchID:   batchID,
		total:     total,
		label:     label,
		tick:      tick,
		retention: retention,
		stop:      make(chan struct{}),
	}
}

// Start writes the initial snapshot and begins advancing the estimate on a
// background goroutine until Finish is called or ctx is cancelled.
func (e *Estimator) Start(ctx context.Context) {
	state := State{Total: e.total, Processing: e.label}
	_ = e.store.Put(ctx, e.batchID, state)

	step := (e.total + estimateSlices - 1) / estimateSlices
	if step < 1 {
		step = 1
	}

	go func() {
		ticker := time.NewTicker(e.tick)
		defer ticker.Stop()

		current := 0
		for {
			select {
			case <-e.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				current += step
				if current > e.total {
					current = e.total
				}
				_ = e.store.Put(ctx, e.batchID, State{
					EstimatedProcessed: current,
					Total:              e.total,
					Processing:         e.label,
				})
			}
		}
	}()
}

// Finish stops the timer, forces the estimate to total, and schedules the
// snapshot's removal after the retention window.
func (e *Estimator) Finish(ctx context.Context) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stop)
	e.mu.Unlock()

	_ = e.store.Put(ctx, e.batchID, State{
		EstimatedProcessed: e.total,
		Total:              e.total,
		Done:               true,
	})

	store, batchID, retention := e.store, e.batchID, e.retention
	cleanupCtx := context.WithoutCancel(ctx)
	time.AfterFunc(retention, func() {
		_ = store.Delete(cleanupCtx, batchID)
	})
}
