package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"invite_portal_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishReachesAllSubscribersForEventName(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	var wg sync.WaitGroup
	wg.Add(2)
	var mu sync.Mutex
	got := 0

	handler := HandlerFunc(func(context.Context, Event) error {
		mu.Lock()
		got++
		mu.Unlock()
		wg.Done()
		return nil
	})
	bus.Subscribe("invites.batch.dispatched", handler)
	bus.Subscribe("invites.batch.dispatched", handler)
	bus.Subscribe("invites.invitation.created", handler)

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), "invites.batch.dispatched"})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handlers did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	if got != 2 {
		t.Fatalf("expected exactly the 2 matching handlers, got %d", got)
	}
}

func TestPublishDetachesFromCallerContext(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	ctxErr := make(chan error, 1)
	bus.Subscribe("e", HandlerFunc(func(ctx context.Context, _ Event) error {
		ctxErr <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // handler must still observe a live context
	bus.Publish(ctx, testEvent{NewBaseEvent(), "e"})

	select {
	case err := <-ctxErr:
		if err != nil {
			t.Fatalf("expected detached context, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
}

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	errA := errors.New("a failed")
	bus.Subscribe("e", HandlerFunc(func(context.Context, Event) error { return errA }))
	bus.Subscribe("e", HandlerFunc(func(context.Context, Event) error { return nil }))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "e"})
	if !errors.Is(err, errA) {
		t.Fatalf("expected joined error to contain handler failure, got %v", err)
	}
}

func TestPublishSyncWithNoSubscribersIsNil(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "none"}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
