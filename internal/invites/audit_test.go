package invites

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"invite_portal_backend/internal/events"
	"invite_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) auditEventNames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var names []string
	for _, r := range h.records {
		if r.Message != "audit_event" {
			continue
		}
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "event" {
				names = append(names, a.Value.String())
			}
			return true
		})
	}
	return names
}

func TestRegisteredHandlersWriteAuditEntries(t *testing.T) {
	rec := &recordingHandler{}
	log := &logger.Logger{Logger: slog.New(rec)}
	bus := events.NewInMemoryBus(log)

	m := &Module{log: log}
	m.RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), events.BatchDispatched{
		BaseEvent: events.NewBaseEvent(),
		BatchID:   uuid.New(),
		TenantID:  uuid.New(),
		Success:   8,
		Failed:    2,
	}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.PublishSync(context.Background(), events.InvitationAccepted{
		BaseEvent:    events.NewBaseEvent(),
		InvitationID: uuid.New(),
		TenantID:     uuid.New(),
		Email:        "a@example.com",
	}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	names := rec.auditEventNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 audit entries, got %v", names)
	}
	if names[0] != "invites.batch.dispatched" || names[1] != "invites.invitation.accepted" {
		t.Fatalf("unexpected audit event names: %v", names)
	}
}

func TestRegisterHandlersCoversAllInviteEvents(t *testing.T) {
	rec := &recordingHandler{}
	log := &logger.Logger{Logger: slog.New(rec)}
	bus := events.NewInMemoryBus(log)

	m := &Module{log: log}
	m.RegisterHandlers(bus)

	published := []events.Event{
		events.InvitationCreated{BaseEvent: events.NewBaseEvent()},
		events.InvitationResendRequested{BaseEvent: events.NewBaseEvent()},
		events.BatchDispatched{BaseEvent: events.NewBaseEvent()},
		events.InvitationAccepted{BaseEvent: events.NewBaseEvent()},
	}
	for _, e := range published {
		if err := bus.PublishSync(context.Background(), e); err != nil {
			t.Fatalf("publish %s failed: %v", e.EventName(), err)
		}
	}

	if got := rec.auditEventNames(); len(got) != len(published) {
		t.Fatalf("expected every event audited, got %v", got)
	}
}
