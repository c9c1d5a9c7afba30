package invites

import (
	"context"

	"invite_portal_backend/internal/events"
)

// RegisterHandlers subscribes the module's audit trail to its own domain
// events. Publishing stays fire-and-forget; the handlers write structured
// audit entries so batch activity can be reconstructed from the logs.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.InvitationCreated{}.EventName(), m)
	bus.Subscribe(events.InvitationResendRequested{}.EventName(), m)
	bus.Subscribe(events.BatchDispatched{}.EventName(), m)
	bus.Subscribe(events.InvitationAccepted{}.EventName(), m)

	m.log.Info("invites module registered event handlers")
}

// Handle routes domain events to the audit logger.
func (m *Module) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.InvitationCreated:
		m.log.Info("audit_event",
			"event", e.EventName(),
			"invitation_id", e.InvitationID,
			"batch_id", e.BatchID,
			"tenant_id", e.TenantID,
			"email", e.Email,
		)
	case events.InvitationResendRequested:
		m.log.Info("audit_event",
			"event", e.EventName(),
			"invitation_id", e.InvitationID,
			"tenant_id", e.TenantID,
			"email", e.Email,
		)
	case events.BatchDispatched:
		m.log.Info("audit_event",
			"event", e.EventName(),
			"batch_id", e.BatchID,
			"tenant_id", e.TenantID,
			"success", e.Success,
			"failed", e.Failed,
		)
	case events.InvitationAccepted:
		m.log.Info("audit_event",
			"event", e.EventName(),
			"invitation_id", e.InvitationID,
			"tenant_id", e.TenantID,
			"email", e.Email,
		)
	}
	return nil
}
