// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"invite_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// InvitationCreated is published for each invitation persisted during a
// batch dispatch; the module's audit trail records it.
type InvitationCreated struct {
	BaseEvent
	InvitationID uuid.UUID `json:"invitationId"`
	BatchID      uuid.UUID `json:"batchId"`
	TenantID     uuid.UUID `json:"tenantId"`
	Email        string    `json:"email"`
}

func (e InvitationCreated) EventName() string { return "invites.invitation.created" }

// InvitationResendRequested is published when a user asks for a single
// invitation email to be re-delivered.
type InvitationResendRequested struct {
	BaseEvent
	InvitationID uuid.UUID `json:"invitationId"`
	TenantID     uuid.UUID `json:"tenantId"`
	Email        string    `json:"email"`
}

func (e InvitationResendRequested) EventName() string { return "invites.invitation.resend_requested" }

// BatchDispatched is published when a bulk dispatch finishes, carrying the
// aggregate outcome.
type BatchDispatched struct {
	BaseEvent
	BatchID  uuid.UUID `json:"batchId"`
	TenantID uuid.UUID `json:"tenantId"`
	Success  int       `json:"success"`
	Failed   int       `json:"failed"`
}

func (e BatchDispatched) EventName() string { return "invites.batch.dispatched" }

// InvitationAccepted is published when an invitee redeems their token.
type InvitationAccepted struct {
	BaseEvent
	InvitationID uuid.UUID `json:"invitationId"`
	TenantID     uuid.UUID `json:"tenantId"`
	Email        string    `json:"email"`
}

func (e InvitationAccepted) EventName() string { return "invites.invitation.accepted" }
