package transport

import (
	"testing"

	"invite_portal_backend/internal/invites/repository"

	"github.com/google/uuid"
)

func TestNewInvitationResponseCarriesE164Phone(t *testing.T) {
	inv := &repository.Invitation{
		ID:      uuid.New(),
		BatchID: uuid.New(),
		Email:   "a@example.com",
		Name:    "김철수",
		Phone:   "01012345678",
		Role:    "expert",
		Status:  repository.StatusPending,
	}

	resp := NewInvitationResponse(inv)
	if resp.Phone != "01012345678" {
		t.Fatalf("expected stored digits untouched, got %q", resp.Phone)
	}
	if resp.PhoneE164 != "+821012345678" {
		t.Fatalf("expected E.164 rendering, got %q", resp.PhoneE164)
	}
}

func TestBulkInviteRequestRowsFallBackToListPosition(t *testing.T) {
	req := BulkInviteRequest{Users: []InviteUser{
		{Row: 7, Email: "a@example.com"},
		{Email: "b@example.com"},
	}}

	rows := req.Rows()
	if rows[0].Number != 7 {
		t.Fatalf("expected spreadsheet row kept, got %d", rows[0].Number)
	}
	if rows[1].Number != 2 {
		t.Fatalf("expected 1-based list position fallback, got %d", rows[1].Number)
	}
}
