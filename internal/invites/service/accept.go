package service

import (
	"context"

	"invite_portal_backend/internal/email"
	"invite_portal_backend/internal/events"
	"invite_portal_backend/internal/invites/repository"
	"invite_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

// ResendOutcome reports a synchronous resend.
type ResendOutcome struct {
	Email     string
	Attempts  int
	Delivered bool
}

// Resend re-delivers one invitation email synchronously, rotating the
// accept token so the previously mailed link stops working.
func (s *Service) Resend(ctx context.Context, invitationID, tenantID uuid.UUID) (*ResendOutcome, error) {
	inv, err := s.repo.GetInvitation(ctx, invitationID, tenantID)
	if err != nil {
		return nil, err
	}
	if inv.Status == repository.StatusAccepted {
		return nil, apperr.Conflict("이미 수락된 초대입니다")
	}

	token, tokenHash, err := newAcceptToken()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to generate invite token", err)
	}
	if err := s.repo.RotateToken(ctx, inv.ID, tokenHash); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.InvitationResendRequested{
		BaseEvent:    events.NewBaseEvent(),
		InvitationID: inv.ID,
		TenantID:     tenantID,
		Email:        inv.Email,
	})

	acceptURL := s.acceptURL(token)
	organizationName := ""
	if inv.OrganizationName != nil {
		organizationName = *inv.OrganizationName
	}

	result := email.SendWithRetry(ctx, email.MaxSendAttempts, func(ctx context.Context) error {
		return s.sender.SendInviteEmail(ctx, inv.Email, inv.Name, organizationName, inv.Role, acceptURL)
	})

	reason := ""
	if result.LastErr != nil {
		reason = result.LastErr.Error()
	}
	s.log.EmailEvent(inv.Email, result.Attempts, result.Delivered, reason)

	if err := s.repo.RecordEmailResult(ctx, inv.ID, result.Attempts, result.Delivered, reason); err != nil {
		return nil, err
	}

	if !result.Delivered {
		return nil, apperr.Internal("이메일 발송에 실패했습니다").WithDetails(map[string]any{
			"attempts": result.Attempts,
		})
	}

	return &ResendOutcome{
		Email:     inv.Email,
		Attempts:  result.Attempts,
		Delivered: true,
	}, nil
}

// Accept redeems an invitation token. The raw token is hashed for lookup;
// an unknown digest and an already-redeemed invitation are distinguishable
// to the caller but neither reveals whether the email exists.
func (s *Service) Accept(ctx context.Context, token string) (*repository.Invitation, error) {
	if token == "" {
		return nil, apperr.Validation("초대 토큰이 필요합니다")
	}

	inv, err := s.repo.GetInvitationByTokenHash(ctx, hashToken(token))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("유효하지 않은 초대 토큰입니다")
		}
		return nil, err
	}

	if err := s.repo.MarkAccepted(ctx, inv.ID); err != nil {
		return nil, err
	}
	inv.Status = repository.StatusAccepted

	s.bus.Publish(ctx, events.InvitationAccepted{
		BaseEvent:    events.NewBaseEvent(),
		InvitationID: inv.ID,
		TenantID:     inv.TenantID,
		Email:        inv.Email,
	})

	return inv, nil
}
