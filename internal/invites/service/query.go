package service

import (
	"context"

	"invite_portal_backend/internal/invites/progress"
	"invite_portal_backend/internal/invites/repository"
	"invite_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Progress returns the current progress snapshot for a batch. Snapshots are
// short-lived: once a batch completes the snapshot is removed after a grace
// window, and pollers should fall back to the batch record.
func (s *Service) Progress(ctx context.Context, batchID uuid.UUID) (progress.State, error) {
	state, found, err := s.progress.Get(ctx, batchID.String())
	if err != nil {
		return progress.State{}, apperr.Wrap(apperr.KindInternal, "failed to load batch progress", err)
	}
	if !found {
		return progress.State{}, apperr.NotFound("진행 중인 배치를 찾을 수 없습니다")
	}
	return state, nil
}

// GetBatch returns the persisted outcome of a batch.
func (s *Service) GetBatch(ctx context.Context, batchID, tenantID uuid.UUID) (*repository.Batch, error) {
	return s.repo.GetBatch(ctx, batchID, tenantID)
}

// InvitationPage is one page of a tenant's invitations.
type InvitationPage struct {
	Invitations []repository.Invitation
	Total       int
	Page        int
	PageSize    int
}

// List returns a page of the tenant's invitations, optionally filtered by
// status.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, status string, page, pageSize int) (*InvitationPage, error) {
	switch status {
	case "", repository.StatusPending, repository.StatusSent, repository.StatusFailed, repository.StatusAccepted:
	default:
		return nil, apperr.Validation("유효하지 않은 상태 필터입니다")
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	invitations, total, err := s.repo.List(ctx, tenantID, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	return &InvitationPage{
		Invitations: invitations,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
	}, nil
}
