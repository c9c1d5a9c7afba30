// Package transport defines the request/response DTOs for the invites API.
package transport

import (
	"time"

	"invite_portal_backend/internal/invites/collector"
	"invite_portal_backend/internal/invites/repository"
	"invite_portal_backend/internal/invites/rowcheck"
	"invite_portal_backend/internal/invites/service"
	"invite_portal_backend/platform/phone"

	"github.com/google/uuid"
)

// InviteUser is one candidate invitation as it crosses the API. Row is the
// spreadsheet row the candidate came from; zero for manual entry, in which
// case the list position is used for error messages.
type InviteUser struct {
	Row              int    `json:"row,omitempty"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Role             string `json:"role"`
	OrganizationName string `json:"organizationName,omitempty"`
	Position         string `json:"position,omitempty"`
}

// BulkInviteRequest dispatches a batch of candidates.
type BulkInviteRequest struct {
	Users []InviteUser `json:"users" validate:"required"`
}

// Rows converts the request into collector rows, falling back to 1-based
// list positions when no spreadsheet row is attached.
func (r BulkInviteRequest) Rows() []collector.Row {
	rows := make([]collector.Row, 0, len(r.Users))
	for i, u := range r.Users {
		number := u.Row
		if number == 0 {
			number = i + 1
		}
		rows = append(rows, collector.Row{
			Number: number,
			Candidate: rowcheck.Candidate{
				Email:            u.Email,
				Name:             u.Name,
				Phone:            u.Phone,
				Role:             u.Role,
				OrganizationName: u.OrganizationName,
				Position:         u.Position,
			},
		})
	}
	return rows
}

// ImportPreviewResponse is the outcome of parsing an uploaded spreadsheet.
type ImportPreviewResponse struct {
	Users  []InviteUser `json:"users"`
	Errors []string     `json:"errors"`
}

// NewImportPreviewResponse maps a parse outcome to the API shape.
func NewImportPreviewResponse(outcome *service.ImportOutcome) ImportPreviewResponse {
	users := make([]InviteUser, 0, len(outcome.Users))
	for _, row := range outcome.Users {
		users = append(users, InviteUser{
			Row:              row.Number,
			Email:            row.Candidate.Email,
			Name:             row.Candidate.Name,
			Phone:            row.Candidate.Phone,
			Role:             row.Candidate.Role,
			OrganizationName: row.Candidate.OrganizationName,
			Position:         row.Candidate.Position,
		})
	}
	errors := outcome.Errors
	if errors == nil {
		errors = []string{}
	}
	return ImportPreviewResponse{Users: users, Errors: errors}
}

// BatchErrorDTO is one per-record dispatch failure.
type BatchErrorDTO struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// BatchOutcomeResponse is the aggregate result of a dispatch.
type BatchOutcomeResponse struct {
	BatchID uuid.UUID       `json:"batchId"`
	Total   int             `json:"total"`
	Success int             `json:"success"`
	Failed  int             `json:"failed"`
	Errors  []BatchErrorDTO `json:"errors"`
}

// NewBatchOutcomeResponse maps a dispatch outcome to the API shape.
func NewBatchOutcomeResponse(outcome *service.DispatchOutcome) BatchOutcomeResponse {
	return BatchOutcomeResponse{
		BatchID: outcome.BatchID,
		Total:   outcome.Total,
		Success: outcome.Success,
		Failed:  outcome.Failed,
		Errors:  newBatchErrorDTOs(outcome.Errors),
	}
}

// BatchResponse is the persisted record of a batch.
type BatchResponse struct {
	ID          uuid.UUID       `json:"id"`
	Total       int             `json:"total"`
	Success     int             `json:"success"`
	Failed      int             `json:"failed"`
	Errors      []BatchErrorDTO `json:"errors"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// NewBatchResponse maps a batch record to the API shape.
func NewBatchResponse(batch *repository.Batch) BatchResponse {
	return BatchResponse{
		ID:          batch.ID,
		Total:       batch.Total,
		Success:     batch.Success,
		Failed:      batch.Failed,
		Errors:      newBatchErrorDTOs(batch.Errors),
		Status:      batch.Status,
		CreatedAt:   batch.CreatedAt,
		CompletedAt: batch.CompletedAt,
	}
}

func newBatchErrorDTOs(batchErrors []repository.BatchError) []BatchErrorDTO {
	dtos := make([]BatchErrorDTO, 0, len(batchErrors))
	for _, e := range batchErrors {
		dtos = append(dtos, BatchErrorDTO{Email: e.Email, Error: e.Error})
	}
	return dtos
}

// ListInvitationsRequest filters and pages the invitation list.
type ListInvitationsRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// InvitationResponse is one invitation record.
type InvitationResponse struct {
	ID               uuid.UUID  `json:"id"`
	BatchID          uuid.UUID  `json:"batchId"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	PhoneE164        string     `json:"phoneE164"`
	Role             string     `json:"role"`
	OrganizationName *string    `json:"organizationName,omitempty"`
	Position         *string    `json:"position,omitempty"`
	Status           string     `json:"status"`
	LastError        *string    `json:"lastError,omitempty"`
	EmailAttempts    int        `json:"emailAttempts"`
	LastAttemptAt    *time.Time `json:"lastAttemptAt,omitempty"`
	AcceptedAt       *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// NewInvitationResponse maps an invitation record to the API shape. The
// stored phone stays in its digits-only form; the E.164 rendering is for
// display and dialing links.
func NewInvitationResponse(inv *repository.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:               inv.ID,
		BatchID:          inv.BatchID,
		Email:            inv.Email,
		Name:             inv.Name,
		Phone:            inv.Phone,
		PhoneE164:        phone.NormalizeE164(inv.Phone),
		Role:             inv.Role,
		OrganizationName: inv.OrganizationName,
		Position:         inv.Position,
		Status:           inv.Status,
		LastError:        inv.LastError,
		EmailAttempts:    inv.EmailAttempts,
		LastAttemptAt:    inv.LastAttemptAt,
		AcceptedAt:       inv.AcceptedAt,
		CreatedAt:        inv.CreatedAt,
	}
}

// ListInvitationsResponse is one page of invitations.
type ListInvitationsResponse struct {
	Invitations []InvitationResponse `json:"invitations"`
	Total       int                  `json:"total"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"pageSize"`
}

// NewListInvitationsResponse maps a page of invitations to the API shape.
func NewListInvitationsResponse(page *service.InvitationPage) ListInvitationsResponse {
	invitations := make([]InvitationResponse, 0, len(page.Invitations))
	for i := range page.Invitations {
		invitations = append(invitations, NewInvitationResponse(&page.Invitations[i]))
	}
	return ListInvitationsResponse{
		Invitations: invitations,
		Total:       page.Total,
		Page:        page.Page,
		PageSize:    page.PageSize,
	}
}

// ResendResponse reports a synchronous resend.
type ResendResponse struct {
	Email     string `json:"email"`
	Attempts  int    `json:"attempts"`
	Delivered bool   `json:"delivered"`
}

// AcceptInviteRequest redeems an invitation token.
type AcceptInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

// AcceptInviteResponse confirms an accepted invitation.
type AcceptInviteResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
