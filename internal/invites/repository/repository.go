// Package repository persists invitation batches and invitations.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"invite_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Invitation statuses.
const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusAccepted = "accepted"
)

// Batch statuses.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
)

// Batch is one bulk dispatch.
type Batch struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	CreatedBy   uuid.UUID
	Total       int
	Success     int
	Failed      int
	Errors      []BatchError
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// BatchError is a per-record dispatch failure.
type BatchError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// Invitation is one persisted invite.
type Invitation struct {
	ID               uuid.UUID
	BatchID          uuid.UUID
	TenantID         uuid.UUID
	Email            string
	Name             string
	Phone            string
	Role             string
	OrganizationName *string
	Position         *string
	TokenHash        string
	Status           string
	LastError        *string
	EmailAttempts    int
	LastAttemptAt    *time.Time
	AcceptedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Repository is the pgx-backed store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a repository on the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateBatch inserts a new batch in processing state.
func (r *Repository) CreateBatch(ctx context.Context, batch *Batch) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO invite_batches (id, tenant_id, created_by, total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		batch.ID, batch.TenantID, batch.CreatedBy, batch.Total, BatchProcessing,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to create invite batch", err)
	}
	return nil
}

// FinalizeBatch records the aggregate outcome and marks the batch completed.
func (r *Repository) FinalizeBatch(ctx context.Context, batchID, tenantID uuid.UUID, success, failed int, batchErrors []BatchError) error {
	payload, err := json.Marshal(batchErrors)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to encode batch errors", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE invite_batches
		SET success = $3, failed = $4, errors = $5, status = $6, completed_at = now()
		WHERE id = $1 AND tenant_id = $2`,
		batchID, tenantID, success, failed, payload, BatchCompleted,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to finalize invite batch", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("배치를 찾을 수 없습니다")
	}
	return nil
}

// GetBatch loads one batch scoped to its tenant.
func (r *Repository) GetBatch(ctx context.Context, batchID, tenantID uuid.UUID) (*Batch, error) {
	var (
		batch     Batch
		rawErrors []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, created_by, total, success, failed, errors, status, created_at, completed_at
		FROM invite_batches
		WHERE id = $1 AND tenant_id = $2`,
		batchID, tenantID,
	).Scan(
		&batch.ID, &batch.TenantID, &batch.CreatedBy, &batch.Total, &batch.Success,
		&batch.Failed, &rawErrors, &batch.Status, &batch.CreatedAt, &batch.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("배치를 찾을 수 없습니다")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load invite batch", err)
	}

	if len(rawErrors) > 0 {
		if err := json.Unmarshal(rawErrors, &batch.Errors); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to decode batch errors", err)
		}
	}
	return &batch, nil
}

// CreateInvitation inserts one invitation. A duplicate email within the
// tenant maps to a conflict error so the dispatcher can count it as a
// per-row failure.
func (r *Repository) CreateInvitation(ctx context.Context, inv *Invitation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO invitations (
			id, batch_id, tenant_id, email, name, phone, role,
			organization_name, position, token_hash, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())`,
		inv.ID, inv.BatchID, inv.TenantID, inv.Email, inv.Name, inv.Phone, inv.Role,
		inv.OrganizationName, inv.Position, inv.TokenHash, StatusPending,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperr.Conflict("이미 초대된 이메일입니다")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to create invitation", err)
	}
	return nil
}

// GetInvitation loads one invitation scoped to its tenant.
func (r *Repository) GetInvitation(ctx context.Context, invitationID, tenantID uuid.UUID) (*Invitation, error) {
	return r.scanInvitation(r.pool.QueryRow(ctx, selectInvitation+`
		WHERE id = $1 AND tenant_id = $2`,
		invitationID, tenantID,
	))
}

// GetInvitationByTokenHash loads an invitation by its accept-token digest.
func (r *Repository) GetInvitationByTokenHash(ctx context.Context, tokenHash string) (*Invitation, error) {
	return r.scanInvitation(r.pool.QueryRow(ctx, selectInvitation+`
		WHERE token_hash = $1`,
		tokenHash,
	))
}

// List returns a page of the tenant's invitations, newest first, with the
// total count for paging. An empty status matches all.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]Invitation, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM invitations
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)`,
		tenantID, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to count invitations", err)
	}

	rows, err := r.pool.Query(ctx, selectInvitation+`
		WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		tenantID, status, limit, offset,
	)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list invitations", err)
	}
	defer rows.Close()

	var invitations []Invitation
	for rows.Next() {
		inv, err := r.scanInvitationRow(rows)
		if err != nil {
			return nil, 0, err
		}
		invitations = append(invitations, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list invitations", err)
	}
	return invitations, total, nil
}

// RecordEmailResult updates delivery bookkeeping after a send attempt run.
func (r *Repository) RecordEmailResult(ctx context.Context, invitationID uuid.UUID, attempts int, delivered bool, reason string) error {
	status := StatusSent
	var lastError *string
	if !delivered {
		status = StatusFailed
		lastError = &reason
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE invitations
		SET status = CASE WHEN status = $5 THEN status ELSE $2 END,
		    email_attempts = email_attempts + $3,
		    last_error = $4,
		    last_attempt_at = now(),
		    updated_at = now()
		WHERE id = $1`,
		invitationID, status, attempts, lastError, StatusAccepted,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to record email result", err)
	}
	return nil
}

// RotateToken replaces the accept-token digest before a resend so the old
// link stops working.
func (r *Repository) RotateToken(ctx context.Context, invitationID uuid.UUID, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE invitations
		SET token_hash = $2, updated_at = now()
		WHERE id = $1`,
		invitationID, tokenHash,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to rotate invitation token", err)
	}
	return nil
}

// MarkAccepted transitions an invitation to accepted.
func (r *Repository) MarkAccepted(ctx context.Context, invitationID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invitations
		SET status = $2, accepted_at = now(), updated_at = now()
		WHERE id = $1 AND status <> $2`,
		invitationID, StatusAccepted,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to accept invitation", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("이미 수락된 초대입니다")
	}
	return nil
}

const selectInvitation = `
	SELECT id, batch_id, tenant_id, email, name, phone, role,
	       organization_name, position, token_hash, status, last_error,
	       email_attempts, last_attempt_at, accepted_at, created_at, updated_at
	FROM invitations`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanInvitation(row pgx.Row) (*Invitation, error) {
	inv, err := r.scanInvitationRow(row)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *Repository) scanInvitationRow(row rowScanner) (*Invitation, error) {
	var inv Invitation
	err := row.Scan(
		&inv.ID, &inv.BatchID, &inv.TenantID, &inv.Email, &inv.Name, &inv.Phone, &inv.Role,
		&inv.OrganizationName, &inv.Position, &inv.TokenHash, &inv.Status, &inv.LastError,
		&inv.EmailAttempts, &inv.LastAttemptAt, &inv.AcceptedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("초대를 찾을 수 없습니다")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load invitation", err)
	}
	return &inv, nil
}
