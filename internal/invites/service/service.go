// Package service orchestrates the bulk invitation pipeline: spreadsheet
// import, batch dispatch, progress reporting, resends, and acceptance.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"invite_portal_backend/internal/email"
	"invite_portal_backend/internal/events"
	"invite_portal_backend/internal/invites/collector"
	"invite_portal_backend/internal/invites/parser"
	"invite_portal_backend/internal/invites/progress"
	"invite_portal_backend/internal/invites/repository"
	"invite_portal_backend/internal/scheduler"
	"invite_portal_backend/internal/storage"
	"invite_portal_backend/platform/apperr"
	"invite_portal_backend/platform/logger"

	"github.com/google/uuid"
)

const progressLabel = "초대장 발송 중"

// Store is the persistence surface the service needs.
type Store interface {
	CreateBatch(ctx context.Context, batch *repository.Batch) error
	FinalizeBatch(ctx context.Context, batchID, tenantID uuid.UUID, success, failed int, batchErrors []repository.BatchError) error
	GetBatch(ctx context.Context, batchID, tenantID uuid.UUID) (*repository.Batch, error)
	CreateInvitation(ctx context.Context, inv *repository.Invitation) error
	GetInvitation(ctx context.Context, invitationID, tenantID uuid.UUID) (*repository.Invitation, error)
	GetInvitationByTokenHash(ctx context.Context, tokenHash string) (*repository.Invitation, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]repository.Invitation, int, error)
	RecordEmailResult(ctx context.Context, invitationID uuid.UUID, attempts int, delivered bool, reason string) error
	RotateToken(ctx context.Context, invitationID uuid.UUID, tokenHash string) error
	MarkAccepted(ctx context.Context, invitationID uuid.UUID) error
}

// Service implements the invitation operations.
type Service struct {
	repo       Store
	parser     *parser.Parser
	archiver   storage.Archiver
	progress   progress.Store
	queue      scheduler.EmailQueue
	sender     email.Sender
	locker     Locker
	bus        events.Bus
	appBaseURL string
	log        *logger.Logger
}

// NewService wires the invitation service.
func NewService(
	repo Store,
	p *parser.Parser,
	archiver storage.Archiver,
	progressStore progress.Store,
	queue scheduler.EmailQueue,
	sender email.Sender,
	locker Locker,
	bus events.Bus,
	appBaseURL string,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		parser:     p,
		archiver:   archiver,
		progress:   progressStore,
		queue:      queue,
		sender:     sender,
		locker:     locker,
		bus:        bus,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		log:        log,
	}
}

// ImportOutcome is the result of parsing an uploaded spreadsheet.
type ImportOutcome struct {
	Users  []collector.Row
	Errors []string
}

// CheckUploadSize rejects uploads over the configured ceiling before the
// body is read into memory.
func (s *Service) CheckUploadSize(size int64) error {
	return s.parser.CheckSize(size)
}

// ImportPreview parses an uploaded spreadsheet and runs the collect pass so
// the preview shows exactly what a dispatch would accept: duplicates are
// rejected here, not first at dispatch time. The raw upload is archived for
// later inspection; archiving failures are logged, never surfaced.
func (s *Service) ImportPreview(ctx context.Context, tenantID uuid.UUID, fileName, contentType string, data []byte) (*ImportOutcome, error) {
	result, err := s.parser.Parse(fileName, data)
	if err != nil {
		return nil, err
	}

	if s.archiver != nil {
		if _, archiveErr := s.archiver.ArchiveUpload(ctx, tenantID, fileName, contentType, data); archiveErr != nil {
			s.log.Error("failed to archive upload", "file", fileName, "error", archiveErr)
		}
	}

	outcome := collector.Collect(result.Rows)
	messages := append(result.Errors, outcome.Rejected...)

	return &ImportOutcome{
		Users:  outcome.Accepted,
		Errors: collector.TruncateMessages(messages),
	}, nil
}

// DispatchOutcome is the aggregate result of a batch dispatch.
type DispatchOutcome struct {
	BatchID uuid.UUID
	Total   int
	Success int
	Failed  int
	Errors  []repository.BatchError
}

// Dispatch validates, deduplicates, persists, and queues emails for a batch
// of candidates. Any row-level violation aborts the whole batch; per-record
// persistence failures (already-invited emails) only fail that record.
func (s *Service) Dispatch(ctx context.Context, tenantID, userID uuid.UUID, rows []collector.Row) (*DispatchOutcome, error) {
	if len(rows) == 0 {
		return nil, apperr.Validation("초대할 사용자가 없습니다")
	}

	outcome := collector.Collect(rows)
	if len(outcome.Rejected) > 0 {
		return nil, apperr.Validation("입력값 검증에 실패했습니다").
			WithDetails(collector.TruncateMessages(outcome.Rejected))
	}

	if s.locker != nil {
		acquired, err := s.locker.Acquire(ctx, dispatchLockKey(tenantID), dispatchLockTTL)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to acquire dispatch lock", err)
		}
		if !acquired {
			return nil, apperr.Conflict("이미 진행 중인 초대 작업이 있습니다")
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), dispatchLockKey(tenantID)); err != nil {
				s.log.Error("failed to release dispatch lock", "tenant_id", tenantID, "error", err)
			}
		}()
	}

	batch := &repository.Batch{
		ID:        uuid.New(),
		TenantID:  tenantID,
		CreatedBy: userID,
		Total:     len(outcome.Accepted),
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}

	estimator := progress.NewEstimator(s.progress, batch.ID.String(), batch.Total, progressLabel)
	estimator.Start(ctx)

	var (
		success     int
		failed      int
		batchErrors []repository.BatchError
		emailItems  []scheduler.InviteEmailItem
	)

	for _, accepted := range outcome.Accepted {
		candidate := accepted.Candidate
		token, tokenHash, err := newAcceptToken()
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to generate invite token", err)
		}

		inv := &repository.Invitation{
			ID:               uuid.New(),
			BatchID:          batch.ID,
			TenantID:         tenantID,
			Email:            candidate.Email,
			Name:             candidate.Name,
			Phone:            candidate.Phone,
			Role:             candidate.Role,
			OrganizationName: optional(candidate.OrganizationName),
			Position:         optional(candidate.Position),
			TokenHash:        tokenHash,
		}

		if err := s.repo.CreateInvitation(ctx, inv); err != nil {
			failed++
			batchErrors = append(batchErrors, repository.BatchError{
				Email: candidate.Email,
				Error: userMessage(err),
			})
			continue
		}

		success++
		emailItems = append(emailItems, scheduler.InviteEmailItem{
			InvitationID:     inv.ID.String(),
			Email:            inv.Email,
			Name:             inv.Name,
			Role:             inv.Role,
			OrganizationName: candidate.OrganizationName,
			Token:            token,
		})

		s.bus.Publish(ctx, events.InvitationCreated{
			BaseEvent:    events.NewBaseEvent(),
			InvitationID: inv.ID,
			BatchID:      batch.ID,
			TenantID:     tenantID,
			Email:        inv.Email,
		})
	}

	if len(emailItems) > 0 && s.queue != nil {
		err := s.queue.EnqueueBatchEmails(ctx, scheduler.InviteBatchEmailPayload{
			BatchID:  batch.ID.String(),
			TenantID: tenantID.String(),
			Items:    emailItems,
		})
		if err != nil {
			// Invitations stay pending; the resend endpoint recovers them.
			s.log.Error("failed to enqueue batch emails", "batch_id", batch.ID, "error", err)
		}
	}

	if err := s.repo.FinalizeBatch(ctx, batch.ID, tenantID, success, failed, batchErrors); err != nil {
		estimator.Finish(ctx)
		return nil, err
	}
	estimator.Finish(ctx)

	s.bus.Publish(ctx, events.BatchDispatched{
		BaseEvent: events.NewBaseEvent(),
		BatchID:   batch.ID,
		TenantID:  tenantID,
		Success:   success,
		Failed:    failed,
	})
	s.log.DispatchEvent(batch.ID.String(), batch.Total, success, failed)

	return &DispatchOutcome{
		BatchID: batch.ID,
		Total:   batch.Total,
		Success: success,
		Failed:  failed,
		Errors:  batchErrors,
	}, nil
}

func (s *Service) acceptURL(token string) string {
	return fmt.Sprintf("%s/invites/accept?token=%s", s.appBaseURL, url.QueryEscape(token))
}

// newAcceptToken returns a random accept token and its stored digest.
func newAcceptToken() (plaintext string, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}
	plaintext = hex.EncodeToString(bytes)
	h := sha256.Sum256([]byte(plaintext))
	return plaintext, hex.EncodeToString(h[:]), nil
}

func hashToken(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// userMessage extracts the user-facing message from a typed error, falling
// back to a generic one so internals never leak into the batch outcome.
func userMessage(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal {
		return appErr.Message
	}
	return "초대 생성에 실패했습니다"
}
