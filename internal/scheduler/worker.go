package scheduler

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"invite_portal_backend/internal/email"
	"invite_portal_backend/internal/invites/repository"
	"invite_portal_backend/platform/config"
	"invite_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// emailSendConcurrency bounds parallel sends within one batch so a large
// import does not exhaust the provider's connection limits.
const emailSendConcurrency = 5

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	repo       *repository.Repository
	sender     email.Sender
	appBaseURL string
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, appBaseURL string, pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		repo:       repository.New(pool),
		sender:     sender,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		log:        log,
	}

	mux.HandleFunc(TaskInviteBatchEmail, w.handleInviteBatchEmail)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleInviteBatchEmail sends every email in the batch. Each email retries
// internally with backoff; its outcome is recorded on the invitation row.
// Item failures never fail the task, that would redeliver the whole batch.
func (w *Worker) handleInviteBatchEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseInviteBatchEmailPayload(task)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(emailSendConcurrency)

	for _, item := range payload.Items {
		g.Go(func() error {
			w.sendInvite(ctx, item)
			return nil
		})
	}

	_ = g.Wait()

	w.log.Info("invite batch emails processed",
		"batch_id", payload.BatchID,
		"count", len(payload.Items),
	)
	return nil
}

func (w *Worker) sendInvite(ctx context.Context, item InviteEmailItem) {
	invitationID, err := uuid.Parse(item.InvitationID)
	if err != nil {
		w.log.Error("invalid invitation id in email task", "invitation_id", item.InvitationID, "error", err)
		return
	}

	acceptURL := w.acceptURL(item.Token)
	result := email.SendWithRetry(ctx, email.MaxSendAttempts, func(ctx context.Context) error {
		return w.sender.SendInviteEmail(ctx, item.Email, item.Name, item.OrganizationName, item.Role, acceptURL)
	})

	reason := ""
	if result.LastErr != nil {
		reason = result.LastErr.Error()
	}
	w.log.EmailEvent(item.Email, result.Attempts, result.Delivered, reason)

	if err := w.repo.RecordEmailResult(ctx, invitationID, result.Attempts, result.Delivered, reason); err != nil {
		w.log.DatabaseError("record email result", err)
	}
}

func (w *Worker) acceptURL(token string) string {
	return fmt.Sprintf("%s/invites/accept?token=%s", w.appBaseURL, url.QueryEscape(token))
}
