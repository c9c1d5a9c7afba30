package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"invite_portal_backend/internal/email"
	"invite_portal_backend/internal/invites/parser"
	"invite_portal_backend/internal/invites/progress"
	"invite_portal_backend/internal/invites/repository"
	"invite_portal_backend/internal/invites/service"
	"invite_portal_backend/platform/events"
	"invite_portal_backend/platform/httpkit"
	"invite_portal_backend/platform/logger"
	"invite_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type noopStore struct{}

func (noopStore) CreateBatch(context.Context, *repository.Batch) error { return nil }
func (noopStore) FinalizeBatch(context.Context, uuid.UUID, uuid.UUID, int, int, []repository.BatchError) error {
	return nil
}
func (noopStore) GetBatch(context.Context, uuid.UUID, uuid.UUID) (*repository.Batch, error) {
	return nil, nil
}
func (noopStore) CreateInvitation(context.Context, *repository.Invitation) error { return nil }
func (noopStore) GetInvitation(context.Context, uuid.UUID, uuid.UUID) (*repository.Invitation, error) {
	return nil, nil
}
func (noopStore) GetInvitationByTokenHash(context.Context, string) (*repository.Invitation, error) {
	return nil, nil
}
func (noopStore) List(context.Context, uuid.UUID, string, int, int) ([]repository.Invitation, int, error) {
	return nil, 0, nil
}
func (noopStore) RecordEmailResult(context.Context, uuid.UUID, int, bool, string) error { return nil }
func (noopStore) RotateToken(context.Context, uuid.UUID, string) error                  { return nil }
func (noopStore) MarkAccepted(context.Context, uuid.UUID) error                         { return nil }

func newTestRouter(t *testing.T, maxUpload int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.New("test")
	svc := service.NewService(
		noopStore{},
		parser.New(maxUpload),
		nil,
		progress.NewMemoryStore(),
		nil,
		email.NoopSender{},
		nil,
		events.NewInMemoryBus(log),
		"https://portal.example.com",
		log,
	)
	h := New(svc, validator.New())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextTenantIDKey, uuid.New())
	})
	h.RegisterRoutes(r.Group("/invites"), nil)
	return r
}

func uploadRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "invites.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/invites/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestImportRejectsOversizedUploadBeforeParsing(t *testing.T) {
	r := newTestRouter(t, 16)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, bytes.Repeat([]byte("a"), 64)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestImportPreviewSurfacesDuplicateRows(t *testing.T) {
	r := newTestRouter(t, 5<<20)

	csv := "email,name,phone,role\n" +
		"a@x.com,김철수,01012345678,expert\n" +
		"A@X.com,이영희,01098765432,expert\n"

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, []byte(csv)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "중복된 이메일 주소입니다") {
		t.Fatalf("expected duplicate error in preview, got %s", rec.Body.String())
	}
}
