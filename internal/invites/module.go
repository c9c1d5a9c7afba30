// Package invites provides the bulk invitation bounded context module.
package invites

import (
	"invite_portal_backend/internal/email"
	"invite_portal_backend/internal/events"
	apphttp "invite_portal_backend/internal/http"
	"invite_portal_backend/internal/invites/handler"
	"invite_portal_backend/internal/invites/parser"
	"invite_portal_backend/internal/invites/progress"
	"invite_portal_backend/internal/invites/repository"
	"invite_portal_backend/internal/invites/service"
	"invite_portal_backend/internal/scheduler"
	"invite_portal_backend/internal/storage"
	"invite_portal_backend/platform/logger"
	"invite_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the invites bounded context module implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
	log           *logger.Logger
}

// Deps carries the infrastructure the invites module is wired with.
type Deps struct {
	Pool          *pgxpool.Pool
	EventBus      events.Bus
	EmailQueue    scheduler.EmailQueue
	Sender        email.Sender
	Archiver      storage.Archiver
	ProgressStore progress.Store
	Locker        service.Locker
	Validator     *validator.Validator
	AppBaseURL    string
	UploadMax     int64
	Logger        *logger.Logger
}

// NewModule creates and initializes the invites module.
func NewModule(deps Deps) *Module {
	repo := repository.New(deps.Pool)
	svc := service.NewService(
		repo,
		parser.New(deps.UploadMax),
		deps.Archiver,
		deps.ProgressStore,
		deps.EmailQueue,
		deps.Sender,
		deps.Locker,
		deps.EventBus,
		deps.AppBaseURL,
		deps.Logger,
	)

	return &Module{
		handler:       handler.New(svc, deps.Validator),
		publicHandler: handler.NewPublicHandler(svc, deps.Validator),
		service:       svc,
		log:           deps.Logger,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "invites"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts invite routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	invitesGroup := ctx.Protected.Group("/invites")

	var uploadLimit gin.HandlerFunc
	if ctx.UploadRateLimiter != nil {
		uploadLimit = ctx.UploadRateLimiter.RateLimit()
	}
	m.handler.RegisterRoutes(invitesGroup, uploadLimit)

	// Public route for invitees redeeming their token (no auth middleware)
	publicGroup := ctx.V1.Group("/public/invites")
	m.publicHandler.RegisterRoutes(publicGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
