// Package handler exposes the invites HTTP API.
package handler

import (
	"io"
	"net/http"

	"invite_portal_backend/internal/invites/service"
	"invite_portal_backend/internal/invites/transport"
	"invite_portal_backend/platform/httpkit"
	"invite_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handler handles authenticated invitation requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates the invites handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers invitation routes. uploadLimit guards the
// spreadsheet import endpoint.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, uploadLimit gin.HandlerFunc) {
	if uploadLimit != nil {
		rg.POST("/import", uploadLimit, h.Import)
	} else {
		rg.POST("/import", h.Import)
	}
	rg.POST("/bulk", h.BulkInvite)
	rg.GET("", h.List)
	rg.GET("/template", h.Template)
	rg.GET("/batches/:id", h.GetBatch)
	rg.GET("/batches/:id/progress", h.Progress)
	rg.POST("/:id/resend", h.Resend)
}

// Import parses an uploaded spreadsheet and returns candidates plus row
// errors without dispatching anything.
func (h *Handler) Import(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := mustGetTenantID(c, identity)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	// reject oversized uploads before buffering the body
	if err := h.svc.CheckUploadSize(fileHeader.Size); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	outcome, err := h.svc.ImportPreview(c.Request.Context(), tenantID, fileHeader.Filename, contentType, data)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewImportPreviewResponse(outcome))
}

// BulkInvite dispatches a batch of candidate invitations.
func (h *Handler) BulkInvite(c *gin.Context) {
	var req transport.BulkInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := mustGetTenantID(c, identity)
	if !ok {
		return
	}

	outcome, err := h.svc.Dispatch(c.Request.Context(), tenantID, identity.UserID(), req.Rows())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.NewBatchOutcomeResponse(outcome))
}

// Progress returns the live progress snapshot for a batch.
func (h *Handler) Progress(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	state, err := h.svc.Progress(c.Request.Context(), batchID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, state)
}

// GetBatch returns the persisted outcome of a batch.
func (h *Handler) GetBatch(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := mustGetTenantID(c, identity)
	if !ok {
		return
	}

	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	batch, err := h.svc.GetBatch(c.Request.Context(), batchID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewBatchResponse(batch))
}

// List returns a page of the tenant's invitations.
func (h *Handler) List(c *gin.Context) {
	var req transport.ListInvitationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := mustGetTenantID(c, identity)
	if !ok {
		return
	}

	page, err := h.svc.List(c.Request.Context(), tenantID, req.Status, req.Page, req.PageSize)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.NewListInvitationsResponse(page))
}

// Resend re-delivers one invitation email.
func (h *Handler) Resend(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	tenantID, ok := mustGetTenantID(c, identity)
	if !ok {
		return
	}

	invitationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	outcome, err := h.svc.Resend(c.Request.Context(), invitationID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ResendResponse{
		Email:     outcome.Email,
		Attempts:  outcome.Attempts,
		Delivered: outcome.Delivered,
	})
}

// Template serves the XLSX import template.
func (h *Handler) Template(c *gin.Context) {
	data, err := h.svc.Template()
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+service.TemplateFileName+`"`)
	c.Data(http.StatusOK, contentTypeXLSX, data)
}

func mustGetTenantID(c *gin.Context, identity httpkit.Identity) (uuid.UUID, bool) {
	if tenantID := identity.TenantID(); tenantID != nil {
		return *tenantID, true
	}
	httpkit.Error(c, http.StatusForbidden, "organization context required", nil)
	return uuid.Nil, false
}
