package handler

import (
	"net/http"

	"invite_portal_backend/internal/invites/service"
	"invite_portal_backend/internal/invites/transport"
	"invite_portal_backend/platform/httpkit"
	"invite_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// PublicHandler handles unauthenticated invitee-facing requests.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
}

// NewPublicHandler creates the public invites handler.
func NewPublicHandler(svc *service.Service, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, val: val}
}

// RegisterRoutes registers public invite routes.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/accept", h.Accept)
}

// Accept redeems an invitation token.
func (h *PublicHandler) Accept(c *gin.Context) {
	var req transport.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	inv, err := h.svc.Accept(c.Request.Context(), req.Token)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.AcceptInviteResponse{
		Email: inv.Email,
		Name:  inv.Name,
		Role:  inv.Role,
	})
}
