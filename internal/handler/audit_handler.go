package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

type auditService interface {
	Recent(ctx context.Context, actor service.Actor, limit int) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc auditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// Recent godoc
// @Summary Latest audit trail entries for the school
// @Tags System
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries (max 200)" default(50)
// @Success 200 {object} response.Envelope
// @Router /system/audit-logs [get]
func (h *AuditHandler) Recent(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := h.service.Recent(c.Request.Context(), caller, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
