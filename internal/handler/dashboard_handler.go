package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/dto"
	"github.com/nacca-sms/nacca-sms-api/internal/middleware"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

type dashboardService interface {
	Get(ctx context.Context, actor service.Actor) (*dto.DashboardResponse, bool, error)
}

// DashboardHandler exposes the role specific dashboards.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get godoc
// @Summary Dashboard for the caller's role
// @Description Headteachers get the school overview, accounts officers the fee position, teachers their classes
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	summary, cacheHit, err := h.service.Get(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}
