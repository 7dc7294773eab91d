package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

type attendanceService interface {
	Register(ctx context.Context, actor service.Actor, classID, date string) (*models.AttendanceRegister, error)
	Record(ctx context.Context, actor service.Actor, classID string, req models.RecordAttendanceRequest) (int, error)
}

// AttendanceHandler serves the daily class register.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Register godoc
// @Summary Class register for a day
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /attendance/{classId} [get]
func (h *AttendanceHandler) Register(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	register, err := h.service.Register(c.Request.Context(), caller, c.Param("classId"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, register, nil)
}

// Record godoc
// @Summary Record the class register for a day
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param payload body models.RecordAttendanceRequest true "Marks"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/{classId} [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.RecordAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	saved, err := h.service.Record(c.Request.Context(), caller, c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved_count": saved}, nil)
}
