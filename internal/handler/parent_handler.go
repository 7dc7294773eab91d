package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/dto"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

type parentService interface {
	Home(ctx context.Context, actor service.Actor) (*dto.ParentHomeResponse, error)
	Child(ctx context.Context, actor service.Actor, studentID string) (*dto.ParentChildProfile, error)
	Results(ctx context.Context, actor service.Actor, studentID string) (*dto.ParentChildResults, error)
	Fees(ctx context.Context, actor service.Actor, studentID string) (*dto.ParentChildFees, error)
	Attendance(ctx context.Context, actor service.Actor, studentID string) (*dto.ParentChildAttendance, error)
}

// ParentHandler serves the parent portal.
type ParentHandler struct {
	service parentService
}

// NewParentHandler constructs the handler.
func NewParentHandler(svc parentService) *ParentHandler {
	return &ParentHandler{service: svc}
}

// Home godoc
// @Summary The caller's children with enrolment and balance
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /parent [get]
func (h *ParentHandler) Home(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	home, err := h.service.Home(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, home, nil)
}

// Child godoc
// @Summary Child profile
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /parent/children/{id} [get]
func (h *ParentHandler) Child(c *gin.Context) {
	h.serve(c, func(ctx context.Context, caller service.Actor, id string) (interface{}, error) {
		return h.service.Child(ctx, caller, id)
	})
}

// Results godoc
// @Summary Published terminal reports of a child
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /parent/children/{id}/results [get]
func (h *ParentHandler) Results(c *gin.Context) {
	h.serve(c, func(ctx context.Context, caller service.Actor, id string) (interface{}, error) {
		return h.service.Results(ctx, caller, id)
	})
}

// Fees godoc
// @Summary Invoices of a child
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /parent/children/{id}/fees [get]
func (h *ParentHandler) Fees(c *gin.Context) {
	h.serve(c, func(ctx context.Context, caller service.Actor, id string) (interface{}, error) {
		return h.service.Fees(ctx, caller, id)
	})
}

// Attendance godoc
// @Summary Recent attendance of a child
// @Tags Parent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /parent/children/{id}/attendance [get]
func (h *ParentHandler) Attendance(c *gin.Context) {
	h.serve(c, func(ctx context.Context, caller service.Actor, id string) (interface{}, error) {
		return h.service.Attendance(ctx, caller, id)
	})
}

func (h *ParentHandler) serve(c *gin.Context, load func(context.Context, service.Actor, string) (interface{}, error)) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	data, err := load(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}
