package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

type classService interface {
	List(ctx context.Context, actor service.Actor) ([]models.ClassListItem, error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, actor service.Actor, req models.ClassRequest) (*models.Class, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.ClassRequest) (*models.Class, error)
	AssignSubjects(ctx context.Context, actor service.Actor, id string, req models.AssignSubjectsRequest) ([]models.ClassSubjectDetail, error)
	Subjects(ctx context.Context, actor service.Actor) ([]models.Subject, error)
	CreateSubject(ctx context.Context, actor service.Actor, req models.CreateSubjectRequest) (*models.Subject, error)
}

// ClassHandler manages classes, their subject allocations and the subject catalogue.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs the handler.
func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	classes, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Get godoc
// @Summary Class detail with roster and subjects
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create a class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.ClassRequest true "Class"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.ClassRequest
	if !bindJSON(c, &req, "invalid class payload") {
		return
	}
	class, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update a class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body models.ClassRequest true "Class"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.ClassRequest
	if !bindJSON(c, &req, "invalid class payload") {
		return
	}
	class, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// AssignSubjects godoc
// @Summary Allocate subjects and subject teachers to a class
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body models.AssignSubjectsRequest true "Allocations"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /classes/{id}/subjects [post]
func (h *ClassHandler) AssignSubjects(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.AssignSubjectsRequest
	if !bindJSON(c, &req, "invalid subject allocation payload") {
		return
	}
	subjects, err := h.service.AssignSubjects(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Subjects godoc
// @Summary List subjects
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *ClassHandler) Subjects(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	subjects, err := h.service.Subjects(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// CreateSubject godoc
// @Summary Create a subject
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateSubjectRequest true "Subject"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subjects [post]
func (h *ClassHandler) CreateSubject(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateSubjectRequest
	if !bindJSON(c, &req, "invalid subject payload") {
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}
