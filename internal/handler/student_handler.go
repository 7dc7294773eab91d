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

type studentService interface {
	List(ctx context.Context, actor service.Actor, filter models.StudentFilter) ([]models.StudentListItem, *models.Pagination, error)
	Search(ctx context.Context, actor service.Actor, q string, limit int) ([]models.StudentSearchResult, error)
	Create(ctx context.Context, actor service.Actor, req models.CreateStudentRequest) (*models.StudentDetail, error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.StudentDetail, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.UpdateStudentRequest) (*models.StudentDetail, error)
	Enroll(ctx context.Context, actor service.Actor, id string, req models.EnrollStudentRequest) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, actor service.Actor, id string, req models.UpdateStudentStatusRequest) error
	ManageParentAccount(ctx context.Context, actor service.Actor, studentID string, req models.ParentAccountRequest) (*models.ParentAccountView, error)
}

// StudentHandler exposes student records.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or student number"
// @Param status query string false "Status filter, all disables it" default(active)
// @Param class_id query string false "Class in the current academic year"
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(25)
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	filter := models.StudentFilter{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		ClassID:  c.Query("class_id"),
		Page:     page,
		PageSize: size,
	}
	students, pagination, err := h.service.List(c.Request.Context(), caller, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Search godoc
// @Summary Student autocomplete
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param q query string true "At least two characters"
// @Param limit query int false "Maximum results" default(10)
// @Success 200 {object} response.Envelope
// @Router /students/search [get]
func (h *StudentHandler) Search(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	results, err := h.service.Search(c.Request.Context(), caller, c.Query("q"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Create godoc
// @Summary Admit a student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateStudentRequest true "Admission form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateStudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	detail, err := h.service.Create(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Get godoc
// @Summary Student detail
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
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

// Update godoc
// @Summary Update a student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.UpdateStudentRequest true "Student fields"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpdateStudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	detail, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Enroll godoc
// @Summary Enrol a student for the current academic year
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.EnrollStudentRequest true "Class"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enroll [post]
func (h *StudentHandler) Enroll(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.EnrollStudentRequest
	if !bindJSON(c, &req, "invalid enrolment payload") {
		return
	}
	enrollment, err := h.service.Enroll(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// UpdateStatus godoc
// @Summary Change a student's status
// @Tags Students
// @Accept json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.UpdateStudentStatusRequest true "Status"
// @Success 204
// @Router /students/{id}/status [post]
func (h *StudentHandler) UpdateStatus(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpdateStudentStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), caller, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ParentAccount godoc
// @Summary Manage the parent login of a student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.ParentAccountRequest true "Action"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/parent-account [post]
func (h *StudentHandler) ParentAccount(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.ParentAccountRequest
	if !bindJSON(c, &req, "invalid parent account payload") {
		return
	}
	view, err := h.service.ManageParentAccount(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
