package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

type staffService interface {
	List(ctx context.Context, actor service.Actor, filter models.StaffFilter) ([]models.StaffListItem, *models.Pagination, error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.StaffDetail, error)
	Create(ctx context.Context, actor service.Actor, req models.CreateStaffRequest) (*models.StaffDetail, error)
	Update(ctx context.Context, actor service.Actor, id string, req models.UpdateStaffRequest) (*models.StaffDetail, error)
	ToggleStatus(ctx context.Context, actor service.Actor, id string) (*models.StaffDetail, error)
	Departments(ctx context.Context, actor service.Actor) ([]models.Department, error)
	CreateDepartment(ctx context.Context, actor service.Actor, req models.CreateDepartmentRequest) (*models.Department, error)
}

// StaffHandler exposes staff records and departments.
type StaffHandler struct {
	service staffService
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(svc staffService) *StaffHandler {
	return &StaffHandler{service: svc}
}

// List godoc
// @Summary List staff
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or staff number"
// @Param department_id query string false "Department"
// @Param page query int false "Page" default(1)
// @Success 200 {object} response.Envelope
// @Router /staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	staff, pagination, err := h.service.List(c.Request.Context(), caller, models.StaffFilter{
		Search:       c.Query("search"),
		DepartmentID: c.Query("department_id"),
		Page:         page,
		PageSize:     size,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, pagination)
}

// Create godoc
// @Summary Register a staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateStaffRequest true "Staff"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /staff [post]
func (h *StaffHandler) Create(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateStaffRequest
	if !bindJSON(c, &req, "invalid staff payload") {
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
// @Summary Staff detail
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id} [get]
func (h *StaffHandler) Get(c *gin.Context) {
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
// @Summary Update a staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Param payload body models.UpdateStaffRequest true "Staff"
// @Success 200 {object} response.Envelope
// @Router /staff/{id} [put]
func (h *StaffHandler) Update(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpdateStaffRequest
	if !bindJSON(c, &req, "invalid staff payload") {
		return
	}
	detail, err := h.service.Update(c.Request.Context(), caller, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ToggleStatus godoc
// @Summary Activate or deactivate a staff member and their login
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param id path string true "Staff ID"
// @Success 200 {object} response.Envelope
// @Router /staff/{id}/toggle-status [post]
func (h *StaffHandler) ToggleStatus(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	detail, err := h.service.ToggleStatus(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Departments godoc
// @Summary List departments
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *StaffHandler) Departments(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	departments, err := h.service.Departments(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// CreateDepartment godoc
// @Summary Create a department
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateDepartmentRequest true "Department"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *StaffHandler) CreateDepartment(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateDepartmentRequest
	if !bindJSON(c, &req, "invalid department payload") {
		return
	}
	department, err := h.service.CreateDepartment(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department)
}
