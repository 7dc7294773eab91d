package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/grading"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

type assessmentService interface {
	ClassSubjects(ctx context.Context, actor service.Actor) ([]models.ClassSubjectDetail, error)
	ClassSubjectsForClass(ctx context.Context, actor service.Actor, classID string) ([]models.ClassSubjectDetail, error)
	EntrySheet(ctx context.Context, actor service.Actor, classSubjectID string) (*models.EntrySheet, error)
	SaveScores(ctx context.Context, actor service.Actor, req models.SaveScoresRequest) (*models.SaveScoresResult, error)
	CalculateGrade(req models.CalculateGradeRequest) grading.Result
	Scale(level string) models.GradingScale
	ClassMatrix(ctx context.Context, actor service.Actor, classID string) (*models.ClassMatrix, error)
	StudentSummary(ctx context.Context, actor service.Actor, studentID string) (*models.StudentTermSummary, error)
}

// AssessmentHandler serves score entry and grading.
type AssessmentHandler struct {
	service assessmentService
}

// NewAssessmentHandler constructs the handler.
func NewAssessmentHandler(svc assessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: svc}
}

// ClassSubjects godoc
// @Summary Class subjects available for score entry
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assessments [get]
func (h *AssessmentHandler) ClassSubjects(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	subjects, err := h.service.ClassSubjects(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// ClassSubjectsForClass godoc
// @Summary Subjects of a class in the current academic year
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/subjects [get]
func (h *AssessmentHandler) ClassSubjectsForClass(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	subjects, err := h.service.ClassSubjectsForClass(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// EntrySheet godoc
// @Summary Score entry sheet for a class subject
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param classSubjectId path string true "Class subject ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /assessments/entry/{classSubjectId} [get]
func (h *AssessmentHandler) EntrySheet(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	sheet, err := h.service.EntrySheet(c.Request.Context(), caller, c.Param("classSubjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// SaveScores godoc
// @Summary Save continuous assessment and exam scores
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SaveScoresRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assessments/save [post]
func (h *AssessmentHandler) SaveScores(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.SaveScoresRequest
	if !bindJSON(c, &req, "invalid scores payload") {
		return
	}
	result, err := h.service.SaveScores(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CalculateGrade godoc
// @Summary Preview the total and grade for a set of scores
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CalculateGradeRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Router /assessments/calculate-grade [post]
func (h *AssessmentHandler) CalculateGrade(c *gin.Context) {
	var req models.CalculateGradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	response.JSON(c, http.StatusOK, h.service.CalculateGrade(req), nil)
}

// Scale godoc
// @Summary Grading bands for a school level
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param level query string false "PRIMARY, JHS or SHS" default(PRIMARY)
// @Success 200 {object} response.Envelope
// @Router /assessments/scale [get]
func (h *AssessmentHandler) Scale(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Scale(c.Query("level")), nil)
}

// ClassMatrix godoc
// @Summary Student by subject assessment matrix
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/class/{classId} [get]
func (h *AssessmentHandler) ClassMatrix(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	matrix, err := h.service.ClassMatrix(c.Request.Context(), caller, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix, nil)
}

// StudentSummary godoc
// @Summary A student's assessments for the current term
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/student/{studentId} [get]
func (h *AssessmentHandler) StudentSummary(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	summary, err := h.service.StudentSummary(c.Request.Context(), caller, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
