package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

type reportService interface {
	Summaries(ctx context.Context, actor service.Actor) ([]models.ClassSummary, error)
	Generate(ctx context.Context, actor service.Actor, classID string) (*models.GenerateReportsResult, error)
	Publish(ctx context.Context, actor service.Actor, classID string) (*models.PublishReportsResult, error)
	ReportCard(ctx context.Context, actor service.Actor, studentID, termID string) (*models.ReportCard, error)
	ReportCardPDF(ctx context.Context, actor service.Actor, studentID, termID string) (*service.Download, error)
	Broadsheet(ctx context.Context, actor service.Actor, classID string) (*models.Broadsheet, error)
	BroadsheetExport(ctx context.Context, actor service.Actor, classID, format string) (*service.Download, error)
}

// ReportHandler serves terminal reports and broadsheets.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Summaries godoc
// @Summary Report generation status per class
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/terminal [get]
func (h *ReportHandler) Summaries(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	summaries, err := h.service.Summaries(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Generate godoc
// @Summary Generate terminal reports for a class
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/terminal/{classId}/generate [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	result, err := h.service.Generate(c.Request.Context(), caller, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Publish godoc
// @Summary Publish a class's terminal reports to parents
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/terminal/{classId}/publish [post]
func (h *ReportHandler) Publish(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	result, err := h.service.Publish(c.Request.Context(), caller, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ReportCard godoc
// @Summary Terminal report card
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/terminal/{studentId}/{termId} [get]
func (h *ReportHandler) ReportCard(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	card, err := h.service.ReportCard(c.Request.Context(), caller, c.Param("studentId"), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// ReportCardPDF godoc
// @Summary Terminal report card as PDF
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param termId path string true "Term ID"
// @Success 200 {file} binary
// @Router /reports/terminal/{studentId}/{termId}/pdf [get]
func (h *ReportHandler) ReportCardPDF(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	download, err := h.service.ReportCardPDF(c.Request.Context(), caller, c.Param("studentId"), c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendDownload(c, download)
}

// Broadsheet godoc
// @Summary Class broadsheet for the current term
// @Description Without format the broadsheet is returned as JSON; csv and pdf return a file
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /reports/broadsheet/{classId} [get]
func (h *ReportHandler) Broadsheet(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	if format := c.Query("format"); format != "" {
		download, err := h.service.BroadsheetExport(c.Request.Context(), caller, c.Param("classId"), format)
		if err != nil {
			response.Error(c, err)
			return
		}
		sendDownload(c, download)
		return
	}
	sheet, err := h.service.Broadsheet(c.Request.Context(), caller, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}
