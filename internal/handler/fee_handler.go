package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

type feeService interface {
	Categories(ctx context.Context, actor service.Actor) ([]models.FeeCategory, error)
	CreateCategory(ctx context.Context, actor service.Actor, req models.CreateFeeCategoryRequest) (*models.FeeCategory, error)
	Structures(ctx context.Context, actor service.Actor, classID string) ([]models.FeeStructure, error)
	CreateStructure(ctx context.Context, actor service.Actor, req models.CreateFeeStructureRequest) (*models.FeeStructure, error)
	GenerateInvoices(ctx context.Context, actor service.Actor, req models.GenerateInvoicesRequest) (*models.GenerateInvoicesResult, error)
	Invoices(ctx context.Context, actor service.Actor, page, pageSize int) ([]models.FeeInvoiceListItem, models.FeeTotals, *models.Pagination, error)
	Invoice(ctx context.Context, actor service.Actor, id string) (*models.InvoiceDetail, error)
	InvoicePDF(ctx context.Context, actor service.Actor, id string) (*service.Download, error)
	RecordPayment(ctx context.Context, actor service.Actor, req models.RecordPaymentRequest) (*models.Payment, *models.FeeInvoice, error)
	Payments(ctx context.Context, actor service.Actor, page, pageSize int) ([]models.PaymentListItem, *models.Pagination, error)
	Debtors(ctx context.Context, actor service.Actor) (*models.DebtorReport, error)
	DebtorsExport(ctx context.Context, actor service.Actor, format string) (*service.Download, error)
}

// FeeHandler serves billing, payments and debtor reports.
type FeeHandler struct {
	service feeService
}

// NewFeeHandler constructs the handler.
func NewFeeHandler(svc feeService) *FeeHandler {
	return &FeeHandler{service: svc}
}

// Categories godoc
// @Summary List fee categories
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /fees/categories [get]
func (h *FeeHandler) Categories(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	categories, err := h.service.Categories(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// CreateCategory godoc
// @Summary Create a fee category
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateFeeCategoryRequest true "Category"
// @Success 201 {object} response.Envelope
// @Router /fees/categories [post]
func (h *FeeHandler) CreateCategory(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateFeeCategoryRequest
	if !bindJSON(c, &req, "invalid fee category payload") {
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// Structures godoc
// @Summary Fee structures for the current academic year
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param class_id query string false "Class"
// @Success 200 {object} response.Envelope
// @Router /fees/structures [get]
func (h *FeeHandler) Structures(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	structures, err := h.service.Structures(c.Request.Context(), caller, c.Query("class_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, structures, nil)
}

// CreateStructure godoc
// @Summary Set a class's charge for a fee category
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateFeeStructureRequest true "Structure"
// @Success 201 {object} response.Envelope
// @Router /fees/structures [post]
func (h *FeeHandler) CreateStructure(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.CreateFeeStructureRequest
	if !bindJSON(c, &req, "invalid fee structure payload") {
		return
	}
	structure, err := h.service.CreateStructure(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, structure)
}

// GenerateInvoices godoc
// @Summary Bill a class for the current term
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.GenerateInvoicesRequest true "Class"
// @Success 200 {object} response.Envelope
// @Router /fees/invoices/generate [post]
func (h *FeeHandler) GenerateInvoices(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.GenerateInvoicesRequest
	if !bindJSON(c, &req, "invalid invoice generation payload") {
		return
	}
	result, err := h.service.GenerateInvoices(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Invoices godoc
// @Summary Current term invoices with totals
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Success 200 {object} response.Envelope
// @Router /fees/invoices [get]
func (h *FeeHandler) Invoices(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	invoices, totals, pagination, err := h.service.Invoices(c.Request.Context(), caller, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, pagination, map[string]interface{}{"totals": totals})
}

// Invoice godoc
// @Summary Invoice with items and payments
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Envelope
// @Router /fees/invoices/{id} [get]
func (h *FeeHandler) Invoice(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	detail, err := h.service.Invoice(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// InvoicePDF godoc
// @Summary Invoice as PDF
// @Tags Fees
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {file} binary
// @Router /fees/invoices/{id}/pdf [get]
func (h *FeeHandler) InvoicePDF(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	download, err := h.service.InvoicePDF(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendDownload(c, download)
}

// RecordPayment godoc
// @Summary Record a fee payment against an invoice
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.RecordPaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /fees/payments [post]
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	var req models.RecordPaymentRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	payment, invoice, err := h.service.RecordPayment(c.Request.Context(), caller, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"payment": payment, "invoice": invoice})
}

// Payments godoc
// @Summary Payments, newest first
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Success 200 {object} response.Envelope
// @Router /fees/payments [get]
func (h *FeeHandler) Payments(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	page, size := pageParams(c)
	payments, pagination, err := h.service.Payments(c.Request.Context(), caller, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// Debtors godoc
// @Summary Outstanding balances for the current term
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /fees/debtors [get]
func (h *FeeHandler) Debtors(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}
	if format := c.Query("format"); format != "" {
		download, err := h.service.DebtorsExport(c.Request.Context(), caller, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		sendDownload(c, download)
		return
	}
	report, err := h.service.Debtors(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
