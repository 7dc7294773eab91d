package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/export"
)

type feeRepository interface {
	ListCategories(ctx context.Context, schoolID string) ([]models.FeeCategory, error)
	CreateCategory(ctx context.Context, category *models.FeeCategory) error
	ListStructures(ctx context.Context, schoolID, academicYearID, classID string) ([]models.FeeStructure, error)
	CreateStructure(ctx context.Context, structure *models.FeeStructure) error
	InvoicedStudents(ctx context.Context, termID string, studentIDs []string) (map[string]bool, error)
	CreateInvoices(ctx context.Context, drafts []models.InvoiceDraft, number func(seq int) string) error
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.FeeInvoiceListItem, int, error)
	Totals(ctx context.Context, schoolID, termID string) (models.FeeTotals, error)
	Debtors(ctx context.Context, schoolID, termID string, limit int) ([]models.FeeInvoiceListItem, error)
	FindInvoice(ctx context.Context, id string) (*models.FeeInvoiceListItem, error)
	ListItems(ctx context.Context, invoiceID string) ([]models.FeeInvoiceItem, error)
	ListInvoicePayments(ctx context.Context, invoiceID string) ([]models.Payment, error)
	RecordPayment(ctx context.Context, invoiceID string, apply func(invoice *models.FeeInvoice, receiptSeq int) (*models.Payment, error)) (*models.Payment, *models.FeeInvoice, error)
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentListItem, int, error)
}

type paymentRecorder interface {
	RecordPayment(amount float64)
}

type invoiceRenderer interface {
	Invoice(doc export.InvoiceDocument) ([]byte, error)
}

// FeeServiceDeps groups the collaborators of FeeService.
type FeeServiceDeps struct {
	Fees        feeRepository
	Classes     classLookup
	Rosters     rosterRepository
	Enrollments currentEnrollmentLookup
	Periods     periodProvider
	Metrics     paymentRecorder
	Dashboards  dashboardInvalidator
	Documents   invoiceRenderer
	CSV         csvRenderer
	PDF         tablePDFRenderer
	Branding    Branding
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// FeeService manages fee setup, invoicing and payment collection.
type FeeService struct {
	deps      FeeServiceDeps
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFeeService constructs the fee service.
func NewFeeService(deps FeeServiceDeps) *FeeService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Documents == nil {
		deps.Documents = export.NewDocumentRenderer()
	}
	if deps.CSV == nil {
		deps.CSV = export.NewCSVExporter()
	}
	if deps.PDF == nil {
		deps.PDF = export.NewPDFExporter()
	}
	return &FeeService{deps: deps, validator: deps.Validator, logger: deps.Logger, now: time.Now}
}

// Categories lists the school's active fee categories.
func (s *FeeService) Categories(ctx context.Context, actor Actor) ([]models.FeeCategory, error) {
	categories, err := s.deps.Fees.ListCategories(ctx, actor.SchoolID)
	if err != nil {
		return nil, internalError(err, "failed to list fee categories")
	}
	return categories, nil
}

// CreateCategory registers a fee category.
func (s *FeeService) CreateCategory(ctx context.Context, actor Actor, req models.CreateFeeCategoryRequest) (*models.FeeCategory, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid fee category payload")
	}
	category := &models.FeeCategory{
		SchoolID:    actor.SchoolID,
		Name:        req.Name,
		Description: trimmed(req.Description),
		IsRecurring: req.IsRecurring,
		Active:      true,
	}
	if err := s.deps.Fees.CreateCategory(ctx, category); err != nil {
		return nil, internalError(err, "failed to create fee category")
	}
	return category, nil
}

// Structures lists the current year's class charges, optionally for one class.
func (s *FeeService) Structures(ctx context.Context, actor Actor, classID string) ([]models.FeeStructure, error) {
	period, err := s.deps.Periods.Current(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	structures, err := s.deps.Fees.ListStructures(ctx, actor.SchoolID, period.Year.ID, classID)
	if err != nil {
		return nil, internalError(err, "failed to list fee structures")
	}
	return structures, nil
}

// CreateStructure sets what a class pays for a category in the current year.
func (s *FeeService) CreateStructure(ctx context.Context, actor Actor, req models.CreateFeeStructureRequest) (*models.FeeStructure, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid fee structure payload")
	}
	if _, err := s.schoolClass(ctx, actor, req.ClassID); err != nil {
		return nil, err
	}
	period, err := s.deps.Periods.Current(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	structure := &models.FeeStructure{
		SchoolID:       actor.SchoolID,
		ClassID:        req.ClassID,
		AcademicYearID: period.Year.ID,
		FeeCategoryID:  req.FeeCategoryID,
		Amount:         roundTo(req.Amount, 2),
		TermApplicable: req.TermApplicable,
	}
	if err := s.deps.Fees.CreateStructure(ctx, structure); err != nil {
		return nil, internalError(err, "failed to create fee structure")
	}
	return structure, nil
}

// GenerateInvoices bills every enrolled student of the class for the current
// term from the class's fee structures. Students already invoiced are skipped.
func (s *FeeService) GenerateInvoices(ctx context.Context, actor Actor, req models.GenerateInvoicesRequest) (*models.GenerateInvoicesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid invoice request")
	}
	if _, err := s.schoolClass(ctx, actor, req.ClassID); err != nil {
		return nil, err
	}
	period, err := s.deps.Periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	structures, err := s.deps.Fees.ListStructures(ctx, actor.SchoolID, period.Year.ID, req.ClassID)
	if err != nil {
		return nil, internalError(err, "failed to list fee structures")
	}
	var charges []models.FeeStructure
	for _, structure := range structures {
		if structure.AppliesTo(period.Term.TermNumber) {
			charges = append(charges, structure)
		}
	}
	if len(charges) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fee structure applies to this class for the current term")
	}
	roster, err := s.deps.Rosters.Roster(ctx, req.ClassID, period.Year.ID)
	if err != nil {
		return nil, internalError(err, "failed to load class roster")
	}
	ids := make([]string, 0, len(roster))
	for _, student := range roster {
		ids = append(ids, student.StudentID)
	}
	invoiced, err := s.deps.Fees.InvoicedStudents(ctx, period.Term.ID, ids)
	if err != nil {
		return nil, internalError(err, "failed to check existing invoices")
	}

	now := s.now().UTC()
	result := &models.GenerateInvoicesResult{}
	drafts := make([]models.InvoiceDraft, 0, len(roster))
	for _, student := range roster {
		if invoiced[student.StudentID] {
			result.SkippedCount++
			continue
		}
		draft := models.InvoiceDraft{Invoice: models.FeeInvoice{
			StudentID: student.StudentID,
			TermID:    period.Term.ID,
			IssueDate: now,
			DueDate:   req.DueDate,
			Status:    models.PaymentStatusPending,
		}}
		for _, charge := range charges {
			categoryID := charge.FeeCategoryID
			draft.Items = append(draft.Items, models.FeeInvoiceItem{
				FeeCategoryID: &categoryID,
				Description:   charge.CategoryName,
				Amount:        charge.Amount,
			})
			draft.Invoice.TotalAmount += charge.Amount
		}
		draft.Invoice.TotalAmount = roundTo(draft.Invoice.TotalAmount, 2)
		draft.Invoice.Balance = draft.Invoice.TotalAmount
		drafts = append(drafts, draft)
	}
	if len(drafts) > 0 {
		date := now.Format("20060102")
		if err := s.deps.Fees.CreateInvoices(ctx, drafts, func(seq int) string {
			return fmt.Sprintf("INV-%s-%04d", date, seq)
		}); err != nil {
			return nil, internalError(err, "failed to create invoices")
		}
		s.invalidate(ctx, actor.SchoolID)
	}
	result.CreatedCount = len(drafts)
	s.logger.Info("invoices generated",
		zap.String("class_id", req.ClassID),
		zap.Int("created", result.CreatedCount),
		zap.Int("skipped", result.SkippedCount),
	)
	return result, nil
}

// Invoices returns a page of the current term's invoices with the term totals.
func (s *FeeService) Invoices(ctx context.Context, actor Actor, page, pageSize int) ([]models.FeeInvoiceListItem, models.FeeTotals, *models.Pagination, error) {
	var totals models.FeeTotals
	period, err := s.deps.Periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, totals, nil, err
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	invoices, total, err := s.deps.Fees.ListInvoices(ctx, models.InvoiceFilter{
		SchoolID: actor.SchoolID,
		TermID:   period.Term.ID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, totals, nil, internalError(err, "failed to list invoices")
	}
	totals, err = s.deps.Fees.Totals(ctx, actor.SchoolID, period.Term.ID)
	if err != nil {
		return nil, totals, nil, internalError(err, "failed to load fee totals")
	}
	return invoices, totals, models.NewPagination(page, pageSize, total), nil
}

// Invoice returns an invoice with its lines and payments. Parents may only
// read invoices of their own children.
func (s *FeeService) Invoice(ctx context.Context, actor Actor, id string) (*models.InvoiceDetail, error) {
	invoice, err := s.deps.Fees.FindInvoice(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "invoice not found", "failed to load invoice")
	}
	if invoice.StudentSchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
	}
	if actor.IsParent() && (invoice.StudentParentID == nil || *invoice.StudentParentID != actor.ParentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only view invoices of your own children")
	}
	items, err := s.deps.Fees.ListItems(ctx, id)
	if err != nil {
		return nil, internalError(err, "failed to load invoice items")
	}
	payments, err := s.deps.Fees.ListInvoicePayments(ctx, id)
	if err != nil {
		return nil, internalError(err, "failed to load invoice payments")
	}
	return &models.InvoiceDetail{Invoice: *invoice, Items: items, Payments: payments}, nil
}

// InvoicePDF renders an invoice with its payment history.
func (s *FeeService) InvoicePDF(ctx context.Context, actor Actor, id string) (*Download, error) {
	detail, err := s.Invoice(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	school, err := s.deps.Periods.School(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	invoice := detail.Invoice
	doc := export.InvoiceDocument{
		School:        schoolHeader(*school, s.deps.Branding),
		InvoiceNumber: invoice.InvoiceNumber,
		IssuedOn:      invoice.IssueDate.Format(dateLayout),
		StudentName:   invoice.StudentName,
		StudentNumber: invoice.StudentNumber,
		ClassName:     s.className(ctx, actor.SchoolID, invoice),
		Term:          invoice.TermName,
		Total:         invoice.TotalAmount,
		Discount:      invoice.DiscountAmount,
		Paid:          invoice.AmountPaid,
		Balance:       invoice.Balance,
		Status:        string(invoice.Status),
	}
	if invoice.DueDate != nil {
		doc.DueOn = invoice.DueDate.Format(dateLayout)
	}
	for _, item := range detail.Items {
		doc.Lines = append(doc.Lines, export.InvoiceLine{Description: item.Description, Amount: item.Amount})
	}
	for _, payment := range detail.Payments {
		doc.Payments = append(doc.Payments, export.InvoicePayment{
			Date:          payment.PaymentDate.Format(dateLayout),
			ReceiptNumber: payment.ReceiptNumber,
			Method:        string(payment.PaymentMethod),
			Amount:        payment.Amount,
		})
	}
	data, err := s.deps.Documents.Invoice(doc)
	if err != nil {
		return nil, internalError(err, "failed to render invoice")
	}
	return &Download{
		Filename:    export.Filename("invoice_"+invoice.InvoiceNumber, FormatPDF, s.now().UTC()),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// className resolves the class the student was in during the invoice's year.
// Missing enrolments print as blank.
func (s *FeeService) className(ctx context.Context, schoolID string, invoice models.FeeInvoiceListItem) string {
	if s.deps.Enrollments == nil {
		return ""
	}
	term, err := s.deps.Periods.Term(ctx, schoolID, invoice.TermID)
	if err != nil {
		return ""
	}
	enrollment, err := s.deps.Enrollments.FindCurrent(ctx, invoice.StudentID, term.AcademicYearID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("invoice enrolment lookup failed", zap.String("invoice_id", invoice.ID), zap.Error(err))
		}
		return ""
	}
	return enrollment.ClassName
}

// RecordPayment posts a payment against an invoice. The amount must be positive
// and no more than the outstanding balance.
func (s *FeeService) RecordPayment(ctx context.Context, actor Actor, req models.RecordPaymentRequest) (*models.Payment, *models.FeeInvoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, validationError(err, "invalid payment payload")
	}
	existing, err := s.deps.Fees.FindInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, nil, notFoundOr(err, "invoice not found", "failed to load invoice")
	}
	if existing.StudentSchoolID != actor.SchoolID {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
	}

	now := s.now().UTC()
	amount := roundTo(req.Amount, 2)
	payment, invoice, err := s.deps.Fees.RecordPayment(ctx, req.InvoiceID, func(invoice *models.FeeInvoice, receiptSeq int) (*models.Payment, error) {
		if amount <= 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "payment amount must be greater than zero")
		}
		if amount > invoice.Balance {
			return nil, appErrors.Clone(appErrors.ErrPaymentExceedsBalance, "")
		}
		applyPayment(invoice, amount)
		payment := &models.Payment{
			ReceiptNumber:        ReceiptNumber(now, receiptSeq),
			Amount:               amount,
			PaymentMethod:        req.PaymentMethod,
			PaymentDate:          now,
			TransactionReference: trimmed(req.TransactionReference),
			PayerName:            trimmed(req.PayerName),
			PayerPhone:           trimmed(req.PayerPhone),
			Status:               models.PaymentStatusCompleted,
			Notes:                trimmed(req.Notes),
		}
		if actor.UserID != "" {
			receivedBy := actor.UserID
			payment.ReceivedByID = &receivedBy
		}
		return payment, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, nil, err
		}
		return nil, nil, internalError(err, "failed to record payment")
	}

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordPayment(payment.Amount)
	}
	s.invalidate(ctx, actor.SchoolID)
	s.logger.Info("payment recorded",
		zap.String("receipt_number", payment.ReceiptNumber),
		zap.String("invoice_id", invoice.ID),
		zap.Float64("amount", payment.Amount),
		zap.String("status", string(invoice.Status)),
	)
	return payment, invoice, nil
}

// applyPayment adds amount to the invoice and settles its balance and status.
func applyPayment(invoice *models.FeeInvoice, amount float64) {
	invoice.AmountPaid = roundTo(invoice.AmountPaid+amount, 2)
	invoice.Balance = roundTo(invoice.TotalAmount-invoice.DiscountAmount-invoice.AmountPaid, 2)
	switch {
	case invoice.Balance <= 0:
		invoice.Balance = 0
		invoice.Status = models.PaymentStatusCompleted
	case invoice.AmountPaid > 0:
		invoice.Status = models.PaymentStatusPartial
	}
}

// ReceiptNumber formats the receipt for the seq-th payment recorded.
func ReceiptNumber(at time.Time, seq int) string {
	return fmt.Sprintf("RCT-%s-%04d", at.Format("20060102"), seq)
}

// Payments returns a page of the school's payments, newest first.
func (s *FeeService) Payments(ctx context.Context, actor Actor, page, pageSize int) ([]models.PaymentListItem, *models.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	payments, total, err := s.deps.Fees.ListPayments(ctx, models.PaymentFilter{SchoolID: actor.SchoolID, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, nil, internalError(err, "failed to list payments")
	}
	return payments, models.NewPagination(page, pageSize, total), nil
}

// Debtors lists the current term's unpaid invoices, largest balance first.
func (s *FeeService) Debtors(ctx context.Context, actor Actor) (*models.DebtorReport, error) {
	period, err := s.deps.Periods.CurrentTerm(ctx, actor.SchoolID)
	if err != nil {
		return nil, err
	}
	debtors, err := s.deps.Fees.Debtors(ctx, actor.SchoolID, period.Term.ID, 0)
	if err != nil {
		return nil, internalError(err, "failed to list debtors")
	}
	report := &models.DebtorReport{Debtors: debtors}
	for _, d := range debtors {
		report.TotalDebt += d.Balance
	}
	report.TotalDebt = roundTo(report.TotalDebt, 2)
	return report, nil
}

// DebtorsExport renders the debtor list as CSV or PDF.
func (s *FeeService) DebtorsExport(ctx context.Context, actor Actor, format string) (*Download, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	report, err := s.Debtors(ctx, actor)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"Invoice", "Student No.", "Student", "Term", "Total", "Paid", "Balance", "Status"}}
	for _, d := range report.Debtors {
		data.AddRow(
			d.InvoiceNumber,
			d.StudentNumber,
			d.StudentName,
			d.TermName,
			money(d.TotalAmount),
			money(d.AmountPaid),
			money(d.Balance),
			string(d.Status),
		)
	}
	data.AddRow("", "", "Total debt", "", "", "", money(report.TotalDebt), "")

	now := s.now().UTC()
	if format == FormatPDF {
		out, err := s.deps.PDF.Render(data, export.PDFOptions{
			Title:     "Fee Debtors",
			Subtitle:  fmt.Sprintf("%d invoices outstanding", len(report.Debtors)),
			Landscape: true,
			Widths:    []float64{2, 1.5, 3, 1.5, 1, 1, 1, 1},
		})
		if err != nil {
			return nil, internalError(err, "failed to render debtors")
		}
		return &Download{Filename: export.Filename("debtors", FormatPDF, now), ContentType: "application/pdf", Data: out}, nil
	}
	out, err := s.deps.CSV.Render(data)
	if err != nil {
		return nil, internalError(err, "failed to render debtors")
	}
	return &Download{Filename: export.Filename("debtors", FormatCSV, now), ContentType: "text/csv", Data: out}, nil
}

func (s *FeeService) schoolClass(ctx context.Context, actor Actor, classID string) (*models.Class, error) {
	class, err := s.deps.Classes.FindByID(ctx, classID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	if class.SchoolID != actor.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return class, nil
}

func (s *FeeService) invalidate(ctx context.Context, schoolID string) {
	if s.deps.Dashboards != nil {
		s.deps.Dashboards.InvalidateDashboards(ctx, schoolID)
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
