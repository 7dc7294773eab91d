package service

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
)

type fakeFeeRepo struct {
	structures []models.FeeStructure
	invoiced   map[string]bool
	drafts     []models.InvoiceDraft
	invoices   map[string]*models.FeeInvoiceListItem
	payments   []models.Payment
	paymentSeq int
	debtors    []models.FeeInvoiceListItem
	categories []models.FeeCategory
}

func (f *fakeFeeRepo) ListCategories(ctx context.Context, schoolID string) ([]models.FeeCategory, error) {
	return f.categories, nil
}

func (f *fakeFeeRepo) CreateCategory(ctx context.Context, category *models.FeeCategory) error {
	category.ID = "cat-new"
	f.categories = append(f.categories, *category)
	return nil
}

func (f *fakeFeeRepo) ListStructures(ctx context.Context, schoolID, academicYearID, classID string) ([]models.FeeStructure, error) {
	return f.structures, nil
}

func (f *fakeFeeRepo) CreateStructure(ctx context.Context, structure *models.FeeStructure) error {
	structure.ID = "fs-new"
	f.structures = append(f.structures, *structure)
	return nil
}

func (f *fakeFeeRepo) InvoicedStudents(ctx context.Context, termID string, studentIDs []string) (map[string]bool, error) {
	if f.invoiced == nil {
		return map[string]bool{}, nil
	}
	return f.invoiced, nil
}

func (f *fakeFeeRepo) CreateInvoices(ctx context.Context, drafts []models.InvoiceDraft, number func(seq int) string) error {
	for i := range drafts {
		drafts[i].Invoice.InvoiceNumber = number(i + 1)
	}
	f.drafts = drafts
	return nil
}

func (f *fakeFeeRepo) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.FeeInvoiceListItem, int, error) {
	items := []models.FeeInvoiceListItem{}
	for _, inv := range f.invoices {
		items = append(items, *inv)
	}
	return items, len(items), nil
}

func (f *fakeFeeRepo) Totals(ctx context.Context, schoolID, termID string) (models.FeeTotals, error) {
	return models.FeeTotals{Expected: 1000, Collected: 400, Outstanding: 600}, nil
}

func (f *fakeFeeRepo) Debtors(ctx context.Context, schoolID, termID string, limit int) ([]models.FeeInvoiceListItem, error) {
	return f.debtors, nil
}

func (f *fakeFeeRepo) FindInvoice(ctx context.Context, id string) (*models.FeeInvoiceListItem, error) {
	if inv, ok := f.invoices[id]; ok {
		clone := *inv
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeFeeRepo) ListItems(ctx context.Context, invoiceID string) ([]models.FeeInvoiceItem, error) {
	return []models.FeeInvoiceItem{{InvoiceID: invoiceID, Description: "Tuition", Amount: 500}}, nil
}

func (f *fakeFeeRepo) ListInvoicePayments(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	return f.payments, nil
}

func (f *fakeFeeRepo) RecordPayment(ctx context.Context, invoiceID string, apply func(invoice *models.FeeInvoice, receiptSeq int) (*models.Payment, error)) (*models.Payment, *models.FeeInvoice, error) {
	item, ok := f.invoices[invoiceID]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	invoice := item.FeeInvoice
	payment, err := apply(&invoice, f.paymentSeq+1)
	if err != nil {
		return nil, nil, err
	}
	f.paymentSeq++
	item.FeeInvoice = invoice
	f.payments = append(f.payments, *payment)
	return payment, &invoice, nil
}

func (f *fakeFeeRepo) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentListItem, int, error) {
	return []models.PaymentListItem{}, 0, nil
}

type recordingPayments struct {
	amounts []float64
}

func (r *recordingPayments) RecordPayment(amount float64) {
	r.amounts = append(r.amounts, amount)
}

type feeFixture struct {
	svc        *FeeService
	fees       *fakeFeeRepo
	metrics    *recordingPayments
	dashboards *recordingInvalidator
}

func newFeeFixture() feeFixture {
	termTwo := 2
	parentID := "parent-1"
	fees := &fakeFeeRepo{
		structures: []models.FeeStructure{
			{FeeCategoryID: "cat-tuition", CategoryName: "Tuition", Amount: 450.5},
			{FeeCategoryID: "cat-pta", CategoryName: "PTA Dues", Amount: 50.25},
			{FeeCategoryID: "cat-sports", CategoryName: "Sports", Amount: 30, TermApplicable: &termTwo},
		},
		invoices: map[string]*models.FeeInvoiceListItem{
			"inv-1": {
				FeeInvoice: models.FeeInvoice{
					ID: "inv-1", InvoiceNumber: "INV-20250910-0001", StudentID: "stu-1", TermID: "term-1",
					TotalAmount: 500, DiscountAmount: 50, Balance: 450, Status: models.PaymentStatusPending,
					IssueDate: time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC),
				},
				StudentNumber: "STU0010001", StudentName: "Ama Mensah", TermName: "Term 1",
				StudentParentID: &parentID, StudentSchoolID: testSchoolID,
			},
			"inv-x": {
				FeeInvoice:      models.FeeInvoice{ID: "inv-x", Balance: 100},
				StudentSchoolID: "school-2",
			},
		},
	}
	classes := &fakeClassLookup{classes: map[string]*models.Class{
		"class-1": {ID: "class-1", SchoolID: testSchoolID, Name: "JHS 2A", Level: "JHS"},
		"class-x": {ID: "class-x", SchoolID: "school-2", Name: "JHS 1"},
	}}
	rosters := &fakeRosterRepo{rosters: map[string][]models.EnrolledStudent{
		"class-1": {{StudentID: "stu-1"}, {StudentID: "stu-2"}, {StudentID: "stu-3"}},
	}}
	enrollments := &fakeEnrollmentRepo{current: map[string]*models.Enrollment{
		"stu-1": {ID: "enr-1", StudentID: "stu-1", ClassID: "class-1", ClassName: "JHS 2A"},
	}}
	metrics := &recordingPayments{}
	dashboards := &recordingInvalidator{}
	svc := NewFeeService(FeeServiceDeps{
		Fees:        fees,
		Classes:     classes,
		Rosters:     rosters,
		Enrollments: enrollments,
		Periods:     newFakePeriods(),
		Metrics:     metrics,
		Dashboards:  dashboards,
	})
	svc.now = func() time.Time { return time.Date(2025, 10, 3, 9, 30, 0, 0, time.UTC) }
	return feeFixture{svc: svc, fees: fees, metrics: metrics, dashboards: dashboards}
}

func accountsActor() Actor {
	return Actor{UserID: "user-accounts", SchoolID: testSchoolID, Role: models.RoleAccountsOfficer}
}

func TestFeeServiceGenerateInvoicesSkipsInvoicedStudents(t *testing.T) {
	fx := newFeeFixture()
	fx.fees.invoiced = map[string]bool{"stu-2": true}

	res, err := fx.svc.GenerateInvoices(context.Background(), adminActor(), models.GenerateInvoicesRequest{ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.CreatedCount)
	assert.Equal(t, 1, res.SkippedCount)

	require.Len(t, fx.fees.drafts, 2)
	first := fx.fees.drafts[0]
	assert.Equal(t, "stu-1", first.Invoice.StudentID)
	assert.Equal(t, "INV-20251003-0001", first.Invoice.InvoiceNumber)
	assert.Equal(t, 500.75, first.Invoice.TotalAmount)
	assert.Equal(t, 500.75, first.Invoice.Balance)
	assert.Equal(t, models.PaymentStatusPending, first.Invoice.Status)
	assert.Len(t, first.Items, 2, "term two charge is excluded in term one")
	assert.Equal(t, []string{testSchoolID}, fx.dashboards.schools)
}

func TestFeeServiceGenerateInvoicesValidation(t *testing.T) {
	fx := newFeeFixture()
	_, err := fx.svc.GenerateInvoices(context.Background(), adminActor(), models.GenerateInvoicesRequest{ClassID: "class-x"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	fx.fees.structures = nil
	_, err = fx.svc.GenerateInvoices(context.Background(), adminActor(), models.GenerateInvoicesRequest{ClassID: "class-1"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceRecordPartialThenFullPayment(t *testing.T) {
	fx := newFeeFixture()
	ctx := context.Background()

	payment, invoice, err := fx.svc.RecordPayment(ctx, accountsActor(), models.RecordPaymentRequest{
		InvoiceID: "inv-1", Amount: 200, PaymentMethod: models.PaymentMethodMobileMoney, PayerName: strPtr("  Yaw Mensah "),
	})
	require.NoError(t, err)
	assert.Equal(t, "RCT-20251003-0001", payment.ReceiptNumber)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "Yaw Mensah", *payment.PayerName)
	require.NotNil(t, payment.ReceivedByID)
	assert.Equal(t, "user-accounts", *payment.ReceivedByID)
	assert.Equal(t, 200.0, invoice.AmountPaid)
	assert.Equal(t, 250.0, invoice.Balance)
	assert.Equal(t, models.PaymentStatusPartial, invoice.Status)

	payment, invoice, err = fx.svc.RecordPayment(ctx, accountsActor(), models.RecordPaymentRequest{
		InvoiceID: "inv-1", Amount: 250, PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "RCT-20251003-0002", payment.ReceiptNumber)
	assert.Equal(t, 450.0, invoice.AmountPaid)
	assert.Equal(t, 0.0, invoice.Balance)
	assert.Equal(t, models.PaymentStatusCompleted, invoice.Status)

	assert.Equal(t, []float64{200, 250}, fx.metrics.amounts)
	assert.Len(t, fx.dashboards.schools, 2)
}

func TestFeeServiceRecordPaymentRejectsBadAmounts(t *testing.T) {
	fx := newFeeFixture()
	ctx := context.Background()
	for _, amount := range []float64{0, -10} {
		_, _, err := fx.svc.RecordPayment(ctx, accountsActor(), models.RecordPaymentRequest{
			InvoiceID: "inv-1", Amount: amount, PaymentMethod: models.PaymentMethodCash,
		})
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, "amount %v", amount)
	}
	_, _, err := fx.svc.RecordPayment(ctx, accountsActor(), models.RecordPaymentRequest{
		InvoiceID: "inv-1", Amount: 450.01, PaymentMethod: models.PaymentMethodCash,
	})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrPaymentExceedsBalance))
	assert.Equal(t, http.StatusUnprocessableEntity, appErrors.FromError(err).Status)
	assert.Empty(t, fx.fees.payments)
	assert.Empty(t, fx.metrics.amounts)

	_, _, err = fx.svc.RecordPayment(ctx, accountsActor(), models.RecordPaymentRequest{
		InvoiceID: "inv-1", Amount: 10, PaymentMethod: "cheque",
	})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = fx.svc.RecordPayment(ctx, accountsActor(), models.RecordPaymentRequest{
		InvoiceID: "inv-x", Amount: 10, PaymentMethod: models.PaymentMethodCash,
	})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, _, err = fx.svc.RecordPayment(ctx, accountsActor(), models.RecordPaymentRequest{
		InvoiceID: "missing", Amount: 10, PaymentMethod: models.PaymentMethodCash,
	})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceInvoiceAccess(t *testing.T) {
	fx := newFeeFixture()
	ctx := context.Background()

	detail, err := fx.svc.Invoice(ctx, parentActor("parent-1"), "inv-1")
	require.NoError(t, err)
	assert.Len(t, detail.Items, 1)

	_, err = fx.svc.Invoice(ctx, parentActor("parent-2"), "inv-1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = fx.svc.Invoice(ctx, accountsActor(), "inv-x")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceInvoicePDF(t *testing.T) {
	fx := newFeeFixture()
	download, err := fx.svc.InvoicePDF(context.Background(), accountsActor(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", download.ContentType)
	assert.True(t, bytes.HasPrefix(download.Data, []byte("%PDF")))
	assert.True(t, strings.HasSuffix(download.Filename, ".pdf"))
}

func TestFeeServiceInvoicesIncludesTotals(t *testing.T) {
	fx := newFeeFixture()
	invoices, totals, pagination, err := fx.svc.Invoices(context.Background(), accountsActor(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, invoices, 2)
	assert.Equal(t, 600.0, totals.Outstanding)
	assert.Equal(t, models.DefaultPageSize, pagination.PageSize)
}

func TestFeeServiceDebtorsExport(t *testing.T) {
	fx := newFeeFixture()
	fx.fees.debtors = []models.FeeInvoiceListItem{
		{FeeInvoice: models.FeeInvoice{InvoiceNumber: "INV-1", TotalAmount: 500, Balance: 300.5, Status: models.PaymentStatusPartial}, StudentName: "Ama Mensah"},
		{FeeInvoice: models.FeeInvoice{InvoiceNumber: "INV-2", TotalAmount: 200, Balance: 200, Status: models.PaymentStatusPending}, StudentName: "Kofi Owusu"},
	}
	report, err := fx.svc.Debtors(context.Background(), accountsActor())
	require.NoError(t, err)
	assert.Equal(t, 500.5, report.TotalDebt)

	download, err := fx.svc.DebtorsExport(context.Background(), accountsActor(), "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Equal(t, "debtors_20251003.csv", download.Filename)
	assert.Contains(t, string(download.Data), "Total debt")
	assert.Contains(t, string(download.Data), "500.50")

	download, err = fx.svc.DebtorsExport(context.Background(), accountsActor(), "PDF")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(download.Data, []byte("%PDF")))

	_, err = fx.svc.DebtorsExport(context.Background(), accountsActor(), "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceCreateStructureAndCategory(t *testing.T) {
	fx := newFeeFixture()
	ctx := context.Background()

	structure, err := fx.svc.CreateStructure(ctx, adminActor(), models.CreateFeeStructureRequest{
		ClassID: "class-1", FeeCategoryID: "cat-tuition", Amount: 120.456,
	})
	require.NoError(t, err)
	assert.Equal(t, "year-1", structure.AcademicYearID)
	assert.Equal(t, 120.46, structure.Amount)

	badTerm := 4
	_, err = fx.svc.CreateStructure(ctx, adminActor(), models.CreateFeeStructureRequest{
		ClassID: "class-1", FeeCategoryID: "cat-tuition", Amount: 10, TermApplicable: &badTerm,
	})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	category, err := fx.svc.CreateCategory(ctx, adminActor(), models.CreateFeeCategoryRequest{Name: "  Library "})
	require.NoError(t, err)
	assert.Equal(t, "Library", category.Name)
	assert.True(t, category.Active)

	_, err = fx.svc.CreateCategory(ctx, adminActor(), models.CreateFeeCategoryRequest{Name: " "})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
