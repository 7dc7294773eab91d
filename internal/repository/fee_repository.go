package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

const invoiceColumns = `fi.id, fi.invoice_number, fi.student_id, fi.term_id, fi.total_amount, fi.discount_amount, fi.amount_paid,
        fi.balance, fi.issue_date, fi.due_date, fi.status, fi.notes, fi.created_at, fi.updated_at`

const invoiceListSelect = `SELECT ` + invoiceColumns + `, s.student_number, s.first_name || ' ' || s.last_name AS student_name,
        s.parent_id AS student_parent_id, s.school_id AS student_school_id, t.name AS term_name
        FROM fee_invoices fi
        JOIN students s ON s.id = fi.student_id
        JOIN terms t ON t.id = fi.term_id`

const paymentColumns = `p.id, p.receipt_number, p.invoice_id, p.amount, p.payment_method, p.payment_date, p.transaction_reference,
        p.payer_name, p.payer_phone, p.status, p.notes, p.received_by_id, p.created_at, p.updated_at`

const paymentListSelect = `SELECT ` + paymentColumns + `, fi.invoice_number, s.first_name || ' ' || s.last_name AS student_name, s.student_number
        FROM payments p
        JOIN fee_invoices fi ON fi.id = p.invoice_id
        JOIN students s ON s.id = fi.student_id`

// receiptLockKey serialises receipt numbering across concurrent payments.
const receiptLockKey = 7_202_501

// FeeRepository stores fee categories, structures, invoices and payments.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// ListCategories returns the school's active fee categories.
func (r *FeeRepository) ListCategories(ctx context.Context, schoolID string) ([]models.FeeCategory, error) {
	const query = `SELECT id, school_id, name, description, is_recurring, active, created_at, updated_at
        FROM fee_categories WHERE school_id = $1 AND active = TRUE ORDER BY name`
	categories := []models.FeeCategory{}
	if err := r.db.SelectContext(ctx, &categories, query, schoolID); err != nil {
		return nil, fmt.Errorf("list fee categories: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts a fee category.
func (r *FeeRepository) CreateCategory(ctx context.Context, category *models.FeeCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt, category.UpdatedAt = now, now
	const query = `INSERT INTO fee_categories (id, school_id, name, description, is_recurring, active, created_at, updated_at)
        VALUES (:id, :school_id, :name, :description, :is_recurring, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create fee category: %w", err)
	}
	return nil
}

// ListStructures returns fee structures for a year, optionally for one class.
func (r *FeeRepository) ListStructures(ctx context.Context, schoolID, academicYearID, classID string) ([]models.FeeStructure, error) {
	query := `SELECT fs.id, fs.school_id, fs.class_id, fs.academic_year_id, fs.fee_category_id, fs.amount, fs.term_applicable,
        fc.name AS category_name, c.name AS class_name, fs.created_at, fs.updated_at
        FROM fee_structures fs
        JOIN fee_categories fc ON fc.id = fs.fee_category_id
        JOIN classes c ON c.id = fs.class_id
        WHERE fs.school_id = $1 AND fs.academic_year_id = $2`
	args := []interface{}{schoolID, academicYearID}
	if classID != "" {
		query += ` AND fs.class_id = $3`
		args = append(args, classID)
	}
	query += ` ORDER BY c.name, fc.name`
	structures := []models.FeeStructure{}
	if err := r.db.SelectContext(ctx, &structures, query, args...); err != nil {
		return nil, fmt.Errorf("list fee structures: %w", err)
	}
	return structures, nil
}

// CreateStructure inserts a fee structure.
func (r *FeeRepository) CreateStructure(ctx context.Context, structure *models.FeeStructure) error {
	if structure.ID == "" {
		structure.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	structure.CreatedAt, structure.UpdatedAt = now, now
	const query = `INSERT INTO fee_structures (id, school_id, class_id, academic_year_id, fee_category_id, amount, term_applicable, created_at, updated_at)
        VALUES (:id, :school_id, :class_id, :academic_year_id, :fee_category_id, :amount, :term_applicable, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, structure); err != nil {
		return fmt.Errorf("create fee structure: %w", err)
	}
	return nil
}

func invoiceConditions(filter models.InvoiceFilter) (string, []interface{}) {
	args := []interface{}{filter.SchoolID}
	conditions := []string{"s.school_id = $1"}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("fi.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("fi.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Debtors {
		conditions = append(conditions, "fi.balance > 0")
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListInvoices returns a page of invoices. Debtor listings sort by balance, others newest first.
func (r *FeeRepository) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.FeeInvoiceListItem, int, error) {
	where, args := invoiceConditions(filter)
	order := " ORDER BY fi.created_at DESC"
	if filter.Debtors {
		order = " ORDER BY fi.balance DESC"
	}
	limit, offset := models.PageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d", invoiceListSelect, where, order, limit, offset)

	invoices := []models.FeeInvoiceListItem{}
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	var total int
	countQuery := `SELECT COUNT(*) FROM fee_invoices fi JOIN students s ON s.id = fi.student_id` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	return invoices, total, nil
}

// Debtors returns the term's invoices with an outstanding balance, largest first. A limit of 0 returns all.
func (r *FeeRepository) Debtors(ctx context.Context, schoolID, termID string, limit int) ([]models.FeeInvoiceListItem, error) {
	where, args := invoiceConditions(models.InvoiceFilter{SchoolID: schoolID, TermID: termID, Debtors: true})
	query := invoiceListSelect + where + " ORDER BY fi.balance DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	debtors := []models.FeeInvoiceListItem{}
	if err := r.db.SelectContext(ctx, &debtors, query, args...); err != nil {
		return nil, fmt.Errorf("list debtors: %w", err)
	}
	return debtors, nil
}

// Totals sums the school's invoices for a term.
func (r *FeeRepository) Totals(ctx context.Context, schoolID, termID string) (models.FeeTotals, error) {
	const query = `SELECT COALESCE(SUM(fi.total_amount), 0) AS total_expected,
        COALESCE(SUM(fi.amount_paid), 0) AS total_collected,
        COALESCE(SUM(fi.balance), 0) AS total_outstanding
        FROM fee_invoices fi JOIN students s ON s.id = fi.student_id
        WHERE s.school_id = $1 AND fi.term_id = $2`
	var totals models.FeeTotals
	if err := r.db.GetContext(ctx, &totals, query, schoolID, termID); err != nil {
		return totals, fmt.Errorf("fee totals: %w", err)
	}
	return totals, nil
}

// FindInvoice fetches an invoice with the student's identity.
func (r *FeeRepository) FindInvoice(ctx context.Context, id string) (*models.FeeInvoiceListItem, error) {
	var invoice models.FeeInvoiceListItem
	if err := r.db.GetContext(ctx, &invoice, invoiceListSelect+` WHERE fi.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	return &invoice, nil
}

// ListItems returns an invoice's lines.
func (r *FeeRepository) ListItems(ctx context.Context, invoiceID string) ([]models.FeeInvoiceItem, error) {
	const query = `SELECT id, invoice_id, fee_category_id, description, amount, created_at FROM fee_invoice_items WHERE invoice_id = $1 ORDER BY description`
	items := []models.FeeInvoiceItem{}
	if err := r.db.SelectContext(ctx, &items, query, invoiceID); err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	return items, nil
}

// ListInvoicePayments returns payments made against an invoice, oldest first.
func (r *FeeRepository) ListInvoicePayments(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.invoice_id = $1 ORDER BY p.payment_date`
	payments := []models.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, invoiceID); err != nil {
		return nil, fmt.Errorf("list invoice payments: %w", err)
	}
	return payments, nil
}

// ListStudentInvoices returns every invoice for a student, newest first.
func (r *FeeRepository) ListStudentInvoices(ctx context.Context, studentID string) ([]models.FeeInvoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM fee_invoices fi WHERE fi.student_id = $1 ORDER BY fi.created_at DESC`
	invoices := []models.FeeInvoice{}
	if err := r.db.SelectContext(ctx, &invoices, query, studentID); err != nil {
		return nil, fmt.Errorf("list student invoices: %w", err)
	}
	return invoices, nil
}

// StudentBalance sums a student's outstanding balance for a term.
func (r *FeeRepository) StudentBalance(ctx context.Context, studentID, termID string) (float64, error) {
	var balance float64
	const query = `SELECT COALESCE(SUM(balance), 0) FROM fee_invoices WHERE student_id = $1 AND term_id = $2`
	if err := r.db.GetContext(ctx, &balance, query, studentID, termID); err != nil {
		return 0, fmt.Errorf("student balance: %w", err)
	}
	return balance, nil
}

// InvoicedStudents returns the ids among studentIDs that already hold an invoice for the term.
func (r *FeeRepository) InvoicedStudents(ctx context.Context, termID string, studentIDs []string) (map[string]bool, error) {
	invoiced := make(map[string]bool)
	if len(studentIDs) == 0 {
		return invoiced, nil
	}
	query, args, err := sqlx.In(`SELECT DISTINCT student_id FROM fee_invoices WHERE term_id = ? AND student_id IN (?)`, termID, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("build invoiced students: %w", err)
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("invoiced students: %w", err)
	}
	for _, id := range ids {
		invoiced[id] = true
	}
	return invoiced, nil
}

// CreateInvoices inserts drafts with their lines in one transaction. number receives the
// 1-based sequence among all invoices and returns the invoice number.
func (r *FeeRepository) CreateInvoices(ctx context.Context, drafts []models.InvoiceDraft, number func(seq int) string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, receiptLockKey+1); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("lock invoice numbering: %w", err)
	}
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM fee_invoices`); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("count invoices: %w", err)
	}
	now := time.Now().UTC()
	const invoiceQuery = `INSERT INTO fee_invoices (id, invoice_number, student_id, term_id, total_amount, discount_amount, amount_paid,
        balance, issue_date, due_date, status, notes, created_at, updated_at)
        VALUES (:id, :invoice_number, :student_id, :term_id, :total_amount, :discount_amount, :amount_paid,
        :balance, :issue_date, :due_date, :status, :notes, :created_at, :updated_at)`
	const itemQuery = `INSERT INTO fee_invoice_items (id, invoice_id, fee_category_id, description, amount, created_at)
        VALUES (:id, :invoice_id, :fee_category_id, :description, :amount, :created_at)`
	for i := range drafts {
		invoice := &drafts[i].Invoice
		if invoice.ID == "" {
			invoice.ID = uuid.NewString()
		}
		count++
		invoice.InvoiceNumber = number(count)
		invoice.CreatedAt, invoice.UpdatedAt = now, now
		if _, err := tx.NamedExecContext(ctx, invoiceQuery, invoice); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create invoice: %w", err)
		}
		for j := range drafts[i].Items {
			item := &drafts[i].Items[j]
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			item.InvoiceID = invoice.ID
			item.CreatedAt = now
			if _, err := tx.NamedExecContext(ctx, itemQuery, item); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("create invoice item: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invoices: %w", err)
	}
	return nil
}

// RecordPayment locks the invoice, lets apply build the payment and update the
// invoice in memory, then persists both. Errors returned by apply abort the
// transaction and are passed through unchanged.
func (r *FeeRepository) RecordPayment(ctx context.Context, invoiceID string, apply func(invoice *models.FeeInvoice, receiptSeq int) (*models.Payment, error)) (*models.Payment, *models.FeeInvoice, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	var invoice models.FeeInvoice
	query := `SELECT ` + invoiceColumns + ` FROM fee_invoices fi WHERE fi.id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &invoice, query, invoiceID); err != nil {
		tx.Rollback() //nolint:errcheck
		if err == sql.ErrNoRows {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("lock invoice: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, receiptLockKey); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, nil, fmt.Errorf("lock receipt numbering: %w", err)
	}
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM payments`); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, nil, fmt.Errorf("count payments: %w", err)
	}

	payment, err := apply(&invoice, count+1)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, nil, err
	}

	now := time.Now().UTC()
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	payment.InvoiceID = invoice.ID
	payment.CreatedAt, payment.UpdatedAt = now, now
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = now
	}
	const insert = `INSERT INTO payments (id, receipt_number, invoice_id, amount, payment_method, payment_date, transaction_reference,
        payer_name, payer_phone, status, notes, received_by_id, created_at, updated_at)
        VALUES (:id, :receipt_number, :invoice_id, :amount, :payment_method, :payment_date, :transaction_reference,
        :payer_name, :payer_phone, :status, :notes, :received_by_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, payment); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, nil, fmt.Errorf("insert payment: %w", err)
	}
	invoice.UpdatedAt = now
	const update = `UPDATE fee_invoices SET amount_paid = :amount_paid, balance = :balance, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, &invoice); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, nil, fmt.Errorf("update invoice: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit payment: %w", err)
	}
	return payment, &invoice, nil
}

// ListPayments returns a page of the school's payments, newest first.
func (r *FeeRepository) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentListItem, int, error) {
	limit, offset := models.PageBounds(filter.Page, filter.PageSize)
	query := fmt.Sprintf("%s WHERE s.school_id = $1 ORDER BY p.payment_date DESC LIMIT %d OFFSET %d", paymentListSelect, limit, offset)
	payments := []models.PaymentListItem{}
	if err := r.db.SelectContext(ctx, &payments, query, filter.SchoolID); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	var total int
	const countQuery = `SELECT COUNT(*) FROM payments p JOIN fee_invoices fi ON fi.id = p.invoice_id
        JOIN students s ON s.id = fi.student_id WHERE s.school_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, filter.SchoolID); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// RecentPayments returns the school's newest payments.
func (r *FeeRepository) RecentPayments(ctx context.Context, schoolID string, limit int) ([]models.PaymentListItem, error) {
	query := fmt.Sprintf("%s WHERE s.school_id = $1 ORDER BY p.payment_date DESC LIMIT %d", paymentListSelect, limit)
	payments := []models.PaymentListItem{}
	if err := r.db.SelectContext(ctx, &payments, query, schoolID); err != nil {
		return nil, fmt.Errorf("recent payments: %w", err)
	}
	return payments, nil
}

// PaymentsOn returns the school's payments received on day.
func (r *FeeRepository) PaymentsOn(ctx context.Context, schoolID string, day time.Time) ([]models.PaymentListItem, error) {
	query := paymentListSelect + ` WHERE s.school_id = $1 AND p.payment_date::date = $2 ORDER BY p.payment_date DESC`
	payments := []models.PaymentListItem{}
	if err := r.db.SelectContext(ctx, &payments, query, schoolID, day.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("payments on day: %w", err)
	}
	return payments, nil
}
