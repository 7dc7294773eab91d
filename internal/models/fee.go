package models

import "time"

// PaymentStatus applies to both invoices and payments.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentMethod is how a payment was received.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodMobileMoney  PaymentMethod = "mobile_money"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOnline       PaymentMethod = "online"
)

// FeeCategory names a kind of charge such as tuition or PTA dues.
type FeeCategory struct {
	ID          string    `db:"id" json:"id"`
	SchoolID    string    `db:"school_id" json:"school_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsRecurring bool      `db:"is_recurring" json:"is_recurring"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CreateFeeCategoryRequest registers a fee category.
type CreateFeeCategoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	IsRecurring bool    `json:"is_recurring"`
}

// FeeStructure is the amount a class is charged for a category in a year.
// TermApplicable limits the charge to one term; nil means every term.
type FeeStructure struct {
	ID             string    `db:"id" json:"id"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	FeeCategoryID  string    `db:"fee_category_id" json:"fee_category_id"`
	Amount         float64   `db:"amount" json:"amount"`
	TermApplicable *int      `db:"term_applicable" json:"term_applicable,omitempty"`
	CategoryName   string    `db:"category_name" json:"category_name,omitempty"`
	ClassName      string    `db:"class_name" json:"class_name,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// AppliesTo reports whether the structure is charged in termNumber.
func (f FeeStructure) AppliesTo(termNumber int) bool {
	return f.TermApplicable == nil || *f.TermApplicable == termNumber
}

// CreateFeeStructureRequest sets a class charge for the current year.
type CreateFeeStructureRequest struct {
	ClassID        string  `json:"class_id" validate:"required"`
	FeeCategoryID  string  `json:"fee_category_id" validate:"required"`
	Amount         float64 `json:"amount" validate:"gt=0"`
	TermApplicable *int    `json:"term_applicable" validate:"omitempty,min=1,max=3"`
}

// GenerateInvoicesRequest bills every student of a class for the current term.
type GenerateInvoicesRequest struct {
	ClassID string     `json:"class_id" validate:"required"`
	DueDate *time.Time `json:"due_date"`
}

// GenerateInvoicesResult reports how many invoices were created.
type GenerateInvoicesResult struct {
	CreatedCount int `json:"created_count"`
	SkippedCount int `json:"skipped_count"`
}

// FeeInvoice is what a student owes for a term.
type FeeInvoice struct {
	ID             string        `db:"id" json:"id"`
	InvoiceNumber  string        `db:"invoice_number" json:"invoice_number"`
	StudentID      string        `db:"student_id" json:"student_id"`
	TermID         string        `db:"term_id" json:"term_id"`
	TotalAmount    float64       `db:"total_amount" json:"total_amount"`
	DiscountAmount float64       `db:"discount_amount" json:"discount_amount"`
	AmountPaid     float64       `db:"amount_paid" json:"amount_paid"`
	Balance        float64       `db:"balance" json:"balance"`
	IssueDate      time.Time     `db:"issue_date" json:"issue_date"`
	DueDate        *time.Time    `db:"due_date" json:"due_date,omitempty"`
	Status         PaymentStatus `db:"status" json:"status"`
	Notes          *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// FeeInvoiceListItem adds the student's identity to an invoice.
type FeeInvoiceListItem struct {
	FeeInvoice
	StudentNumber   string  `db:"student_number" json:"student_number"`
	StudentName     string  `db:"student_name" json:"student_name"`
	StudentParentID *string `db:"student_parent_id" json:"-"`
	StudentSchoolID string  `db:"student_school_id" json:"-"`
	TermName        string  `db:"term_name" json:"term_name"`
}

// FeeInvoiceItem is one line on an invoice.
type FeeInvoiceItem struct {
	ID            string    `db:"id" json:"id"`
	InvoiceID     string    `db:"invoice_id" json:"invoice_id"`
	FeeCategoryID *string   `db:"fee_category_id" json:"fee_category_id,omitempty"`
	Description   string    `db:"description" json:"description"`
	Amount        float64   `db:"amount" json:"amount"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Payment records money received against an invoice.
type Payment struct {
	ID                   string        `db:"id" json:"id"`
	ReceiptNumber        string        `db:"receipt_number" json:"receipt_number"`
	InvoiceID            string        `db:"invoice_id" json:"invoice_id"`
	Amount               float64       `db:"amount" json:"amount"`
	PaymentMethod        PaymentMethod `db:"payment_method" json:"payment_method"`
	PaymentDate          time.Time     `db:"payment_date" json:"payment_date"`
	TransactionReference *string       `db:"transaction_reference" json:"transaction_reference,omitempty"`
	PayerName            *string       `db:"payer_name" json:"payer_name,omitempty"`
	PayerPhone           *string       `db:"payer_phone" json:"payer_phone,omitempty"`
	Status               PaymentStatus `db:"status" json:"status"`
	Notes                *string       `db:"notes" json:"notes,omitempty"`
	ReceivedByID         *string       `db:"received_by_id" json:"received_by_id,omitempty"`
	CreatedAt            time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time     `db:"updated_at" json:"updated_at"`
}

// PaymentListItem adds invoice and student context to a payment.
type PaymentListItem struct {
	Payment
	InvoiceNumber string `db:"invoice_number" json:"invoice_number"`
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
}

// RecordPaymentRequest posts a payment.
type RecordPaymentRequest struct {
	InvoiceID            string        `json:"invoice_id" validate:"required"`
	Amount               float64       `json:"amount"`
	PaymentMethod        PaymentMethod `json:"payment_method" validate:"required,oneof=cash mobile_money bank_transfer online"`
	TransactionReference *string       `json:"transaction_reference"`
	PayerName            *string       `json:"payer_name"`
	PayerPhone           *string       `json:"payer_phone"`
	Notes                *string       `json:"notes"`
}

// FeeTotals sums expected, collected and outstanding amounts.
type FeeTotals struct {
	Expected    float64 `db:"total_expected" json:"total_expected"`
	Collected   float64 `db:"total_collected" json:"total_collected"`
	Outstanding float64 `db:"total_outstanding" json:"total_outstanding"`
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	SchoolID  string
	TermID    string
	StudentID string
	Debtors   bool
	Page      int
	PageSize  int
}

// InvoiceDetail is an invoice with its lines and payments.
type InvoiceDetail struct {
	Invoice  FeeInvoiceListItem `json:"invoice"`
	Items    []FeeInvoiceItem   `json:"items"`
	Payments []Payment          `json:"payments"`
}

// DebtorReport lists unpaid invoices for the term.
type DebtorReport struct {
	Debtors   []FeeInvoiceListItem `json:"debtors"`
	TotalDebt float64              `json:"total_debt"`
}

// InvoiceDraft is an invoice with its lines awaiting insertion.
type InvoiceDraft struct {
	Invoice FeeInvoice
	Items   []FeeInvoiceItem
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	SchoolID string
	Page     int
	PageSize int
}
