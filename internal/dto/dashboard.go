package dto

import (
	"time"

	"github.com/nacca-sms/nacca-sms-api/internal/models"
)

// Dashboard kinds returned in DashboardResponse.Kind.
const (
	DashboardKindHeadteacher = "headteacher"
	DashboardKindAdmin       = "admin"
	DashboardKindTeacher     = "teacher"
	DashboardKindAccounts    = "accounts"
)

// DashboardResponse wraps the role specific payload.
type DashboardResponse struct {
	Kind        string                `json:"kind"`
	TermID      string                `json:"termId,omitempty"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Headteacher *HeadteacherDashboard `json:"headteacher,omitempty"`
	Admin       *AdminDashboard       `json:"admin,omitempty"`
	Teacher     *TeacherDashboard     `json:"teacher,omitempty"`
	Accounts    *AccountsDashboard    `json:"accounts,omitempty"`
}

// HeadteacherDashboard is the school wide overview.
type HeadteacherDashboard struct {
	TotalStudents   int             `json:"totalStudents"`
	TotalStaff      int             `json:"totalStaff"`
	TotalClasses    int             `json:"totalClasses"`
	PendingReports  int             `json:"pendingReports"`
	Fees            FeeSummary      `json:"fees"`
	AttendanceRate  float64         `json:"attendanceRate"`
	RecentPayments  []RecentPayment `json:"recentPayments"`
	GenderBreakdown map[string]int  `json:"genderBreakdown"`
}

// AdminDashboard is the administrator overview.
type AdminDashboard struct {
	TotalStudents int `json:"totalStudents"`
	TotalStaff    int `json:"totalStaff"`
}

// TeacherDashboard lists what the teacher is responsible for.
type TeacherDashboard struct {
	MyClasses    []models.Class              `json:"myClasses"`
	MySubjects   []models.ClassSubjectDetail `json:"mySubjects"`
	StudentCount int                         `json:"studentCount"`
}

// AccountsDashboard summarises collections for the accounts office.
type AccountsDashboard struct {
	Fees           FeeSummary      `json:"fees"`
	TopDebtors     []DebtorEntry   `json:"topDebtors"`
	TodayPayments  []RecentPayment `json:"todayPayments"`
	TodayCollected float64         `json:"todayCollected"`
}

// FeeSummary holds term fee totals and the collection rate in percent.
type FeeSummary struct {
	Expected       float64 `json:"expected"`
	Collected      float64 `json:"collected"`
	Outstanding    float64 `json:"outstanding"`
	CollectionRate float64 `json:"collectionRate"`
}

// RecentPayment is a payment line for dashboards.
type RecentPayment struct {
	ReceiptNumber string    `json:"receiptNumber"`
	StudentName   string    `json:"studentName"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
	PaidAt        time.Time `json:"paidAt"`
}

// DebtorEntry is an invoice with an outstanding balance.
type DebtorEntry struct {
	InvoiceID     string  `json:"invoiceId"`
	InvoiceNumber string  `json:"invoiceNumber"`
	StudentName   string  `json:"studentName"`
	StudentNumber string  `json:"studentNumber"`
	Balance       float64 `json:"balance"`
}
