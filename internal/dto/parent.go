package dto

import "github.com/nacca-sms/nacca-sms-api/internal/models"

// ParentChildSummary is a child card on the parent home page.
type ParentChildSummary struct {
	Student    models.Student     `json:"student"`
	FullName   string             `json:"fullName"`
	Enrollment *models.Enrollment `json:"enrollment,omitempty"`
	Balance    float64            `json:"balance"`
}

// ParentHomeResponse lists the caller's children.
type ParentHomeResponse struct {
	Children []ParentChildSummary `json:"children"`
}

// ParentChildProfile is a child's profile with current term context.
type ParentChildProfile struct {
	Student           models.Student            `json:"student"`
	FullName          string                    `json:"fullName"`
	Enrollment        *models.Enrollment        `json:"enrollment,omitempty"`
	RecentAssessments []models.AssessmentDetail `json:"recentAssessments"`
	LatestInvoice     *models.FeeInvoice        `json:"latestInvoice,omitempty"`
}

// ParentChildResults lists published reports newest term first.
type ParentChildResults struct {
	Student models.Student                 `json:"student"`
	Reports []models.TerminalReportSummary `json:"reports"`
}

// ParentChildFees lists every invoice for a child.
type ParentChildFees struct {
	Student  models.Student      `json:"student"`
	Invoices []models.FeeInvoice `json:"invoices"`
}

// ParentChildAttendance lists the latest register entries.
type ParentChildAttendance struct {
	Student models.Student      `json:"student"`
	Records []models.Attendance `json:"records"`
}
