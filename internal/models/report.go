package models

import (
	"time"

	"github.com/nacca-sms/nacca-sms-api/pkg/grading"
)

// TerminalReport is a student's end-of-term summary.
type TerminalReport struct {
	ID                  string     `db:"id" json:"id"`
	StudentID           string     `db:"student_id" json:"student_id"`
	TermID              string     `db:"term_id" json:"term_id"`
	ClassEnrollmentID   string     `db:"class_enrollment_id" json:"class_enrollment_id"`
	TotalMarks          float64    `db:"total_marks" json:"total_marks"`
	AverageScore        float64    `db:"average_score" json:"average_score"`
	ClassPosition       *int       `db:"class_position" json:"class_position,omitempty"`
	ClassSize           int        `db:"class_size" json:"class_size"`
	TotalDays           int        `db:"total_days" json:"total_days"`
	DaysPresent         int        `db:"days_present" json:"days_present"`
	DaysAbsent          int        `db:"days_absent" json:"days_absent"`
	ClassTeacherRemarks *string    `db:"class_teacher_remarks" json:"class_teacher_remarks,omitempty"`
	HeadteacherRemarks  *string    `db:"headteacher_remarks" json:"headteacher_remarks,omitempty"`
	NextTermBegins      *time.Time `db:"next_term_begins" json:"next_term_begins,omitempty"`
	IsPublished         bool       `db:"is_published" json:"is_published"`
	PublishedAt         *time.Time `db:"published_at" json:"published_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// TerminalReportSummary adds term context for listings.
type TerminalReportSummary struct {
	TerminalReport
	TermName         string    `db:"term_name" json:"term_name"`
	TermStartDate    time.Time `db:"term_start_date" json:"term_start_date"`
	AcademicYearName string    `db:"academic_year_name" json:"academic_year_name"`
	ClassName        string    `db:"class_name" json:"class_name"`
}

// GenerateReportsResult reports how many rows were written.
type GenerateReportsResult struct {
	GeneratedCount int    `json:"generated_count"`
	Message        string `json:"message"`
}

// PublishReportsResult reports how many rows were published.
type PublishReportsResult struct {
	PublishedCount int       `json:"published_count"`
	PublishedAt    time.Time `json:"published_at"`
}

// ReportCardSubject is one subject line on a report card.
type ReportCardSubject struct {
	SubjectName string  `json:"subject_name"`
	Classwork   float64 `json:"classwork"`
	Homework    float64 `json:"homework"`
	Project     float64 `json:"project"`
	Exam        float64 `json:"exam"`
	Total       float64 `json:"total"`
	Grade       string  `json:"grade"`
	Remark      string  `json:"remark"`
	Position    string  `json:"position"`
}

// ReportCard is the assembled terminal report for display or PDF.
type ReportCard struct {
	School       School              `json:"school"`
	Student      Student             `json:"student"`
	StudentName  string              `json:"student_name"`
	ClassName    string              `json:"class_name"`
	Level        grading.Level       `json:"level"`
	Term         Term                `json:"term"`
	Report       TerminalReport      `json:"report"`
	Subjects     []ReportCardSubject `json:"subjects"`
	AverageScore float64             `json:"average_score"`
	Position     string              `json:"position"`
	GradingKey   []grading.Band      `json:"grading_key"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// BroadsheetRow is one student's subject totals across a class.
type BroadsheetRow struct {
	Student  EnrolledStudent    `json:"student"`
	Totals   map[string]float64 `json:"totals"`
	Total    float64            `json:"total"`
	Average  float64            `json:"average"`
	Position int                `json:"position"`
}

// Broadsheet is the class by subject totals sheet.
type Broadsheet struct {
	Class    Class                `json:"class"`
	Term     Term                 `json:"term"`
	Subjects []ClassSubjectDetail `json:"subjects"`
	Rows     []BroadsheetRow      `json:"rows"`
}
