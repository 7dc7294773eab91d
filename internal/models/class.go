package models

import "time"

// Class is a stream such as "Primary 6A" or "JHS 2B".
type Class struct {
	ID             string    `db:"id" json:"id"`
	SchoolID       string    `db:"school_id" json:"school_id"`
	Name           string    `db:"name" json:"name"`
	Level          string    `db:"level" json:"level"`
	GradeNumber    *int      `db:"grade_number" json:"grade_number,omitempty"`
	Section        *string   `db:"section" json:"section,omitempty"`
	Capacity       int       `db:"capacity" json:"capacity"`
	ClassTeacherID *string   `db:"class_teacher_id" json:"class_teacher_id,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSummary reports enrolment and report progress for a class this term.
type ClassSummary struct {
	ClassID       string `db:"class_id" json:"class_id"`
	ClassName     string `db:"class_name" json:"class_name"`
	Level         string `db:"level" json:"level"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolled_count"`
	ReportCount   int    `db:"report_count" json:"report_count"`
}

// ClassDetail is a class with its roster and subjects for the current year.
type ClassDetail struct {
	Class
	Students    []EnrolledStudent    `json:"students"`
	Subjects    []ClassSubjectDetail `json:"subjects"`
	MaleCount   int                  `json:"male_count"`
	FemaleCount int                  `json:"female_count"`
}

// ClassListItem is a class with its current enrolment count.
type ClassListItem struct {
	Class
	StudentCount int `db:"student_count" json:"student_count"`
}

// ClassRequest creates or edits a class.
type ClassRequest struct {
	Name           string  `json:"name" validate:"required"`
	Level          string  `json:"level" validate:"required"`
	GradeNumber    *int    `json:"grade_number" validate:"omitempty,min=1,max=9"`
	Section        *string `json:"section"`
	Capacity       int     `json:"capacity" validate:"omitempty,min=1"`
	ClassTeacherID *string `json:"class_teacher_id"`
}

// SubjectAssignment pairs a subject with its teacher.
type SubjectAssignment struct {
	SubjectID string  `json:"subject_id" validate:"required"`
	TeacherID *string `json:"teacher_id"`
}

// AssignSubjectsRequest replaces a class's subjects for the current year.
type AssignSubjectsRequest struct {
	Assignments []SubjectAssignment `json:"assignments" validate:"dive"`
}

// CreateSubjectRequest registers a subject.
type CreateSubjectRequest struct {
	Name         string  `json:"name" validate:"required"`
	Code         *string `json:"code"`
	DepartmentID *string `json:"department_id"`
	IsCore       bool    `json:"is_core"`
}

// CreateDepartmentRequest registers a department.
type CreateDepartmentRequest struct {
	Name string  `json:"name" validate:"required"`
	Code *string `json:"code"`
}
