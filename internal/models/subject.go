package models

import "time"

// Subject is a taught course such as "Mathematics".
type Subject struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	Name         string    `db:"name" json:"name"`
	Code         *string   `db:"code" json:"code,omitempty"`
	IsCore       bool      `db:"is_core" json:"is_core"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSubject assigns a subject and teacher to a class for a year.
type ClassSubject struct {
	ID             string    `db:"id" json:"id"`
	ClassID        string    `db:"class_id" json:"class_id"`
	SubjectID      string    `db:"subject_id" json:"subject_id"`
	TeacherID      *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	AcademicYearID string    `db:"academic_year_id" json:"academic_year_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSubjectDetail joins class, subject and teacher names.
type ClassSubjectDetail struct {
	ClassSubject
	SchoolID     string  `db:"school_id" json:"school_id"`
	ClassName    string  `db:"class_name" json:"class_name"`
	ClassLevel   string  `db:"class_level" json:"class_level"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	SubjectCode  *string `db:"subject_code" json:"subject_code,omitempty"`
	TeacherName  *string `db:"teacher_name" json:"teacher_name,omitempty"`
	StudentCount int     `db:"student_count" json:"student_count"`
}
