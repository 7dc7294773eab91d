package models

import "time"

// Enrollment places a student in one class for an academic year.
type Enrollment struct {
	ID               string    `db:"id" json:"id"`
	StudentID        string    `db:"student_id" json:"student_id"`
	ClassID          string    `db:"class_id" json:"class_id"`
	AcademicYearID   string    `db:"academic_year_id" json:"academic_year_id"`
	EnrollmentDate   time.Time `db:"enrollment_date" json:"enrollment_date"`
	ClassName        string    `db:"class_name" json:"class_name,omitempty"`
	ClassLevel       string    `db:"class_level" json:"class_level,omitempty"`
	AcademicYearName string    `db:"academic_year_name" json:"academic_year_name,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// EnrolledStudent is a student row within a class roster.
type EnrolledStudent struct {
	EnrollmentID  string  `db:"enrollment_id" json:"enrollment_id"`
	StudentID     string  `db:"student_id" json:"student_id"`
	StudentNumber string  `db:"student_number" json:"student_number"`
	FirstName     string  `db:"first_name" json:"first_name"`
	LastName      string  `db:"last_name" json:"last_name"`
	OtherNames    *string `db:"other_names" json:"other_names,omitempty"`
	Gender        string  `db:"gender" json:"gender"`
}

// FullName joins the roster row names.
func (e EnrolledStudent) FullName() string {
	return Student{FirstName: e.FirstName, LastName: e.LastName, OtherNames: e.OtherNames}.FullName()
}
