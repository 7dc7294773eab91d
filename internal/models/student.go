package models

import (
	"strings"
	"time"
)

// StudentStatus tracks where a learner is in their school life.
type StudentStatus string

const (
	StudentStatusActive      StudentStatus = "active"
	StudentStatusGraduated   StudentStatus = "graduated"
	StudentStatusTransferred StudentStatus = "transferred"
	StudentStatusSuspended   StudentStatus = "suspended"
	StudentStatusWithdrawn   StudentStatus = "withdrawn"
)

// Valid reports whether s is a known status.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusGraduated, StudentStatusTransferred, StudentStatusSuspended, StudentStatusWithdrawn:
		return true
	}
	return false
}

// Student represents a learner registered in the school.
type Student struct {
	ID            string        `db:"id" json:"id"`
	SchoolID      string        `db:"school_id" json:"school_id"`
	ParentID      *string       `db:"parent_id" json:"parent_id,omitempty"`
	StudentNumber string        `db:"student_number" json:"student_number"`
	FirstName     string        `db:"first_name" json:"first_name"`
	LastName      string        `db:"last_name" json:"last_name"`
	OtherNames    *string       `db:"other_names" json:"other_names,omitempty"`
	Gender        string        `db:"gender" json:"gender"`
	DateOfBirth   time.Time     `db:"date_of_birth" json:"date_of_birth"`
	Nationality   string        `db:"nationality" json:"nationality"`
	Religion      *string       `db:"religion" json:"religion,omitempty"`
	AdmissionDate time.Time     `db:"admission_date" json:"admission_date"`
	Status        StudentStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// FullName joins first, other and last names.
func (s Student) FullName() string {
	parts := []string{s.FirstName}
	if s.OtherNames != nil && strings.TrimSpace(*s.OtherNames) != "" {
		parts = append(parts, strings.TrimSpace(*s.OtherNames))
	}
	parts = append(parts, s.LastName)
	return strings.Join(parts, " ")
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	SchoolID       string
	Search         string
	Status         string
	ClassID        string
	AcademicYearID string
	Page           int
	PageSize       int
}

// StudentListItem is a student row with the class of the current academic year.
type StudentListItem struct {
	Student
	ClassID   *string `db:"class_id" json:"class_id,omitempty"`
	ClassName *string `db:"class_name" json:"class_name,omitempty"`
}

// StudentSearchResult is the compact autocomplete view.
type StudentSearchResult struct {
	ID            string `db:"id" json:"id"`
	StudentNumber string `db:"student_number" json:"student_id"`
	Name          string `db:"name" json:"name"`
	ClassName     string `db:"class_name" json:"class"`
}

// StudentDetail contains a student with parent and enrolment context.
type StudentDetail struct {
	Student
	FullName          string       `json:"full_name"`
	Parent            *Parent      `json:"parent,omitempty"`
	CurrentEnrollment *Enrollment  `json:"current_enrollment,omitempty"`
	Enrollments       []Enrollment `json:"enrollments"`
	HasParentAccount  bool         `json:"has_parent_account"`
}

// Parent stores the father, mother and guardian contacts of a family.
type Parent struct {
	ID                   string    `db:"id" json:"id"`
	SchoolID             string    `db:"school_id" json:"school_id"`
	FatherName           *string   `db:"father_name" json:"father_name,omitempty"`
	FatherPhone          *string   `db:"father_phone" json:"father_phone,omitempty"`
	FatherEmail          *string   `db:"father_email" json:"father_email,omitempty"`
	MotherName           *string   `db:"mother_name" json:"mother_name,omitempty"`
	MotherPhone          *string   `db:"mother_phone" json:"mother_phone,omitempty"`
	MotherEmail          *string   `db:"mother_email" json:"mother_email,omitempty"`
	GuardianName         *string   `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianRelationship *string   `db:"guardian_relationship" json:"guardian_relationship,omitempty"`
	GuardianPhone        *string   `db:"guardian_phone" json:"guardian_phone,omitempty"`
	GuardianEmail        *string   `db:"guardian_email" json:"guardian_email,omitempty"`
	Address              *string   `db:"address" json:"address,omitempty"`
	PrimaryContactPhone  *string   `db:"primary_contact_phone" json:"primary_contact_phone,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// FirstEmail returns the first father, mother or guardian email on record.
func (p Parent) FirstEmail() string {
	for _, v := range []*string{p.FatherEmail, p.MotherEmail, p.GuardianEmail} {
		if v != nil && strings.TrimSpace(*v) != "" {
			return strings.TrimSpace(*v)
		}
	}
	return ""
}

// ContactPhone returns the primary contact, falling back to father then mother.
func (p Parent) ContactPhone() string {
	for _, v := range []*string{p.PrimaryContactPhone, p.FatherPhone, p.MotherPhone} {
		if v != nil && strings.TrimSpace(*v) != "" {
			return strings.TrimSpace(*v)
		}
	}
	return ""
}

// CreateStudentRequest carries the admission form.
type CreateStudentRequest struct {
	FirstName            string  `json:"first_name" validate:"required"`
	LastName             string  `json:"last_name" validate:"required"`
	OtherNames           *string `json:"other_names"`
	Gender               string  `json:"gender" validate:"required,oneof=male female"`
	DateOfBirth          string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Nationality          string  `json:"nationality"`
	Religion             *string `json:"religion"`
	ClassID              string  `json:"class_id"`
	FatherName           *string `json:"father_name"`
	FatherPhone          *string `json:"father_phone"`
	FatherEmail          *string `json:"father_email" validate:"omitempty,email"`
	MotherName           *string `json:"mother_name"`
	MotherPhone          *string `json:"mother_phone"`
	MotherEmail          *string `json:"mother_email" validate:"omitempty,email"`
	GuardianName         *string `json:"guardian_name"`
	GuardianRelationship *string `json:"guardian_relationship"`
	GuardianPhone        *string `json:"guardian_phone"`
	GuardianEmail        *string `json:"guardian_email" validate:"omitempty,email"`
	Address              *string `json:"address"`
}

// UpdateStudentRequest edits a student and the family contacts.
type UpdateStudentRequest struct {
	FirstName     string  `json:"first_name" validate:"required"`
	LastName      string  `json:"last_name" validate:"required"`
	OtherNames    *string `json:"other_names"`
	Gender        string  `json:"gender" validate:"required,oneof=male female"`
	DateOfBirth   string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Nationality   string  `json:"nationality"`
	Religion      *string `json:"religion"`
	FatherName    *string `json:"father_name"`
	FatherPhone   *string `json:"father_phone"`
	MotherName    *string `json:"mother_name"`
	MotherPhone   *string `json:"mother_phone"`
	GuardianName  *string `json:"guardian_name"`
	GuardianPhone *string `json:"guardian_phone"`
	Address       *string `json:"address"`
}

// EnrollStudentRequest places a student in a class for the current year.
type EnrollStudentRequest struct {
	ClassID string `json:"class_id" validate:"required"`
}

// UpdateStudentStatusRequest changes a student's status.
type UpdateStudentStatusRequest struct {
	Status StudentStatus `json:"status" validate:"required,oneof=active graduated transferred suspended withdrawn"`
}

// Parent account actions.
const (
	ParentActionCreateAccount = "create_account"
	ParentActionResetPassword = "reset_password"
	ParentActionToggleActive  = "toggle_active"
)

// ParentAccountRequest manages the login attached to a student's parent.
type ParentAccountRequest struct {
	Action   string `json:"action" validate:"required,oneof=create_account reset_password toggle_active"`
	Password string `json:"password"`
}

// ParentAccountView summarises a parent's login.
type ParentAccountView struct {
	Parent  Parent `json:"parent"`
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Active  bool   `json:"active"`
	Exists  bool   `json:"exists"`
	Message string `json:"message,omitempty"`
}
