package models

import "time"

// DefaultStaffPassword is assigned to new staff logins created without one.
const DefaultStaffPassword = "changeme123"

// Staff is an employee of the school.
type Staff struct {
	ID            string     `db:"id" json:"id"`
	SchoolID      string     `db:"school_id" json:"school_id"`
	StaffNumber   string     `db:"staff_number" json:"staff_number"`
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName      string     `db:"last_name" json:"last_name"`
	OtherNames    *string    `db:"other_names" json:"other_names,omitempty"`
	Gender        string     `db:"gender" json:"gender"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Phone         *string    `db:"phone" json:"phone,omitempty"`
	Email         *string    `db:"email" json:"email,omitempty"`
	Address       *string    `db:"address" json:"address,omitempty"`
	Position      *string    `db:"position" json:"position,omitempty"`
	DepartmentID  *string    `db:"department_id" json:"department_id,omitempty"`
	Qualification *string    `db:"qualification" json:"qualification,omitempty"`
	DateEmployed  *time.Time `db:"date_employed" json:"date_employed,omitempty"`
	Active        bool       `db:"active" json:"active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last names.
func (s Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StaffListItem adds the department name to a staff row.
type StaffListItem struct {
	Staff
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// StaffFilter narrows staff listings.
type StaffFilter struct {
	SchoolID     string
	Search       string
	DepartmentID string
	Page         int
	PageSize     int
}

// Department groups staff and subjects.
type Department struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Name      string    `db:"name" json:"name"`
	Code      *string   `db:"code" json:"code,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CreateStaffRequest registers an employee and optionally a login.
type CreateStaffRequest struct {
	FirstName     string   `json:"first_name" validate:"required"`
	LastName      string   `json:"last_name" validate:"required"`
	OtherNames    *string  `json:"other_names"`
	Gender        string   `json:"gender" validate:"required,oneof=male female"`
	DateOfBirth   string   `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Phone         *string  `json:"phone"`
	Email         *string  `json:"email" validate:"omitempty,email"`
	Address       *string  `json:"address"`
	Position      *string  `json:"position"`
	DepartmentID  *string  `json:"department_id"`
	Qualification *string  `json:"qualification"`
	DateEmployed  string   `json:"date_employed" validate:"omitempty,datetime=2006-01-02"`
	Role          UserRole `json:"role" validate:"omitempty,oneof=super_admin headteacher admin teacher accounts_officer"`
	Password      string   `json:"password" validate:"omitempty,min=6"`
}

// UpdateStaffRequest edits an employee record.
type UpdateStaffRequest struct {
	FirstName     string  `json:"first_name" validate:"required"`
	LastName      string  `json:"last_name" validate:"required"`
	OtherNames    *string `json:"other_names"`
	Gender        string  `json:"gender" validate:"required,oneof=male female"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Address       *string `json:"address"`
	Position      *string `json:"position"`
	DepartmentID  *string `json:"department_id"`
	Qualification *string `json:"qualification"`
}

// StaffDetail is a staff member with login context.
type StaffDetail struct {
	Staff
	DepartmentName *string   `json:"department_name,omitempty"`
	UserID         *string   `json:"user_id,omitempty"`
	Role           *UserRole `json:"role,omitempty"`
}
