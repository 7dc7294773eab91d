package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin      UserRole = "super_admin"
	RoleHeadteacher     UserRole = "headteacher"
	RoleAdmin           UserRole = "admin"
	RoleTeacher         UserRole = "teacher"
	RoleAccountsOfficer UserRole = "accounts_officer"
	RoleParent          UserRole = "parent"
)

// Role groups used by route guards.
var (
	AdminRoles    = []UserRole{RoleSuperAdmin, RoleHeadteacher, RoleAdmin}
	TeacherRoles  = []UserRole{RoleSuperAdmin, RoleHeadteacher, RoleAdmin, RoleTeacher}
	AccountsRoles = []UserRole{RoleSuperAdmin, RoleHeadteacher, RoleAdmin, RoleAccountsOfficer}
	StaffRoles    = []UserRole{RoleSuperAdmin, RoleHeadteacher, RoleAdmin, RoleTeacher, RoleAccountsOfficer}
	ParentRoles   = []UserRole{RoleParent}
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleHeadteacher, RoleAdmin, RoleTeacher, RoleAccountsOfficer, RoleParent:
		return true
	}
	return false
}

// IsAdmin reports membership of the admin group.
func (r UserRole) IsAdmin() bool {
	return r.In(AdminRoles)
}

// In reports whether r is one of roles.
func (r UserRole) In(roles []UserRole) bool {
	for _, role := range roles {
		if role == r {
			return true
		}
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	SchoolID     string     `db:"school_id" json:"school_id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	StaffID      *string    `db:"staff_id" json:"staff_id,omitempty"`
	ParentID     *string    `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// DefaultPageSize is used by every paginated listing.
const DefaultPageSize = 25

// NewPagination fills in the page count for a listing.
func NewPagination(page, size, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (total + size - 1) / size
	return &Pagination{Page: page, PageSize: size, TotalCount: total, TotalPages: pages}
}

// PageBounds normalises paging input into LIMIT/OFFSET values.
func PageBounds(page, size int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = DefaultPageSize
	}
	return size, (page - 1) * size
}
