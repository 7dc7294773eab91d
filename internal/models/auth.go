package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a staff user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// ParentLoginRequest authenticates a parent by any registered phone number.
type ParentLoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	Home        string    `json:"home"`
	IssuedAt    time.Time `json:"issued_at"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// ForgotPasswordRequest payload for initiating the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	SchoolID string   `json:"school_id"`
	StaffID  *string  `json:"staff_id,omitempty"`
	ParentID *string  `json:"parent_id,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	SchoolID string   `json:"school_id"`
	StaffID  string   `json:"staff_id,omitempty"`
	ParentID string   `json:"parent_id,omitempty"`
	jwt.RegisteredClaims
}

// Info converts claims into the public user view.
func (c *JWTClaims) Info() UserInfo {
	info := UserInfo{ID: c.UserID, Email: c.Email, Role: c.Role, SchoolID: c.SchoolID}
	if c.StaffID != "" {
		staffID := c.StaffID
		info.StaffID = &staffID
	}
	if c.ParentID != "" {
		parentID := c.ParentID
		info.ParentID = &parentID
	}
	return info
}
