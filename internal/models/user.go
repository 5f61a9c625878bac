package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of roles a principal can hold.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// ParseRole accepts the role name in any case.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// AccountType distinguishes free and premium accounts.
type AccountType string

const (
	AccountFree    AccountType = "free"
	AccountPremium AccountType = "premium"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string      `db:"id" json:"id"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	FullName     string      `db:"full_name" json:"full_name"`
	Role         Role        `db:"role" json:"role"`
	AccountType  AccountType `db:"account_type" json:"account_type"`
	Subject      *string     `db:"subject" json:"subject,omitempty"`
	AvatarURL    *string     `db:"avatar_url" json:"avatar_url,omitempty"`
	Active       bool        `db:"active" json:"active"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// SubjectName returns the teacher subject or an empty string.
func (u *User) SubjectName() string {
	if u == nil || u.Subject == nil {
		return ""
	}
	return *u.Subject
}

// Profile is the authenticated user's view of their own account.
type Profile struct {
	User
	CompletedCourseCount int `json:"completed_course_count"`
}

// UpdateProfileRequest is the payload of PUT /perfil. Nil fields are left untouched.
type UpdateProfileRequest struct {
	FullName    *string      `json:"full_name" validate:"omitempty,min=1,max=100"`
	AccountType *AccountType `json:"account_type" validate:"omitempty,oneof=free premium"`
	Password    *string      `json:"password" validate:"omitempty,min=8,max=100"`
	AvatarURL   *string      `json:"avatar_url" validate:"omitempty,url"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
