package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	FullName    string      `json:"full_name"`
	Role        Role        `json:"role"`
	AccountType AccountType `json:"account_type"`
	Subject     string      `json:"subject,omitempty"`
}

// JWTClaims is the authenticated principal carried by access tokens.
type JWTClaims struct {
	UserID         string `json:"user_id"`
	Role           Role   `json:"role"`
	TeacherSubject string `json:"teacher_subject,omitempty"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	jwt.RegisteredClaims
}

// RevokedToken records a logged-out access token until it would have expired anyway.
type RevokedToken struct {
	JTI       string    `db:"jti"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	RevokedAt time.Time `db:"revoked_at"`
}
