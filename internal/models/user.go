package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role names known to the policy table
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User represents an account that can authenticate against the API.
// The password hash is write-only and never serialized.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	Role         string     `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// LoginRequest represents the credentials presented to POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token pair and the authenticated user
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`
}

// CreateUserRequest represents the admin request to create an account
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// ChangePasswordRequest represents a password change for the caller's account
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Validate validates the CreateUserRequest
func (req *CreateUserRequest) Validate() error {
	if !strings.Contains(req.Email, "@") {
		return errors.New("valid email is required")
	}
	if len(req.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if req.Role != RoleAdmin && req.Role != RoleViewer {
		return errors.New("role must be admin or viewer")
	}
	return nil
}

// Validate validates the ChangePasswordRequest
func (req *ChangePasswordRequest) Validate() error {
	if len(req.NewPassword) < 6 {
		return errors.New("new password must be at least 6 characters")
	}
	return nil
}
