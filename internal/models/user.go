package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Password          string            `json:"-"`
	Role              Role              `json:"role"`
	IsVerified        bool              `json:"isVerified"`
	Token             string            `json:"-"`
	TokenExpiry       *time.Time        `json:"-"`
	ShippingAddresses []ShippingAddress `json:"shippingAddresses,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// for registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// for login response
type LoginResponse struct {
	Success        bool   `json:"success"`
	Token          string `json:"token,omitempty"`
	ExpiresIn      int    `json:"expiresIn,omitempty"`
	RemainingTries int    `json:"remainingTries,omitempty"`
	RetryAfter     int    `json:"retryAfter,omitempty"`
	Message        string `json:"message,omitempty"`
	User           *User  `json:"user,omitempty"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// JWT claims structure
type Claims struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}
