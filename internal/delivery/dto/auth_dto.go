package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RegisterPatientRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,min=2"`
}

type RegisterDoctorRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	FullName        string `json:"full_name" validate:"required,min=2"`
	Specialization  string `json:"specialization" validate:"required"`
	ConsultationFee string `json:"consultation_fee" validate:"required"`
	Biography       string `json:"biography" validate:"omitempty"`
}

// Response DTOs

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type UserResponse struct {
	ID            uuid.UUID              `json:"id"`
	Email         string                 `json:"email"`
	FullName      string                 `json:"full_name"`
	Role          string                 `json:"role"`
	WalletBalance decimal.Decimal        `json:"wallet_balance"`
	DoctorProfile *DoctorProfileResponse `json:"doctor_profile,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

type DoctorProfileResponse struct {
	Specialization  string          `json:"specialization"`
	ConsultationFee decimal.Decimal `json:"consultation_fee"`
	IsVerified      bool            `json:"is_verified"`
	Biography       string          `json:"biography,omitempty"`
}
