package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type BookWithWalletRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	Date      string    `json:"date" validate:"required"` // Format: YYYY-MM-DD
	SlotStart string    `json:"slot_start" validate:"required"`
	SlotEnd   string    `json:"slot_end" validate:"required"`
	Amount    string    `json:"amount" validate:"required"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// Response DTOs

type BookingResponse struct {
	ID               uuid.UUID       `json:"id"`
	PatientID        uuid.UUID       `json:"patient_id"`
	DoctorID         uuid.UUID       `json:"doctor_id"`
	DoctorName       string          `json:"doctor_name,omitempty"`
	AppointmentDate  string          `json:"appointment_date"`
	SlotStart        string          `json:"slot_start"`
	SlotEnd          string          `json:"slot_end"`
	PaymentStatus    string          `json:"payment_status"`
	Status           string          `json:"status"`
	TransactionID    *string         `json:"transaction_id,omitempty"`
	DoctorEarning    decimal.Decimal `json:"doctor_earning"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	PayoutStatus     string          `json:"payout_status"`
	RefundStatus     string          `json:"refund_status"`
	CancellationReason *string       `json:"cancellation_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}
