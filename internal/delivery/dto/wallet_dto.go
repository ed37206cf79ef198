package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

type TopUpWalletRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// Response DTOs

type WalletSummaryResponse struct {
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int64           `json:"transaction_count"`
}

type WalletTransactionResponse struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	UserID      *uuid.UUID      `json:"user_id,omitempty"`
	DoctorID    *uuid.UUID      `json:"doctor_id,omitempty"`
	BookingID   *uuid.UUID      `json:"booking_id,omitempty"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

type WalletTransactionsResponse struct {
	Balance      decimal.Decimal             `json:"balance"`
	Transactions []WalletTransactionResponse `json:"transactions"`
	Total        int64                       `json:"total"`
}

type PayoutResponse struct {
	DoctorID    uuid.UUID       `json:"doctor_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	BookingIDs  []uuid.UUID     `json:"booking_ids"`
}
