package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// WalletScope distinguishes the singleton platform ledger from per-party wallets
type WalletScope string

const (
	WalletScopeAdmin WalletScope = "admin"
	WalletScopeParty WalletScope = "party"
)

// WalletTransaction is one immutable ledger entry. Entries are only ever
// appended; a wallet's balance must equal the signed sum of its entries.
type WalletTransaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Scope       WalletScope     `gorm:"type:varchar(10);not null;index:idx_wallet_owner" json:"scope"`
	PartyID     *uuid.UUID      `gorm:"type:uuid;index:idx_wallet_owner" json:"party_id,omitempty"`
	Type        TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	UserID      *uuid.UUID      `gorm:"type:uuid" json:"user_id,omitempty"`
	DoctorID    *uuid.UUID      `gorm:"type:uuid" json:"doctor_id,omitempty"`
	BookingID   *uuid.UUID      `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	Description string          `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// SignedAmount returns the amount with debit entries negated, so that
// summing SignedAmount over a wallet's entries reproduces its balance.
func (t *WalletTransaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
