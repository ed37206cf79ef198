package repository

import (
	"docpoint/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletEntry carries the optional counterparty references attached to a
// ledger entry.
type WalletEntry struct {
	Description string
	UserID      *uuid.UUID
	DoctorID    *uuid.UUID
	BookingID   *uuid.UUID
}

// WalletRepository manages per-party wallets: a balance embedded on the
// users row plus an append-only transaction log. Every mutation updates the
// balance and appends its entry in one storage transaction.
type WalletRepository interface {
	// Credit atomically adds amount to the party's balance and appends a
	// credit entry. Amount must be positive.
	Credit(db *gorm.DB, partyID uuid.UUID, amount decimal.Decimal, entry WalletEntry) error

	// DebitIfSufficient atomically subtracts amount only when the current
	// balance covers it, appending a debit entry on success. Returns false
	// with no mutation when the balance is insufficient.
	DebitIfSufficient(db *gorm.DB, partyID uuid.UUID, amount decimal.Decimal, entry WalletEntry) (bool, error)

	Balance(db *gorm.DB, partyID uuid.UUID) (decimal.Decimal, error)
	CountTransactions(db *gorm.DB, partyID uuid.UUID) (int64, error)
	FindTransactions(db *gorm.DB, partyID uuid.UUID, page, limit int) ([]entity.WalletTransaction, int64, error)
}

// AdminWalletRepository manages the singleton platform ledger. The row is
// created lazily on first use; debits are not floor-clamped, the balance may
// go negative.
type AdminWalletRepository interface {
	Credit(db *gorm.DB, amount decimal.Decimal, entry WalletEntry) error
	Debit(db *gorm.DB, amount decimal.Decimal, entry WalletEntry) error
	Get(db *gorm.DB) (*entity.AdminWallet, error)
	CountTransactions(db *gorm.DB) (int64, error)
	FindTransactions(db *gorm.DB, page, limit int) ([]entity.WalletTransaction, int64, error)
}
