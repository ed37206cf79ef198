package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdminWallet is the single platform ledger. It accumulates the gross fee of
// every paid booking and absorbs refunds and doctor payouts, so its balance
// can legitimately go negative when refunds outrun lifetime commission.
//
// There is exactly one row; it is created lazily on the first transaction.
type AdminWallet struct {
	ID           int             `gorm:"primaryKey" json:"id"`
	TotalBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_balance"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AdminWallet) TableName() string {
	return "admin_wallets"
}

// AdminWalletID is the fixed primary key of the singleton row.
const AdminWalletID = 1
