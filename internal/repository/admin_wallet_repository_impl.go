package repository

import (
	"errors"

	"docpoint/internal/domain/entity"
	domainRepo "docpoint/internal/domain/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type adminWalletRepository struct{}

func NewAdminWalletRepository() domainRepo.AdminWalletRepository {
	return &adminWalletRepository{}
}

func (r *adminWalletRepository) Credit(db *gorm.DB, amount decimal.Decimal, entry domainRepo.WalletEntry) error {
	return r.apply(db, entity.TransactionTypeCredit, amount, entry)
}

// Debit subtracts from the platform ledger. The balance is deliberately not
// floor-clamped: refunds can exceed lifetime commission and leave it negative.
func (r *adminWalletRepository) Debit(db *gorm.DB, amount decimal.Decimal, entry domainRepo.WalletEntry) error {
	return r.apply(db, entity.TransactionTypeDebit, amount, entry)
}

// apply lazily creates the singleton row, then runs the balance increment and
// the log append inside one transaction.
func (r *adminWalletRepository) apply(db *gorm.DB, txType entity.TransactionType, amount decimal.Decimal, entry domainRepo.WalletEntry) error {
	delta := amount
	if txType == entity.TransactionTypeDebit {
		delta = amount.Neg()
	}

	return db.Transaction(func(tx *gorm.DB) error {
		wallet := entity.AdminWallet{ID: entity.AdminWalletID}
		if err := tx.FirstOrCreate(&wallet, entity.AdminWallet{ID: entity.AdminWalletID}).Error; err != nil {
			return err
		}

		err := tx.Model(&entity.AdminWallet{}).
			Where("id = ?", entity.AdminWalletID).
			Update("total_balance", gorm.Expr("total_balance + ?", delta)).Error
		if err != nil {
			return err
		}

		return tx.Create(&entity.WalletTransaction{
			Scope:       entity.WalletScopeAdmin,
			Type:        txType,
			Amount:      amount,
			UserID:      entry.UserID,
			DoctorID:    entry.DoctorID,
			BookingID:   entry.BookingID,
			Description: entry.Description,
		}).Error
	})
}

func (r *adminWalletRepository) Get(db *gorm.DB) (*entity.AdminWallet, error) {
	var wallet entity.AdminWallet
	err := db.Where("id = ?", entity.AdminWalletID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No transaction has touched the ledger yet.
			return &entity.AdminWallet{ID: entity.AdminWalletID, TotalBalance: decimal.Zero}, nil
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *adminWalletRepository) CountTransactions(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&entity.WalletTransaction{}).
		Where("scope = ?", entity.WalletScopeAdmin).
		Count(&count).Error
	return count, err
}

func (r *adminWalletRepository) FindTransactions(db *gorm.DB, page, limit int) ([]entity.WalletTransaction, int64, error) {
	query := db.Model(&entity.WalletTransaction{}).
		Where("scope = ?", entity.WalletScopeAdmin)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var transactions []entity.WalletTransaction
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}
