package repository

import (
	"docpoint/internal/domain/entity"
	domainRepo "docpoint/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type walletRepository struct{}

func NewWalletRepository() domainRepo.WalletRepository {
	return &walletRepository{}
}

// Credit increments the party balance and appends the ledger entry in one
// transaction, so the balance never drifts from the signed sum of entries.
func (r *walletRepository) Credit(db *gorm.DB, partyID uuid.UUID, amount decimal.Decimal, entry domainRepo.WalletEntry) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.User{}).
			Where("id = ?", partyID).
			Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(newPartyTransaction(partyID, entity.TransactionTypeCredit, amount, entry)).Error
	})
}

// DebitIfSufficient performs the conditional decrement at the store layer:
// the WHERE clause makes the balance check and the subtraction a single
// atomic statement, so two concurrent debits can never both spend the same
// balance.
func (r *walletRepository) DebitIfSufficient(db *gorm.DB, partyID uuid.UUID, amount decimal.Decimal, entry domainRepo.WalletEntry) (bool, error) {
	debited := false
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.User{}).
			Where("id = ? AND wallet_balance >= ?", partyID, amount).
			Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		debited = true
		return tx.Create(newPartyTransaction(partyID, entity.TransactionTypeDebit, amount, entry)).Error
	})
	if err != nil {
		return false, err
	}
	return debited, nil
}

func (r *walletRepository) Balance(db *gorm.DB, partyID uuid.UUID) (decimal.Decimal, error) {
	var user entity.User
	if err := db.Select("wallet_balance").Where("id = ?", partyID).First(&user).Error; err != nil {
		return decimal.Zero, err
	}
	return user.WalletBalance, nil
}

func (r *walletRepository) CountTransactions(db *gorm.DB, partyID uuid.UUID) (int64, error) {
	var count int64
	err := db.Model(&entity.WalletTransaction{}).
		Where("scope = ? AND party_id = ?", entity.WalletScopeParty, partyID).
		Count(&count).Error
	return count, err
}

func (r *walletRepository) FindTransactions(db *gorm.DB, partyID uuid.UUID, page, limit int) ([]entity.WalletTransaction, int64, error) {
	query := db.Model(&entity.WalletTransaction{}).
		Where("scope = ? AND party_id = ?", entity.WalletScopeParty, partyID)

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

func newPartyTransaction(partyID uuid.UUID, txType entity.TransactionType, amount decimal.Decimal, entry domainRepo.WalletEntry) *entity.WalletTransaction {
	owner := partyID
	return &entity.WalletTransaction{
		Scope:       entity.WalletScopeParty,
		PartyID:     &owner,
		Type:        txType,
		Amount:      amount,
		UserID:      entry.UserID,
		DoctorID:    entry.DoctorID,
		BookingID:   entry.BookingID,
		Description: entry.Description,
	}
}
