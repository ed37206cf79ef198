package usecase

import (
	"context"
	"errors"

	"docpoint/internal/converter"
	"docpoint/internal/delivery/dto"
	"docpoint/internal/delivery/http/middleware"
	"docpoint/internal/domain/entity"
	"docpoint/internal/domain/repository"
	"docpoint/internal/service"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type WalletUsecase interface {
	// TopUpWallet credits the authenticated user's wallet and returns the
	// updated summary.
	TopUpWallet(ctx context.Context, req *dto.TopUpWalletRequest) (*dto.WalletSummaryResponse, error)
	GetMyWalletSummary(ctx context.Context) (*dto.WalletSummaryResponse, error)
	GetMyWalletTransactions(ctx context.Context, page, limit int) (*dto.WalletTransactionsResponse, error)
	GetAdminWalletSummary(ctx context.Context) (*dto.WalletSummaryResponse, error)
	GetAdminWalletTransactions(ctx context.Context, page, limit int) (*dto.WalletTransactionsResponse, error)
}

type walletUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	walletRepo      repository.WalletRepository
	adminWalletRepo repository.AdminWalletRepository
	auditService    service.AuditService
}

func NewWalletUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	walletRepo repository.WalletRepository,
	adminWalletRepo repository.AdminWalletRepository,
	auditService service.AuditService,
) WalletUsecase {
	return &walletUsecase{
		db:              db,
		log:             log,
		walletRepo:      walletRepo,
		adminWalletRepo: adminWalletRepo,
		auditService:    auditService,
	}
}

func (u *walletUsecase) TopUpWallet(ctx context.Context, req *dto.TopUpWalletRequest) (*dto.WalletSummaryResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() || amount.Exponent() < -2 {
		return nil, ErrInvalidAmount
	}

	err = u.walletRepo.Credit(u.db.WithContext(ctx), userID, amount, repository.WalletEntry{
		Description: "Wallet top up",
		UserID:      &userID,
	})
	if err != nil {
		u.log.Warnf("Failed to top up wallet for %s: %+v", userID, err)
		return nil, err
	}

	u.auditService.Record(u.db.WithContext(ctx), &userID, entity.AuditActionWalletCredit, entity.JSON{
		"amount": amount.String(),
		"kind":   "top_up",
	})

	u.log.Infof("Wallet topped up: user=%s, amount=%s", userID, amount)
	return u.GetMyWalletSummary(ctx)
}

func (u *walletUsecase) GetMyWalletSummary(ctx context.Context) (*dto.WalletSummaryResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	balance, err := u.walletRepo.Balance(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to read wallet balance for %s: %+v", userID, err)
		return nil, err
	}

	count, err := u.walletRepo.CountTransactions(u.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	return &dto.WalletSummaryResponse{
		Balance:          balance,
		TransactionCount: count,
	}, nil
}

func (u *walletUsecase) GetMyWalletTransactions(ctx context.Context, page, limit int) (*dto.WalletTransactionsResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	balance, err := u.walletRepo.Balance(u.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	transactions, total, err := u.walletRepo.FindTransactions(u.db.WithContext(ctx), userID, page, limit)
	if err != nil {
		u.log.Warnf("Failed to list wallet transactions for %s: %+v", userID, err)
		return nil, err
	}

	return &dto.WalletTransactionsResponse{
		Balance:      balance,
		Transactions: converter.WalletTransactionsToResponses(transactions),
		Total:        total,
	}, nil
}

func (u *walletUsecase) GetAdminWalletSummary(ctx context.Context) (*dto.WalletSummaryResponse, error) {
	wallet, err := u.adminWalletRepo.Get(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to read admin wallet: %+v", err)
		return nil, err
	}

	count, err := u.adminWalletRepo.CountTransactions(u.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	return &dto.WalletSummaryResponse{
		Balance:          wallet.TotalBalance,
		TransactionCount: count,
	}, nil
}

func (u *walletUsecase) GetAdminWalletTransactions(ctx context.Context, page, limit int) (*dto.WalletTransactionsResponse, error) {
	wallet, err := u.adminWalletRepo.Get(u.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	transactions, total, err := u.adminWalletRepo.FindTransactions(u.db.WithContext(ctx), page, limit)
	if err != nil {
		u.log.Warnf("Failed to list admin wallet transactions: %+v", err)
		return nil, err
	}

	return &dto.WalletTransactionsResponse{
		Balance:      wallet.TotalBalance,
		Transactions: converter.WalletTransactionsToResponses(transactions),
		Total:        total,
	}, nil
}
