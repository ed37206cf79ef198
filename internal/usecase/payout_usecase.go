package usecase

import (
	"context"
	"errors"
	"fmt"

	"docpoint/internal/delivery/dto"
	"docpoint/internal/delivery/http/middleware"
	"docpoint/internal/domain/entity"
	"docpoint/internal/domain/repository"
	"docpoint/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrNoPendingPayouts = errors.New("doctor has no pending payouts")

type PayoutUsecase interface {
	// PayoutDoctor settles every completed booking whose doctor share is
	// still pending: one admin-wallet debit, one doctor-wallet credit, and a
	// bulk payout_status update over exactly the fetched set.
	PayoutDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.PayoutResponse, error)
}

type payoutUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	bookingRepo     repository.BookingRepository
	walletRepo      repository.WalletRepository
	adminWalletRepo repository.AdminWalletRepository
	doctorRepo      repository.DoctorProfileRepository
	auditService    service.AuditService
}

func NewPayoutUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	walletRepo repository.WalletRepository,
	adminWalletRepo repository.AdminWalletRepository,
	doctorRepo repository.DoctorProfileRepository,
	auditService service.AuditService,
) PayoutUsecase {
	return &payoutUsecase{
		db:              db,
		log:             log,
		bookingRepo:     bookingRepo,
		walletRepo:      walletRepo,
		adminWalletRepo: adminWalletRepo,
		doctorRepo:      doctorRepo,
		auditService:    auditService,
	}
}

// PayoutDoctor prices the batch from the bookings fetched up front, then
// marks exactly those ids paid. A booking that completes while the payout is
// running is not silently swept in; it waits for the next run, so the bulk
// update never covers money the batch total did not include.
func (u *payoutUsecase) PayoutDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.PayoutResponse, error) {
	doctor, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	pending, err := u.bookingRepo.FindPendingPayoutsByDoctor(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to fetch pending payouts for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if len(pending) == 0 {
		return nil, ErrNoPendingPayouts
	}

	totalAmount := decimal.Zero
	ids := make([]uuid.UUID, 0, len(pending))
	for _, booking := range pending {
		totalAmount = totalAmount.Add(booking.DoctorEarning)
		ids = append(ids, booking.ID)
	}

	err = u.adminWalletRepo.Debit(u.db.WithContext(ctx), totalAmount, repository.WalletEntry{
		Description: fmt.Sprintf("Payout to doctor for %d completed bookings", len(ids)),
		DoctorID:    &doctorID,
	})
	if err != nil {
		u.log.Errorf("Admin wallet debit failed for payout to doctor %s: %+v", doctorID, err)
		return nil, err
	}

	err = u.walletRepo.Credit(u.db.WithContext(ctx), doctorID, totalAmount, repository.WalletEntry{
		Description: "Payout for completed bookings",
		DoctorID:    &doctorID,
	})
	if err != nil {
		u.log.Errorf("Doctor wallet credit failed after admin debit for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	if err := u.bookingRepo.MarkPayoutPaid(u.db.WithContext(ctx), ids); err != nil {
		u.log.Errorf("Failed to mark %d bookings paid out for doctor %s: %+v", len(ids), doctorID, err)
		return nil, err
	}

	var actor *uuid.UUID
	if actorID, ok := middleware.GetUserIDFromContext(ctx); ok {
		actor = &actorID
	}
	u.auditService.Record(u.db.WithContext(ctx), actor, entity.AuditActionPayout, entity.JSON{
		"doctor_id":    doctorID.String(),
		"total_amount": totalAmount.String(),
		"bookings":     len(ids),
	})

	u.log.Infof("Payout settled: doctor=%s, amount=%s, bookings=%d", doctorID, totalAmount, len(ids))
	return &dto.PayoutResponse{
		DoctorID:    doctorID,
		TotalAmount: totalAmount,
		BookingIDs:  ids,
	}, nil
}
