package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docpoint/internal/converter"
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

var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrBookingNotOwned        = errors.New("booking does not belong to you")
	ErrBookingNotUpcoming     = errors.New("booking is no longer upcoming")
	ErrAppointmentStarted     = errors.New("appointment has already started")
	ErrAppointmentNotFinished = errors.New("appointment slot has not ended yet")
	ErrSlotTaken              = errors.New("doctor already has a booking in this slot")
	ErrInsufficientBalance    = errors.New("insufficient wallet balance")
	ErrInvalidAmount          = errors.New("amount must be a positive number")
	ErrInvalidDateFormat      = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidSlot            = errors.New("invalid slot, use HH:MM with start before end")
	ErrInvalidPaymentMetadata = errors.New("payment notification metadata is invalid")
	ErrDuplicateTransaction   = errors.New("payment reference was already processed")
	ErrDoctorNotFound         = errors.New("doctor not found")
	ErrPatientNotFound        = errors.New("patient not found")
)

// ReplayGuard is the webhook idempotency check consulted before any booking
// is created from a payment notification.
type ReplayGuard interface {
	Claim(ctx context.Context, externalReference string) error
	Release(ctx context.Context, externalReference string)
}

type BookingUsecase interface {
	// CreateBookingFromPayment turns a verified gateway notification into a
	// paid booking and credits the platform ledger with the gross fee.
	CreateBookingFromPayment(ctx context.Context, notification *dto.PaymentNotification) (*dto.BookingResponse, error)

	// BookWithWallet books a slot funded from the patient's own wallet.
	BookWithWallet(ctx context.Context, req *dto.BookWithWalletRequest) (*dto.BookingResponse, error)

	// CancelBooking cancels an upcoming booking and refunds the full gross
	// fee to the patient's wallet, debiting the platform ledger.
	CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) error

	// CompleteBooking marks an appointment as having taken place, making its
	// doctor share eligible for payout.
	CompleteBooking(ctx context.Context, bookingID uuid.UUID) error

	GetMyBookings(ctx context.Context) (*dto.BookingListResponse, error)
	GetDoctorBookings(ctx context.Context) (*dto.BookingListResponse, error)
}

type bookingUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	commissionRate  decimal.Decimal
	bookingRepo     repository.BookingRepository
	walletRepo      repository.WalletRepository
	adminWalletRepo repository.AdminWalletRepository
	userRepo        repository.UserRepository
	doctorRepo      repository.DoctorProfileRepository
	replayGuard     ReplayGuard
	auditService    service.AuditService
	notifier        service.Notifier

	now func() time.Time
}

func NewBookingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	commissionRate decimal.Decimal,
	bookingRepo repository.BookingRepository,
	walletRepo repository.WalletRepository,
	adminWalletRepo repository.AdminWalletRepository,
	userRepo repository.UserRepository,
	doctorRepo repository.DoctorProfileRepository,
	replayGuard ReplayGuard,
	auditService service.AuditService,
	notifier service.Notifier,
) BookingUsecase {
	return &bookingUsecase{
		db:              db,
		log:             log,
		commissionRate:  commissionRate,
		bookingRepo:     bookingRepo,
		walletRepo:      walletRepo,
		adminWalletRepo: adminWalletRepo,
		userRepo:        userRepo,
		doctorRepo:      doctorRepo,
		replayGuard:     replayGuard,
		auditService:    auditService,
		notifier:        notifier,
		now:             time.Now,
	}
}

// CreateBookingFromPayment is invoked by the webhook handler after signature
// verification.
//
// Flow:
// 1. Validate the opaque gateway metadata (no mutation on failure)
// 2. Claim the external reference in Redis (fast replay rejection)
// 3. Reject an overlapping slot for the doctor
// 4. Create the booking (unique index on transaction_id is the backstop
//    against replays that outlive the Redis key)
// 5. Credit the admin wallet with the gross fee
//
// A wallet-credit failure after step 4 leaves a paid booking with no ledger
// entry. That partial state is logged and surfaced, not compensated.
func (u *bookingUsecase) CreateBookingFromPayment(ctx context.Context, notification *dto.PaymentNotification) (*dto.BookingResponse, error) {
	meta, err := parsePaymentNotification(notification)
	if err != nil {
		u.log.Warnf("Rejected payment notification %s: %+v", notification.ExternalReference, err)
		return nil, ErrInvalidPaymentMetadata
	}

	patient, err := u.userRepo.FindByID(u.db.WithContext(ctx), meta.patientID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	doctor, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), meta.doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	if err := u.replayGuard.Claim(ctx, meta.reference); err != nil {
		if errors.Is(err, service.ErrDuplicateDelivery) {
			return nil, ErrDuplicateTransaction
		}
		return nil, err
	}

	existing, err := u.bookingRepo.FindOverlapping(u.db.WithContext(ctx), meta.doctorID, meta.date, meta.slotStart, meta.slotEnd)
	if err != nil {
		u.replayGuard.Release(ctx, meta.reference)
		return nil, err
	}
	if existing != nil {
		u.replayGuard.Release(ctx, meta.reference)
		return nil, ErrSlotTaken
	}

	earning, commission := entity.SplitFee(meta.fee, u.commissionRate)
	reference := meta.reference
	booking := &entity.Booking{
		PatientID:        meta.patientID,
		DoctorID:         meta.doctorID,
		AppointmentDate:  meta.date,
		SlotStart:        meta.slotStart,
		SlotEnd:          meta.slotEnd,
		PaymentStatus:    entity.PaymentStatusPaid,
		Status:           entity.BookingStatusUpcoming,
		TransactionID:    &reference,
		DoctorEarning:    earning,
		CommissionAmount: commission,
	}

	if err := u.bookingRepo.Create(u.db.WithContext(ctx), booking); err != nil {
		if isDuplicateKeyError(err, "transaction_id") {
			return nil, ErrDuplicateTransaction
		}
		u.replayGuard.Release(ctx, meta.reference)
		u.log.Warnf("Failed to create booking for payment %s: %+v", meta.reference, err)
		return nil, err
	}

	bookingID := booking.ID
	patientID := meta.patientID
	err = u.adminWalletRepo.Credit(u.db.WithContext(ctx), meta.fee, repository.WalletEntry{
		Description: fmt.Sprintf("Booking fee for appointment on %s", meta.date.Format("2006-01-02")),
		UserID:      &patientID,
		BookingID:   &bookingID,
	})
	if err != nil {
		// Paid booking with no matching ledger entry. Recovery is manual.
		u.log.Errorf("Admin wallet credit failed after booking %s was created (payment %s): %+v", booking.ID, meta.reference, err)
		return nil, err
	}

	u.auditService.Record(u.db.WithContext(ctx), &patientID, entity.AuditActionBookingCreate, entity.JSON{
		"booking_id":     booking.ID.String(),
		"transaction_id": meta.reference,
		"fee":            meta.fee.String(),
	})

	go u.sendBookingEmail(patient.Email, booking)

	u.log.Infof("Booking created from payment: id=%s, reference=%s, fee=%s", booking.ID, meta.reference, meta.fee)
	return converter.BookingToResponse(booking), nil
}

// BookWithWallet books synchronously against the patient's wallet.
//
// Ordering matters: the conditional debit runs before the booking is
// created, so a debit failure never produces an unpaid-for booking, and two
// concurrent attempts can never both spend the same balance.
func (u *bookingUsecase) BookWithWallet(ctx context.Context, req *dto.BookWithWalletRequest) (*dto.BookingResponse, error) {
	patientID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	// Sub-cent amounts would be rounded by the numeric(12,2) columns and
	// break the split-sums-back-to-fee guarantee, so they are rejected here.
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() || amount.Exponent() < -2 {
		return nil, ErrInvalidAmount
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	if err := validateSlot(req.SlotStart, req.SlotEnd); err != nil {
		return nil, err
	}

	doctor, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	existing, err := u.bookingRepo.FindOverlapping(u.db.WithContext(ctx), req.DoctorID, date, req.SlotStart, req.SlotEnd)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSlotTaken
	}

	debited, err := u.walletRepo.DebitIfSufficient(u.db.WithContext(ctx), patientID, amount, repository.WalletEntry{
		Description: fmt.Sprintf("Appointment with %s on %s %s", doctor.User.FullName, req.Date, req.SlotStart),
		DoctorID:    &req.DoctorID,
	})
	if err != nil {
		return nil, err
	}
	if !debited {
		return nil, ErrInsufficientBalance
	}

	earning, commission := entity.SplitFee(amount, u.commissionRate)
	booking := &entity.Booking{
		PatientID:        patientID,
		DoctorID:         req.DoctorID,
		AppointmentDate:  date,
		SlotStart:        req.SlotStart,
		SlotEnd:          req.SlotEnd,
		PaymentStatus:    entity.PaymentStatusPaid,
		Status:           entity.BookingStatusUpcoming,
		DoctorEarning:    earning,
		CommissionAmount: commission,
	}

	if err := u.bookingRepo.Create(u.db.WithContext(ctx), booking); err != nil {
		// Wallet already debited; the ledger now holds money with no
		// booking attached. Not compensated automatically.
		u.log.Errorf("Booking insert failed after wallet debit for patient %s: %+v", patientID, err)
		return nil, err
	}

	bookingID := booking.ID
	err = u.adminWalletRepo.Credit(u.db.WithContext(ctx), amount, repository.WalletEntry{
		Description: fmt.Sprintf("Wallet booking fee for appointment on %s", req.Date),
		UserID:      &patientID,
		BookingID:   &bookingID,
	})
	if err != nil {
		u.log.Errorf("Admin wallet credit failed after wallet booking %s: %+v", booking.ID, err)
		return nil, err
	}

	u.auditService.Record(u.db.WithContext(ctx), &patientID, entity.AuditActionBookingCreate, entity.JSON{
		"booking_id": booking.ID.String(),
		"fee":        amount.String(),
		"funding":    "wallet",
	})

	u.log.Infof("Wallet booking created: id=%s, patient=%s, amount=%s", booking.ID, patientID, amount)
	return converter.BookingToResponse(booking), nil
}

// CancelBooking refunds the full gross fee to the patient regardless of who
// cancels; the admin wallet absorbs the commission loss.
//
// Preconditions are checked in order, each with its own failure mode:
// booking exists, actor is the owning patient or the booking's doctor, the
// booking is still upcoming, and the slot has not started yet.
func (u *bookingUsecase) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) error {
	actorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return errors.New("user not found in context")
	}
	roleID, _ := middleware.GetRoleIDFromContext(ctx)

	booking, err := u.bookingRepo.FindByID(u.db.WithContext(ctx), bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}

	ownsAsPatient := booking.PatientID == actorID
	ownsAsDoctor := roleID == entity.RoleIDDoctor && booking.DoctorID == actorID
	if !ownsAsPatient && !ownsAsDoctor {
		return ErrBookingNotOwned
	}

	if !booking.IsUpcoming() {
		return ErrBookingNotUpcoming
	}

	startsAt, err := booking.StartsAt()
	if err != nil {
		return err
	}
	if !u.now().Before(startsAt) {
		return ErrAppointmentStarted
	}

	// Conditional transition: a concurrent cancel loses here and never
	// reaches the refund, so wallet balances move exactly once.
	rows, err := u.bookingRepo.Cancel(u.db.WithContext(ctx), bookingID, reason)
	if err != nil {
		u.log.Warnf("Failed to cancel booking %s: %+v", bookingID, err)
		return err
	}
	if rows == 0 {
		return ErrBookingNotUpcoming
	}

	refund := booking.GrossFee()
	patientID := booking.PatientID
	id := bookingID

	err = u.walletRepo.Credit(u.db.WithContext(ctx), patientID, refund, repository.WalletEntry{
		Description: fmt.Sprintf("Refund for cancelled booking on %s", booking.AppointmentDate.Format("2006-01-02")),
		BookingID:   &id,
	})
	if err != nil {
		u.log.Errorf("Refund credit failed for cancelled booking %s: %+v", bookingID, err)
		return err
	}

	err = u.adminWalletRepo.Debit(u.db.WithContext(ctx), refund, repository.WalletEntry{
		Description: fmt.Sprintf("Refund of cancelled booking %s", bookingID),
		UserID:      &actorID,
		BookingID:   &id,
	})
	if err != nil {
		u.log.Errorf("Admin wallet debit failed for cancelled booking %s: %+v", bookingID, err)
		return err
	}

	if err := u.bookingRepo.UpdateRefundStatus(u.db.WithContext(ctx), bookingID, entity.RefundStatusRefunded); err != nil {
		u.log.Warnf("Failed to mark booking %s refunded: %+v", bookingID, err)
		return err
	}

	u.auditService.Record(u.db.WithContext(ctx), &actorID, entity.AuditActionBookingCancel, entity.JSON{
		"booking_id": bookingID.String(),
		"refund":     refund.String(),
		"reason":     reason,
	})

	patient, err := u.userRepo.FindByID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s for cancellation email: %+v", patientID, err)
	} else if patient != nil {
		go u.sendCancellationEmail(patient.Email, booking, refund)
	}

	u.log.Infof("Booking cancelled: id=%s, actor=%s, refund=%s", bookingID, actorID, refund)
	return nil
}

// CompleteBooking is invoked by the doctor after the slot has ended. It is
// the transition that feeds the payout pipeline; the doctor share stays
// payout_status=pending until the next payout run.
func (u *bookingUsecase) CompleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	doctorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return errors.New("user not found in context")
	}

	booking, err := u.bookingRepo.FindByID(u.db.WithContext(ctx), bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return ErrBookingNotFound
	}
	if booking.DoctorID != doctorID {
		return ErrBookingNotOwned
	}
	if !booking.IsUpcoming() {
		return ErrBookingNotUpcoming
	}

	endsAt, err := booking.EndsAt()
	if err != nil {
		return err
	}
	if u.now().Before(endsAt) {
		return ErrAppointmentNotFinished
	}

	rows, err := u.bookingRepo.Complete(u.db.WithContext(ctx), bookingID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBookingNotUpcoming
	}

	u.auditService.Record(u.db.WithContext(ctx), &doctorID, entity.AuditActionBookingComplete, entity.JSON{
		"booking_id": bookingID.String(),
	})

	u.log.Infof("Booking completed: id=%s, doctor=%s", bookingID, doctorID)
	return nil
}

// GetMyBookings returns all bookings for the logged-in patient
func (u *bookingUsecase) GetMyBookings(ctx context.Context) (*dto.BookingListResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	bookings, err := u.bookingRepo.FindByPatientID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed to find bookings for patient %s: %+v", userID, err)
		return nil, err
	}

	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    len(bookings),
	}, nil
}

// GetDoctorBookings returns all bookings for the logged-in doctor
func (u *bookingUsecase) GetDoctorBookings(ctx context.Context) (*dto.BookingListResponse, error) {
	doctorID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	bookings, err := u.bookingRepo.FindByDoctorID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find bookings for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	return &dto.BookingListResponse{
		Bookings: converter.BookingsToResponses(bookings),
		Total:    len(bookings),
	}, nil
}

func (u *bookingUsecase) sendBookingEmail(email string, booking *entity.Booking) {
	subject := "Appointment confirmed"
	body := fmt.Sprintf("Your appointment on %s at %s is confirmed.", booking.AppointmentDate.Format("2006-01-02"), booking.SlotStart)
	if err := u.notifier.Send(email, subject, body); err != nil {
		u.log.Warnf("Failed to send booking email to %s: %+v", email, err)
	}
}

func (u *bookingUsecase) sendCancellationEmail(email string, booking *entity.Booking, refund decimal.Decimal) {
	subject := "Appointment cancelled"
	body := fmt.Sprintf("Your appointment on %s at %s was cancelled. %s has been refunded to your wallet.",
		booking.AppointmentDate.Format("2006-01-02"), booking.SlotStart, refund)
	if err := u.notifier.Send(email, subject, body); err != nil {
		u.log.Warnf("Failed to send cancellation email to %s: %+v", email, err)
	}
}

// paymentMetadata is the parsed, validated form of a gateway notification.
type paymentMetadata struct {
	reference string
	patientID uuid.UUID
	doctorID  uuid.UUID
	date      time.Time
	slotStart string
	slotEnd   string
	fee       decimal.Decimal
}

func parsePaymentNotification(n *dto.PaymentNotification) (*paymentMetadata, error) {
	if n.ExternalReference == "" {
		return nil, errors.New("missing external reference")
	}

	patientID, err := uuid.Parse(n.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}

	doctorID, err := uuid.Parse(n.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("invalid doctor id: %w", err)
	}

	date, err := time.Parse("2006-01-02", n.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	if err := validateSlot(n.SlotStart, n.SlotEnd); err != nil {
		return nil, err
	}

	fee, err := decimal.NewFromString(n.Fee)
	if err != nil || !fee.IsPositive() || fee.Exponent() < -2 {
		return nil, fmt.Errorf("invalid fee %q", n.Fee)
	}

	return &paymentMetadata{
		reference: n.ExternalReference,
		patientID: patientID,
		doctorID:  doctorID,
		date:      date,
		slotStart: n.SlotStart,
		slotEnd:   n.SlotEnd,
		fee:       fee,
	}, nil
}

func validateSlot(start, end string) error {
	from, err := time.Parse("15:04", start)
	if err != nil {
		return ErrInvalidSlot
	}
	to, err := time.Parse("15:04", end)
	if err != nil {
		return ErrInvalidSlot
	}
	if !from.Before(to) {
		return ErrInvalidSlot
	}
	return nil
}
