package repository

import (
	"errors"
	"time"

	"docpoint/internal/domain/entity"
	domainRepo "docpoint/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type bookingRepository struct{}

func NewBookingRepository() domainRepo.BookingRepository {
	return &bookingRepository{}
}

func (r *bookingRepository) Create(db *gorm.DB, booking *entity.Booking) error {
	return db.Create(booking).Error
}

func (r *bookingRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.Preload("Doctor.User").Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.Preload("Doctor.User").
		Where("patient_id = ?", patientID).
		Order("appointment_date DESC, slot_start DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.Preload("Patient").
		Where("doctor_id = ?", doctorID).
		Order("appointment_date DESC, slot_start DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// Cancel atomically cancels a booking ONLY while it is still upcoming.
// Returns affected rows: 1 = success, 0 = already cancelled or completed
// (prevents the double-cancel / double-refund race).
func (r *bookingRepository) Cancel(db *gorm.DB, id uuid.UUID, reason string) (int64, error) {
	result := db.Model(&entity.Booking{}).
		Where("id = ? AND status = ?", id, entity.BookingStatusUpcoming).
		Updates(map[string]interface{}{
			"status":              entity.BookingStatusCancelled,
			"cancellation_reason": reason,
		})
	return result.RowsAffected, result.Error
}

func (r *bookingRepository) Complete(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Model(&entity.Booking{}).
		Where("id = ? AND status = ?", id, entity.BookingStatusUpcoming).
		Update("status", entity.BookingStatusCompleted)
	return result.RowsAffected, result.Error
}

func (r *bookingRepository) UpdateRefundStatus(db *gorm.DB, id uuid.UUID, status entity.RefundStatus) error {
	return db.Model(&entity.Booking{}).
		Where("id = ?", id).
		Update("refund_status", status).Error
}

func (r *bookingRepository) MarkPayoutPaid(db *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&entity.Booking{}).
		Where("id IN ?", ids).
		Update("payout_status", entity.PayoutStatusPaid).Error
}

func (r *bookingRepository) FindPendingPayoutsByDoctor(db *gorm.DB, doctorID uuid.UUID) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.Where("doctor_id = ? AND status = ? AND payout_status = ? AND payment_status = ?",
		doctorID, entity.BookingStatusCompleted, entity.PayoutStatusPending, entity.PaymentStatusPaid).
		Order("appointment_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindOverlapping detects a double-booking: same doctor, same date, and
// [slot_start, slot_end) intervals intersecting.
func (r *bookingRepository) FindOverlapping(db *gorm.DB, doctorID uuid.UUID, date time.Time, slotStart, slotEnd string) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.Where("doctor_id = ? AND appointment_date = ? AND status != ? AND slot_start < ? AND slot_end > ?",
		doctorID, date.Format("2006-01-02"), entity.BookingStatusCancelled, slotEnd, slotStart).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}
