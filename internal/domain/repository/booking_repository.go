package repository

import (
	"time"

	"docpoint/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(db *gorm.DB, booking *entity.Booking) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Booking, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Booking, error)

	// Cancel flips status to cancelled and records the reason, but only while
	// the booking is still upcoming. Returns affected rows: 0 means the
	// booking was already cancelled or completed.
	Cancel(db *gorm.DB, id uuid.UUID, reason string) (int64, error)

	// Complete flips status upcoming -> completed. Returns affected rows.
	Complete(db *gorm.DB, id uuid.UUID) (int64, error)

	UpdateRefundStatus(db *gorm.DB, id uuid.UUID, status entity.RefundStatus) error

	// MarkPayoutPaid bulk-sets payout_status=paid for exactly the given ids.
	// Callers must have already filtered to completed bookings with a
	// pending payout.
	MarkPayoutPaid(db *gorm.DB, ids []uuid.UUID) error

	// FindPendingPayoutsByDoctor returns completed, paid bookings whose
	// doctor share has not been settled yet.
	FindPendingPayoutsByDoctor(db *gorm.DB, doctorID uuid.UUID) ([]entity.Booking, error)

	// FindOverlapping returns a non-cancelled booking for the doctor on the
	// given date whose [start, end) slot intersects the given one, or nil.
	FindOverlapping(db *gorm.DB, doctorID uuid.UUID, date time.Time, slotStart, slotEnd string) (*entity.Booking, error)
}
