package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment state of a booking
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusUpcoming  BookingStatus = "upcoming"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// PayoutStatus tracks whether the doctor's share has been settled
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
)

// RefundStatus tracks whether a cancelled booking's fee was returned
type RefundStatus string

const (
	RefundStatusNotRequired RefundStatus = "not_required"
	RefundStatusRefunded    RefundStatus = "refunded"
)

// Booking represents one reserved appointment slot between a patient and a
// doctor, together with its payment, refund and payout state.
//
// DoctorEarning + CommissionAmount always equals the fee charged when the
// booking was created; refunds and payouts are reconstructed from this
// stored split, never re-read from the gateway.
type Booking struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"doctor_id"`
	AppointmentDate  time.Time       `gorm:"type:date;not null;index" json:"appointment_date"`
	SlotStart        string          `gorm:"type:time;not null" json:"slot_start"`
	SlotEnd          string          `gorm:"type:time;not null" json:"slot_end"`
	PaymentStatus    PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	Status           BookingStatus   `gorm:"type:varchar(20);not null;default:'upcoming';index" json:"status"`
	TransactionID    *string         `gorm:"type:varchar(100);uniqueIndex" json:"transaction_id,omitempty"`
	DoctorEarning    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"doctor_earning"`
	CommissionAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"commission_amount"`
	PayoutStatus     PayoutStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"payout_status"`
	RefundStatus     RefundStatus    `gorm:"type:varchar(20);not null;default:'not_required'" json:"refund_status"`
	CancellationReason *string       `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient User           `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  DoctorProfile  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// GrossFee reconstructs the fee charged at booking time from the stored split.
func (b *Booking) GrossFee() decimal.Decimal {
	return b.DoctorEarning.Add(b.CommissionAmount)
}

// IsUpcoming checks if the booking can still be cancelled or completed
func (b *Booking) IsUpcoming() bool {
	return b.Status == BookingStatusUpcoming
}

// IsCancelled checks if booking is cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// IsCompleted checks if the appointment has taken place
func (b *Booking) IsCompleted() bool {
	return b.Status == BookingStatusCompleted
}

// StartsAt combines the appointment date with the slot start time.
func (b *Booking) StartsAt() (time.Time, error) {
	return combineDateAndTime(b.AppointmentDate, b.SlotStart)
}

// EndsAt combines the appointment date with the slot end time.
func (b *Booking) EndsAt() (time.Time, error) {
	return combineDateAndTime(b.AppointmentDate, b.SlotEnd)
}

func combineDateAndTime(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot time %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

// SplitFee divides a gross fee into the platform commission and the doctor's
// share. Commission is rounded to cents; the earning is the remainder, so the
// two always sum back to the fee exactly.
func SplitFee(fee, commissionRate decimal.Decimal) (earning, commission decimal.Decimal) {
	commission = fee.Mul(commissionRate).Round(2)
	earning = fee.Sub(commission)
	return earning, commission
}
