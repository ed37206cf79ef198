package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DoctorProfile represents doctor-specific profile data
type DoctorProfile struct {
	UserID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"user_id"`
	Specialization string          `gorm:"type:varchar(100);not null;index" json:"specialization"`
	ConsultationFee decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"consultation_fee"`
	IsVerified     bool            `gorm:"not null;default:false;index" json:"is_verified"`
	Biography      string          `gorm:"type:text" json:"biography,omitempty"`

	// Relationships
	User     User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Bookings []Booking `gorm:"foreignKey:DoctorID" json:"bookings,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}
