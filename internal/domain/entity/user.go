package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents the centralized authentication table. The party wallet
// balance lives on this row; it is mutated only through atomic increments
// paired with a wallet_transactions append.
type User struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoleID        int             `gorm:"not null;index" json:"role_id"`
	Email         string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password      string          `gorm:"type:text;not null" json:"-"`
	FullName      string          `gorm:"type:varchar(255);not null" json:"full_name"`
	WalletBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"wallet_balance"`
	IsActive      *bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Role          Role           `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	DoctorProfile *DoctorProfile `gorm:"foreignKey:UserID" json:"doctor_profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}
