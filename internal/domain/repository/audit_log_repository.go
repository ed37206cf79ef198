package repository

import (
	"docpoint/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	FindAll(db *gorm.DB, page, limit int) ([]entity.AuditLog, int64, error)
}
