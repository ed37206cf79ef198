package service

import (
	"docpoint/internal/domain/entity"
	"docpoint/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService records an immutable trail of booking and money operations.
// Audit failures are logged and swallowed: they must never abort the
// operation being audited.
type AuditService interface {
	Record(db *gorm.DB, userID *uuid.UUID, action string, metadata entity.JSON)
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) Record(db *gorm.DB, userID *uuid.UUID, action string, metadata entity.JSON) {
	auditLog := &entity.AuditLog{
		UserID:   userID,
		Action:   action,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(db, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log for %s: %+v", action, err)
	}
}
