package usecase

import (
	"context"

	"docpoint/internal/converter"
	"docpoint/internal/delivery/dto"
	"docpoint/internal/delivery/http/middleware"
	"docpoint/internal/domain/entity"
	"docpoint/internal/domain/repository"
	"docpoint/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AdminUsecase interface {
	// VerifyDoctor flips the verification flag on a doctor profile.
	VerifyDoctor(ctx context.Context, doctorID uuid.UUID, verified bool) error
	GetAuditLogs(ctx context.Context, page, limit int) (*dto.AuditLogListResponse, error)
}

type adminUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	doctorRepo   repository.DoctorProfileRepository
	auditRepo    repository.AuditLogRepository
	auditService service.AuditService
}

func NewAdminUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	doctorRepo repository.DoctorProfileRepository,
	auditRepo repository.AuditLogRepository,
	auditService service.AuditService,
) AdminUsecase {
	return &adminUsecase{
		db:           db,
		log:          log,
		doctorRepo:   doctorRepo,
		auditRepo:    auditRepo,
		auditService: auditService,
	}
}

func (u *adminUsecase) VerifyDoctor(ctx context.Context, doctorID uuid.UUID, verified bool) error {
	doctor, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		return err
	}
	if doctor == nil {
		return ErrDoctorNotFound
	}

	if err := u.doctorRepo.SetVerified(u.db.WithContext(ctx), doctorID, verified); err != nil {
		u.log.Warnf("Failed to update verification for doctor %s: %+v", doctorID, err)
		return err
	}

	actorID, _ := middleware.GetUserIDFromContext(ctx)
	u.auditService.Record(u.db.WithContext(ctx), &actorID, "doctor.verify", entity.JSON{
		"doctor_id": doctorID.String(),
		"verified":  verified,
	})

	return nil
}

func (u *adminUsecase) GetAuditLogs(ctx context.Context, page, limit int) (*dto.AuditLogListResponse, error) {
	logs, total, err := u.auditRepo.FindAll(u.db.WithContext(ctx), page, limit)
	if err != nil {
		u.log.Warnf("Failed to find audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: total,
	}, nil
}
