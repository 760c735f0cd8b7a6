package usecase

import (
	"context"
	"errors"
	"fmt"

	"go-telehealth-booking/internal/converter"
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/repository"
	"go-telehealth-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrMedicalRecordNotAllowed = errors.New("medical records can only be added to in-progress or completed appointments")
)

type MedicalRecordUsecase interface {
	CreateMedicalRecord(ctx context.Context, caller entity.Caller, appointmentID uuid.UUID, req *dto.CreateMedicalRecordRequest) (*dto.MedicalRecordResponse, error)
	GetMedicalRecords(ctx context.Context, caller entity.Caller, appointmentID uuid.UUID) (*dto.MedicalRecordListResponse, error)
}

type medicalRecordUsecase struct {
	tx                repository.Transactor
	log               *logrus.Logger
	appointmentRepo   repository.AppointmentRepository
	medicalRecordRepo repository.MedicalRecordRepository
	auditService      service.AuditService
}

func NewMedicalRecordUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	medicalRecordRepo repository.MedicalRecordRepository,
	auditService service.AuditService,
) MedicalRecordUsecase {
	return &medicalRecordUsecase{
		tx:                tx,
		log:               log,
		appointmentRepo:   appointmentRepo,
		medicalRecordRepo: medicalRecordRepo,
		auditService:      auditService,
	}
}

// CreateMedicalRecord attaches a record written by the appointment's doctor
func (u *medicalRecordUsecase) CreateMedicalRecord(ctx context.Context, caller entity.Caller, appointmentID uuid.UUID, req *dto.CreateMedicalRecordRequest) (*dto.MedicalRecordResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, u.tx.DB(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if appointment.DoctorID != caller.UserID {
		return nil, ErrForbidden
	}
	if appointment.Status != entity.AppointmentStatusInProgress && appointment.Status != entity.AppointmentStatusCompleted {
		return nil, ErrMedicalRecordNotAllowed
	}

	record := converter.MedicalRecordFromRequest(req, appointment)

	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := u.medicalRecordRepo.Create(ctx, tx, record); err != nil {
			return fmt.Errorf("insert medical record: %w", err)
		}
		return u.auditService.LogCreate(ctx, tx, &caller.UserID, entity.AuditActionMedicalRecordCreate,
			"medical_record", record.ID.String(), converter.MedicalRecordToResponse(record))
	})
	if err != nil {
		u.log.Errorf("Failed to create medical record for appointment %s: %+v", appointmentID, err)
		return nil, err
	}

	return converter.MedicalRecordToResponse(record), nil
}

func (u *medicalRecordUsecase) GetMedicalRecords(ctx context.Context, caller entity.Caller, appointmentID uuid.UUID) (*dto.MedicalRecordListResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, u.tx.DB(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !appointment.IsParticipant(caller.UserID) && !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	records, err := u.medicalRecordRepo.FindByAppointment(ctx, u.tx.DB(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find medical records for appointment %s: %+v", appointmentID, err)
		return nil, err
	}

	return &dto.MedicalRecordListResponse{
		Records: converter.MedicalRecordsToResponses(records),
		Total:   len(records),
	}, nil
}
