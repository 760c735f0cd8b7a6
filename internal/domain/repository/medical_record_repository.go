package repository

import (
	"context"

	"go-telehealth-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MedicalRecordRepository interface {
	// Create persists the record together with its prescription, if any
	Create(ctx context.Context, db *gorm.DB, record *entity.MedicalRecord) error
	FindByAppointment(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID) ([]entity.MedicalRecord, error)
}
