package repository

import (
	"context"

	"go-telehealth-booking/internal/domain/entity"
	domainRepo "go-telehealth-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type medicalRecordRepository struct{}

func NewMedicalRecordRepository() domainRepo.MedicalRecordRepository {
	return &medicalRecordRepository{}
}

func (r *medicalRecordRepository) Create(ctx context.Context, db *gorm.DB, record *entity.MedicalRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *medicalRecordRepository) FindByAppointment(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID) ([]entity.MedicalRecord, error) {
	var records []entity.MedicalRecord
	err := db.WithContext(ctx).
		Preload("Prescription").
		Where("appointment_id = ?", appointmentID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
