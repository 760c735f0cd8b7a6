package repository

import (
	"context"

	"go-telehealth-booking/internal/domain/entity"
	domainRepo "go-telehealth-booking/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type availabilityRepository struct{}

func NewAvailabilityRepository() domainRepo.AvailabilityRepository {
	return &availabilityRepository{}
}

func (r *availabilityRepository) FindByDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.AvailabilitySlot, error) {
	var slots []entity.AvailabilitySlot
	err := db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("day_of_week ASC, start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *availabilityRepository) FindActiveByDoctorAndDay(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, dayOfWeek int) ([]entity.AvailabilitySlot, error) {
	var slots []entity.AvailabilitySlot
	err := db.WithContext(ctx).
		Where("doctor_id = ? AND day_of_week = ? AND is_available = ?", doctorID, dayOfWeek, true).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *availabilityRepository) Upsert(ctx context.Context, db *gorm.DB, slot *entity.AvailabilitySlot) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doctor_id"}, {Name: "day_of_week"}, {Name: "start_time"}},
		DoUpdates: clause.AssignmentColumns([]string{"end_time", "is_available", "updated_at"}),
	}).Create(slot).Error
}

func (r *availabilityRepository) SetAvailable(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, id int, available bool) (*entity.AvailabilitySlot, error) {
	var slots []entity.AvailabilitySlot
	result := db.WithContext(ctx).
		Model(&slots).
		Clauses(clause.Returning{}).
		Where("id = ? AND doctor_id = ?", id, doctorID).
		Update("is_available", available)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 || len(slots) == 0 {
		return nil, nil
	}
	return &slots[0], nil
}
