package repository

import (
	"context"

	"go-telehealth-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AvailabilityRepository interface {
	FindByDoctor(ctx context.Context, db *gorm.DB, doctorID uuid.UUID) ([]entity.AvailabilitySlot, error)
	FindActiveByDoctorAndDay(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, dayOfWeek int) ([]entity.AvailabilitySlot, error)
	// Upsert inserts or replaces the slot keyed by (doctor_id, day_of_week, start_time)
	Upsert(ctx context.Context, db *gorm.DB, slot *entity.AvailabilitySlot) error
	// SetAvailable toggles a slot owned by doctorID. Returns nil when no such slot exists.
	SetAvailable(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, id int, available bool) (*entity.AvailabilitySlot, error)
}
