package repository

import (
	"context"
	"time"

	"go-telehealth-booking/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindByParticipant(ctx context.Context, db *gorm.DB, userID uuid.UUID, statuses []entity.AppointmentStatus) ([]entity.Appointment, error)
	// FindActiveByDoctorAndDate returns every non-cancelled appointment of the doctor on date
	FindActiveByDoctorAndDate(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]entity.Appointment, error)
	// CountOverlapping counts non-cancelled appointments with start < end AND end > start
	CountOverlapping(ctx context.Context, db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime, endTime string) (int64, error)
	// FindExpiredScheduled returns scheduled rows whose date+end_time is before cutoff,
	// oldest first, leaving out the ids in exclude.
	// cutoff is compared as a wall-clock timestamp; limit <= 0 means no cap.
	FindExpiredScheduled(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int, exclude []uuid.UUID) ([]entity.Appointment, error)

	// TransitionStatus moves the row from -> to only if it is still in from and
	// every column in expect still holds the given value.
	// Returns nil, nil when the row no longer matches.
	TransitionStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from, to entity.AppointmentStatus, fields, expect map[string]interface{}) (*entity.Appointment, error)
	// MarkAttended sets the role's attendance flag while the row is in one of statuses.
	// Returns nil, nil when the row does not match.
	MarkAttended(ctx context.Context, db *gorm.DB, id uuid.UUID, role entity.AttendanceRole, statuses ...entity.AppointmentStatus) (*entity.Appointment, error)
}
