package entity

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilitySlot is a recurring weekly window during which a doctor accepts bookings.
// (doctor_id, day_of_week, start_time) is unique; slots are toggled off instead of deleted.
type AvailabilitySlot struct {
	ID          int       `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_availability_doctor_day_start" json:"doctor_id"`
	DayOfWeek   int       `gorm:"not null;uniqueIndex:idx_availability_doctor_day_start" json:"day_of_week"`
	StartTime   string    `gorm:"type:time;not null;uniqueIndex:idx_availability_doctor_day_start" json:"start_time"`
	EndTime     string    `gorm:"type:time;not null" json:"end_time"`
	IsAvailable bool      `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AvailabilitySlot) TableName() string {
	return "availability_slots"
}
