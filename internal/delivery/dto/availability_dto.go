package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type AvailabilitySlotRequest struct {
	DayOfWeek   *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime   string `json:"start_time" validate:"required,clock"`
	EndTime     string `json:"end_time" validate:"required,clock"`
	IsAvailable *bool  `json:"is_available"`
}

type UpsertAvailabilityRequest struct {
	Slots []AvailabilitySlotRequest `json:"slots" validate:"required,min=1,dive"`
}

type ToggleAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

// Response DTOs

type AvailabilitySlotResponse struct {
	ID          int       `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	DayOfWeek   int       `json:"day_of_week"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AvailabilityListResponse struct {
	Slots []AvailabilitySlotResponse `json:"slots"`
	Total int                        `json:"total"`
}

type TimeSlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AvailableSlotsResponse struct {
	DoctorID uuid.UUID          `json:"doctor_id"`
	Date     string             `json:"date"`
	Slots    []TimeSlotResponse `json:"slots"`
	Total    int                `json:"total"`
}
