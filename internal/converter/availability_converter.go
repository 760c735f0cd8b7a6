package converter

import (
	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/timeslot"
)

func AvailabilitySlotToResponse(slot *entity.AvailabilitySlot) *dto.AvailabilitySlotResponse {
	if slot == nil {
		return nil
	}

	return &dto.AvailabilitySlotResponse{
		ID:          slot.ID,
		DoctorID:    slot.DoctorID,
		DayOfWeek:   slot.DayOfWeek,
		StartTime:   clockString(slot.StartTime),
		EndTime:     clockString(slot.EndTime),
		IsAvailable: slot.IsAvailable,
		UpdatedAt:   slot.UpdatedAt,
	}
}

func AvailabilitySlotsToResponses(slots []entity.AvailabilitySlot) []dto.AvailabilitySlotResponse {
	responses := make([]dto.AvailabilitySlotResponse, len(slots))
	for i := range slots {
		responses[i] = *AvailabilitySlotToResponse(&slots[i])
	}
	return responses
}

// WindowsToTimeSlots renders bookable windows as HH:MM pairs
func WindowsToTimeSlots(windows []timeslot.Window) []dto.TimeSlotResponse {
	responses := make([]dto.TimeSlotResponse, len(windows))
	for i, w := range windows {
		responses[i] = dto.TimeSlotResponse{
			StartTime: w.Start.Format(timeslot.ClockLayout),
			EndTime:   w.End.Format(timeslot.ClockLayout),
		}
	}
	return responses
}
