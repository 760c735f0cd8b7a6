package converter

import (
	"time"

	"go-telehealth-booking/internal/delivery/dto"
	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/lifecycle"
	"go-telehealth-booking/internal/domain/timeslot"
)

// AppointmentToResponse projects an appointment together with its phase at now
func AppointmentToResponse(a *entity.Appointment, policy lifecycle.Policy, now time.Time) *dto.AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &dto.AppointmentResponse{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		DoctorID:           a.DoctorID,
		Patient:            participantToResponse(a.Patient),
		Doctor:             participantToResponse(a.Doctor),
		AppointmentDate:    a.AppointmentDate.Format(timeslot.DateLayout),
		StartTime:          clockString(a.StartTime),
		EndTime:            clockString(a.EndTime),
		Status:             string(a.Status),
		Symptoms:           a.Symptoms,
		DoctorAttended:     a.DoctorAttended,
		PatientAttended:    a.PatientAttended,
		CancellationReason: a.CancellationReason,
		VideoChannelName:   a.VideoChannelName,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}

	// phase only matters while the appointment can still be joined
	if !a.Status.IsTerminal() {
		if phase, err := policy.PhaseOf(a, now); err == nil {
			resp.Phase = string(phase)
			resp.CanJoin = phase.CanJoin()
		}
	}

	return resp
}

func AppointmentsToResponses(appointments []entity.Appointment, policy lifecycle.Policy, now time.Time) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i], policy, now)
	}
	return responses
}

func participantToResponse(u *entity.User) *dto.ParticipantResponse {
	if u == nil {
		return nil
	}
	return &dto.ParticipantResponse{ID: u.ID, FullName: u.FullName}
}

// clockString trims postgres time values like 09:00:00 down to 09:00
func clockString(raw string) string {
	d, err := timeslot.ParseClock(raw)
	if err != nil {
		return raw
	}
	return timeslot.FormatClock(d)
}
