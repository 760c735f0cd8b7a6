// Package lifecycle owns the appointment status table and the time phase function.
package lifecycle

import (
	"errors"

	"go-telehealth-booking/internal/domain/entity"
)

// Event is a trigger that may move an appointment to another status
type Event string

const (
	EventEnterSession Event = "enter_session"
	EventEndSession   Event = "end_session"
	EventCancel       Event = "cancel"
	EventSweep        Event = "sweep"
)

var ErrInvalidTransition = errors.New("invalid appointment status transition")

// Attendance carries the participant flags the sweep resolution depends on
type Attendance struct {
	Doctor  bool
	Patient bool
}

func AttendanceOf(a *entity.Appointment) Attendance {
	return Attendance{Doctor: a.DoctorAttended, Patient: a.PatientAttended}
}

type transitionKey struct {
	from  entity.AppointmentStatus
	event Event
}

// sweep is resolved separately because its target depends on attendance
var transitions = map[transitionKey]entity.AppointmentStatus{
	{entity.AppointmentStatusScheduled, EventEnterSession}: entity.AppointmentStatusInProgress,
	{entity.AppointmentStatusScheduled, EventCancel}:       entity.AppointmentStatusCancelled,
	{entity.AppointmentStatusInProgress, EventEndSession}:  entity.AppointmentStatusCompleted,
}

// Next returns the status reached by applying event to from
func Next(from entity.AppointmentStatus, event Event, att Attendance) (entity.AppointmentStatus, error) {
	if event == EventSweep {
		if from != entity.AppointmentStatusScheduled {
			return from, ErrInvalidTransition
		}
		if att.Doctor && att.Patient {
			return entity.AppointmentStatusCompleted, nil
		}
		return entity.AppointmentStatusMissed, nil
	}

	to, ok := transitions[transitionKey{from: from, event: event}]
	if !ok {
		return from, ErrInvalidTransition
	}
	return to, nil
}

// Allowed reports whether event is defined for from
func Allowed(from entity.AppointmentStatus, event Event) bool {
	_, err := Next(from, event, Attendance{})
	return err == nil
}
