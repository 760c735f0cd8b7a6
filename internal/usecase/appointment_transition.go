package usecase

import (
	"context"
	"errors"

	"go-telehealth-booking/internal/domain/entity"
	"go-telehealth-booking/internal/domain/lifecycle"
	"go-telehealth-booking/internal/domain/repository"
	"go-telehealth-booking/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// errStatusChanged means the compare-and-set found the row in another status
var errStatusChanged = errors.New("appointment status changed concurrently")

// transitionTrigger labels who or what caused a transition in audit rows and metrics
type transitionTrigger string

const (
	triggerSession transitionTrigger = "session"
	triggerCancel  transitionTrigger = "cancel"
	triggerSweep   transitionTrigger = "sweep"
)

// transitioner applies state machine transitions:
// CAS update + audit row in one transaction, then metrics and notification.
type transitioner struct {
	tx              repository.Transactor
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
	notifier        service.AppointmentNotifier
	metrics         *service.Metrics
}

type transitionRequest struct {
	current *entity.Appointment
	event   lifecycle.Event
	trigger transitionTrigger
	actor   *uuid.UUID
	// extra columns written together with status
	fields map[string]interface{}
	// pinAttendance makes the update also require the attendance flags the
	// target status was resolved from
	pinAttendance bool
	// afterUpdate runs inside the transaction once the row has moved
	afterUpdate func(tx *gorm.DB, updated *entity.Appointment) error
}

func (t *transitioner) apply(ctx context.Context, req transitionRequest) (*entity.Appointment, error) {
	from := req.current.Status
	to, err := lifecycle.Next(from, req.event, lifecycle.AttendanceOf(req.current))
	if err != nil {
		return nil, err
	}

	var expect map[string]interface{}
	if req.pinAttendance {
		expect = map[string]interface{}{
			entity.AttendanceRoleDoctor.Column():  req.current.DoctorAttended,
			entity.AttendanceRolePatient.Column(): req.current.PatientAttended,
		}
	}

	var updated *entity.Appointment
	err = t.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		row, err := t.appointmentRepo.TransitionStatus(ctx, tx, req.current.ID, from, to, req.fields, expect)
		if err != nil {
			return err
		}
		if row == nil {
			return errStatusChanged
		}
		updated = row

		if err := t.auditService.LogTransition(ctx, tx, req.actor, row.ID, from, to, string(req.trigger)); err != nil {
			return err
		}

		if req.afterUpdate != nil {
			return req.afterUpdate(tx, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.metrics.ObserveTransition(string(from), string(to), string(req.trigger))

	updated = t.withParticipants(ctx, updated)
	t.notifier.NotifyParticipants(service.EventAppointmentUpdated, updated)

	return updated, nil
}

// withParticipants re-reads a committed row so patient and doctor are loaded.
// RETURNING rows carry only the appointment columns.
func (t *transitioner) withParticipants(ctx context.Context, row *entity.Appointment) *entity.Appointment {
	full, err := t.appointmentRepo.FindByID(ctx, t.tx.DB(ctx), row.ID)
	if err != nil || full == nil {
		t.log.WithField("appointment_id", row.ID).Warnf("Failed to load appointment participants: %+v", err)
		return row
	}
	return full
}

// reload fetches the current row after a lost compare-and-set
func (t *transitioner) reload(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	appointment, err := t.appointmentRepo.FindByID(ctx, t.tx.DB(ctx), id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	return appointment, nil
}
